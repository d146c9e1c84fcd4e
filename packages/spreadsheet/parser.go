package spreadsheet

import "fmt"

// ChainRule names one of the binary precedence levels, lowest first
type ChainRule int

const (
	RuleAddition ChainRule = iota
	RuleMultiplication
	RulePower
)

// ParseTree is a node of the concrete parse tree: a *ChainContext or a
// *UnaryContext
type ParseTree interface {
	Span() NodePosition
}

// ChainContext is one precedence level: operands separated by operator
// tokens, in source order. len(Operators) == len(Operands)-1.
type ChainContext struct {
	Rule      ChainRule
	Operands  []ParseTree
	Operators []Token
}

func (c *ChainContext) Span() NodePosition {
	return NodePosition{
		Start: c.Operands[0].Span().Start,
		End:   c.Operands[len(c.Operands)-1].Span().End,
	}
}

// UnaryContext is a run of prefix operators followed by a term
type UnaryContext struct {
	Operators []Token
	Term      *TermContext
}

func (c *UnaryContext) Span() NodePosition {
	span := c.Term.Span()
	if len(c.Operators) > 0 {
		span.Start = c.Operators[0].Pos
	}
	return span
}

// TermContext holds exactly one of its fields
type TermContext struct {
	Number *Token
	Cell   *Token
	Group  *ChainContext
	Call   *CallContext

	Position NodePosition
}

func (c *TermContext) Span() NodePosition {
	return c.Position
}

// CallContext is name(argument)
type CallContext struct {
	Name     Token
	Argument *ChainContext
}

// Parser turns a token stream into a parse tree
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a new parser with the given tokens
func NewParser(tokens []Token) *Parser {
	return &Parser{
		tokens: tokens,
		pos:    0,
	}
}

// ParseText lexes and parses formula text
func ParseText(text string) (*ChainContext, error) {
	tokens, err := NewLexer(text).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Parse()
}

// Parse parses the tokens into a parse tree rooted at the addition level
func (p *Parser) Parse() (*ChainContext, error) {
	if len(p.tokens) == 0 {
		return nil, &SyntaxError{Line: 1, Column: 1, Message: "no tokens to parse"}
	}

	tree, err := p.parseAddition()
	if err != nil {
		return nil, err
	}

	if tok := p.current(); tok.Type != TokenEOF {
		return nil, p.errorAt(tok, fmt.Sprintf("unexpected token after expression: %q", tok.Value))
	}

	return tree, nil
}

// parseAddition handles addition and subtraction
func (p *Parser) parseAddition() (*ChainContext, error) {
	return p.parseChain(RuleAddition, map[string]bool{"+": true, "-": true}, func() (ParseTree, error) {
		return p.parseMultiplication()
	})
}

// parseMultiplication handles multiplication, division, and modulo
func (p *Parser) parseMultiplication() (*ChainContext, error) {
	return p.parseChain(RuleMultiplication, map[string]bool{"*": true, "/": true, "%": true}, func() (ParseTree, error) {
		return p.parsePower()
	})
}

// parsePower handles exponentiation. the chain is flat here; associativity
// is decided when the AST is built.
func (p *Parser) parsePower() (*ChainContext, error) {
	return p.parseChain(RulePower, map[string]bool{"**": true}, func() (ParseTree, error) {
		return p.parseUnary()
	})
}

func (p *Parser) parseChain(rule ChainRule, ops map[string]bool, operand func() (ParseTree, error)) (*ChainContext, error) {
	first, err := operand()
	if err != nil {
		return nil, err
	}

	chain := &ChainContext{Rule: rule, Operands: []ParseTree{first}}
	for {
		tok := p.current()
		if tok.Type != TokenBinaryOp || !ops[tok.Value] {
			break
		}
		p.pos++

		next, err := operand()
		if err != nil {
			return nil, err
		}
		chain.Operators = append(chain.Operators, tok)
		chain.Operands = append(chain.Operands, next)
	}
	return chain, nil
}

// parseUnary collects prefix operators in source order
func (p *Parser) parseUnary() (*UnaryContext, error) {
	ctx := &UnaryContext{}
	for p.current().Type == TokenUnaryPrefixOp {
		ctx.Operators = append(ctx.Operators, p.current())
		p.pos++
	}

	term, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	ctx.Term = term
	return ctx, nil
}

// parseTerm handles primary expressions (literals, references,
// functions, parentheses)
func (p *Parser) parseTerm() (*TermContext, error) {
	tok := p.current()

	switch tok.Type {
	case TokenNumber:
		p.pos++
		return &TermContext{
			Number:   &tok,
			Position: NodePosition{Start: tok.Pos, End: tok.Pos + len(tok.Value)},
		}, nil

	case TokenCell:
		p.pos++
		return &TermContext{
			Cell:     &tok,
			Position: NodePosition{Start: tok.Pos, End: tok.Pos + len(tok.Value)},
		}, nil

	case TokenFunction:
		return p.parseFunctionCall()

	case TokenLeftParen:
		p.pos++
		inner, err := p.parseAddition()
		if err != nil {
			return nil, err
		}
		closing, err := p.expect(TokenRightParen, "expected closing parenthesis")
		if err != nil {
			return nil, err
		}
		return &TermContext{
			Group:    inner,
			Position: NodePosition{Start: tok.Pos, End: closing.Pos + 1},
		}, nil

	case TokenEOF:
		return nil, p.errorAt(tok, "unexpected end of expression")

	default:
		return nil, p.errorAt(tok, fmt.Sprintf("unexpected token: %q", tok.Value))
	}
}

// parseFunctionCall parses name(expression)
func (p *Parser) parseFunctionCall() (*TermContext, error) {
	nameTok := p.current()
	p.pos++

	if _, err := p.expect(TokenLeftParen, "expected '(' after function name"); err != nil {
		return nil, err
	}

	arg, err := p.parseAddition()
	if err != nil {
		return nil, err
	}

	closing, err := p.expect(TokenRightParen, "expected ')' after function argument")
	if err != nil {
		return nil, err
	}

	return &TermContext{
		Call:     &CallContext{Name: nameTok, Argument: arg},
		Position: NodePosition{Start: nameTok.Pos, End: closing.Pos + 1},
	}, nil
}

func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		// the lexer always terminates the stream with EOF
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

func (p *Parser) expect(t TokenType, message string) (Token, error) {
	tok := p.current()
	if tok.Type != t {
		return Token{}, p.errorAt(tok, message)
	}
	p.pos++
	return tok, nil
}

func (p *Parser) errorAt(tok Token, message string) *SyntaxError {
	return &SyntaxError{Line: tok.Line, Column: tok.Column, Message: message}
}
