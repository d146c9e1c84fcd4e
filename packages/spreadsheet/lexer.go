package spreadsheet

import "fmt"

// TokenType represents different types of tokens in formulas
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenCell
	TokenFunction
	TokenUnaryPrefixOp
	TokenBinaryOp
	TokenLeftParen
	TokenRightParen
	TokenWhitespace
	TokenError
)

var tokenNames = map[TokenType]string{
	TokenEOF:           "end of input",
	TokenNumber:        "number",
	TokenCell:          "cell reference",
	TokenFunction:      "function",
	TokenUnaryPrefixOp: "unary operator",
	TokenBinaryOp:      "operator",
	TokenLeftParen:     "'('",
	TokenRightParen:    "')'",
	TokenWhitespace:    "whitespace",
	TokenError:         "error",
}

func (t TokenType) String() string {
	return tokenNames[t]
}

// character classification constants. slightly easier to read.
const (
	charNull       = 0
	charTab        = '\t'
	charNewline    = '\n'
	charReturn     = '\r'
	charSpace      = ' '
	charDollar     = '$'
	charPercent    = '%'
	charLParen     = '('
	charRParen     = ')'
	charAsterisk   = '*'
	charPlus       = '+'
	charMinus      = '-'
	charPeriod     = '.'
	charSlash      = '/'
	charUnderscore = '_'
)

// TokenState represents the lexer state for validation
type TokenState int

const (
	StateStart TokenState = iota
	StateAfterValue
	StateAfterOperator
	StateAfterLeftParen
	StateAfterRightParen
	StateAfterFunction
)

// tokenTransitions maps the current state to valid next token types
var tokenTransitions = map[TokenState]map[TokenType]bool{
	StateStart: {
		TokenUnaryPrefixOp: true,
		TokenNumber:        true,
		TokenCell:          true,
		TokenFunction:      true,
		TokenLeftParen:     true,
	},
	StateAfterValue: { // after number or cell
		TokenBinaryOp:   true,
		TokenRightParen: true,
		TokenEOF:        true,
	},
	StateAfterOperator: {
		TokenNumber:        true,
		TokenCell:          true,
		TokenFunction:      true,
		TokenLeftParen:     true,
		TokenUnaryPrefixOp: true,
	},
	StateAfterLeftParen: {
		TokenNumber:        true,
		TokenCell:          true,
		TokenFunction:      true,
		TokenLeftParen:     true,
		TokenUnaryPrefixOp: true,
	},
	StateAfterRightParen: {
		TokenBinaryOp:   true,
		TokenRightParen: true,
		TokenEOF:        true,
	},
	StateAfterFunction: {
		TokenLeftParen: true, // a call always takes exactly one parenthesized argument
	},
}

// Token represents a lexical token with position information
type Token struct {
	Type   TokenType
	Value  string
	Pos    int // byte offset in input
	Line   int // 1-based
	Column int // 1-based
}

// Lexer tokenizes formula text. Formula text is ASCII only, so byte offsets
// and character offsets coincide.
type Lexer struct {
	input      string
	pos        int
	state      TokenState
	parenDepth int
	tokens     []Token
}

// NewLexer creates a new lexer for the given formula input
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		state:  StateStart,
		tokens: []Token{},
	}
}

// Tokenize tokenizes the entire input. The token list always ends with EOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	if i := firstNonASCII(l.input); i >= 0 {
		l.advanceTo(i)
		return nil, l.errorAt(l.pos, "non-ASCII character in formula")
	}

	for {
		tok := l.nextToken()
		if tok.Type == TokenError {
			return nil, l.syntaxError(tok, tok.Value)
		}
		if tok.Type == TokenWhitespace {
			continue
		}
		if !l.validateTransition(tok.Type) {
			if tok.Type == TokenEOF {
				return nil, l.syntaxError(tok, "unexpected end of input")
			}
			return nil, l.syntaxError(tok, fmt.Sprintf("unexpected %s %q", tok.Type, tok.Value))
		}
		if tok.Type == TokenEOF {
			if l.parenDepth > 0 {
				return nil, l.syntaxError(tok, "unbalanced parentheses: missing closing parenthesis")
			}
			l.tokens = append(l.tokens, tok)
			return l.tokens, nil
		}
		l.tokens = append(l.tokens, tok)
		l.updateState(tok.Type)
	}
}

// validateTransition checks if the token type is valid in current state
func (l *Lexer) validateTransition(tokenType TokenType) bool {
	validTokens, exists := tokenTransitions[l.state]
	if !exists {
		return false
	}
	return validTokens[tokenType]
}

// updateState updates the lexer state based on the token type
func (l *Lexer) updateState(tokenType TokenType) {
	switch tokenType {
	case TokenNumber, TokenCell:
		l.state = StateAfterValue
	case TokenUnaryPrefixOp, TokenBinaryOp:
		l.state = StateAfterOperator
	case TokenLeftParen:
		l.state = StateAfterLeftParen
	case TokenRightParen:
		l.state = StateAfterRightParen
	case TokenFunction:
		l.state = StateAfterFunction
	}
}

// nextToken returns the next token from the input
func (l *Lexer) nextToken() Token {
	if l.pos >= len(l.input) {
		return l.token(TokenEOF, "", l.pos)
	}

	startPos := l.pos
	ch := l.current()

	if l.isSpace(ch) {
		l.skipWhitespace()
		return l.token(TokenWhitespace, l.input[startPos:l.pos], startPos)
	}

	if l.isDigit(ch) {
		return l.scanNumber()
	}

	switch ch {
	case charDollar:
		return l.scanCell()
	case charLParen:
		l.pos++
		l.parenDepth++
		return l.token(TokenLeftParen, "(", startPos)
	case charRParen:
		l.pos++
		l.parenDepth--
		if l.parenDepth < 0 {
			return l.token(TokenError, "unbalanced parentheses: unexpected closing parenthesis", startPos)
		}
		return l.token(TokenRightParen, ")", startPos)
	case charPlus, charMinus:
		return l.scanUnaryPrefixOrBinaryOp()
	case charAsterisk, charSlash, charPercent:
		return l.scanBinaryOp()
	}

	if l.isAlpha(ch) || ch == charUnderscore {
		return l.scanFunction()
	}

	l.pos++
	return l.token(TokenError, fmt.Sprintf("unexpected character %q", ch), startPos)
}

func (l *Lexer) token(t TokenType, value string, start int) Token {
	line, col := l.positionOf(start)
	return Token{Type: t, Value: value, Pos: start, Line: line, Column: col}
}

// positionOf converts a byte offset to a 1-based line and column
func (l *Lexer) positionOf(offset int) (int, int) {
	line, lineStart := 1, 0
	for i := 0; i < offset && i < len(l.input); i++ {
		if l.input[i] == charNewline {
			line++
			lineStart = i + 1
		}
	}
	return line, offset - lineStart + 1
}

func (l *Lexer) syntaxError(tok Token, message string) *SyntaxError {
	return &SyntaxError{Line: tok.Line, Column: tok.Column, Message: message}
}

func (l *Lexer) errorAt(offset int, message string) *SyntaxError {
	line, col := l.positionOf(offset)
	return &SyntaxError{Line: line, Column: col, Message: message}
}

// helper methods for character navigation and classification

func (l *Lexer) advanceTo(offset int) {
	l.pos = offset
}

func (l *Lexer) current() byte {
	if l.pos >= len(l.input) {
		return charNull
	}
	return l.input[l.pos]
}

func (l *Lexer) peek(offset int) byte {
	pos := l.pos + offset
	if pos >= len(l.input) || pos < 0 {
		return charNull
	}
	return l.input[pos]
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && l.isSpace(l.current()) {
		l.pos++
	}
}

func (l *Lexer) isSpace(ch byte) bool {
	return ch == charSpace || ch == charTab || ch == charNewline || ch == charReturn
}

func (l *Lexer) isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func (l *Lexer) isUpper(ch byte) bool {
	return ch >= 'A' && ch <= 'Z'
}

func (l *Lexer) isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || l.isUpper(ch)
}

func (l *Lexer) isAlphaNumeric(ch byte) bool {
	return l.isAlpha(ch) || l.isDigit(ch)
}

// scanNumber scans digits with an optional fractional part
func (l *Lexer) scanNumber() Token {
	startPos := l.pos

	for l.pos < len(l.input) && l.isDigit(l.current()) {
		l.pos++
	}

	if l.current() == charPeriod && l.isDigit(l.peek(1)) {
		l.pos++ // consume '.'
		for l.pos < len(l.input) && l.isDigit(l.current()) {
			l.pos++
		}
	}

	return l.token(TokenNumber, l.input[startPos:l.pos], startPos)
}

// scanCell scans $<LETTERS>$<DIGITS>
func (l *Lexer) scanCell() Token {
	startPos := l.pos
	l.pos++ // consume first '$'

	lettersStart := l.pos
	for l.pos < len(l.input) && l.isUpper(l.current()) {
		l.pos++
	}
	if l.pos == lettersStart || l.current() != charDollar {
		return l.token(TokenError, "malformed cell reference", startPos)
	}
	l.pos++ // consume second '$'

	digitsStart := l.pos
	for l.pos < len(l.input) && l.isDigit(l.current()) {
		l.pos++
	}
	if l.pos == digitsStart {
		return l.token(TokenError, "malformed cell reference", startPos)
	}

	return l.token(TokenCell, l.input[startPos:l.pos], startPos)
}

// scanFunction scans an identifier, which is only valid as a function name
func (l *Lexer) scanFunction() Token {
	startPos := l.pos
	for l.pos < len(l.input) && (l.isAlphaNumeric(l.current()) || l.current() == charUnderscore) {
		l.pos++
	}
	name := l.input[startPos:l.pos]

	// function names may be separated from their '(' by whitespace
	next := l.pos
	for next < len(l.input) && l.isSpace(l.input[next]) {
		next++
	}
	if next >= len(l.input) || l.input[next] != charLParen {
		return l.token(TokenError, fmt.Sprintf("unknown identifier %q", name), startPos)
	}

	return l.token(TokenFunction, name, startPos)
}

// scanUnaryPrefixOrBinaryOp scans + and - which can be either unary
// prefix or binary. in prefix position a doubled sign is one operator.
func (l *Lexer) scanUnaryPrefixOrBinaryOp() Token {
	startPos := l.pos
	ch := l.current()
	l.pos++

	if l.isUnaryContext() {
		if l.current() == ch {
			l.pos++
			return l.token(TokenUnaryPrefixOp, string([]byte{ch, ch}), startPos)
		}
		return l.token(TokenUnaryPrefixOp, string(ch), startPos)
	}
	return l.token(TokenBinaryOp, string(ch), startPos)
}

// scanBinaryOp scans binary operators
func (l *Lexer) scanBinaryOp() Token {
	startPos := l.pos
	ch := l.current()
	l.pos++

	if ch == charAsterisk && l.current() == charAsterisk {
		l.pos++
		return l.token(TokenBinaryOp, "**", startPos)
	}
	return l.token(TokenBinaryOp, string(ch), startPos)
}

// isUnaryContext checks if the current context allows for unary operators
func (l *Lexer) isUnaryContext() bool {
	switch l.state {
	case StateStart, StateAfterOperator, StateAfterLeftParen:
		return true
	default:
		return false
	}
}
