package spreadsheet

import (
	"fmt"
	"strconv"
	"strings"
)

var binaryOps = map[string]BinaryOp{
	"+":  BinOpAdd,
	"-":  BinOpSubtract,
	"*":  BinOpMultiply,
	"/":  BinOpDivide,
	"%":  BinOpModulo,
	"**": BinOpPower,
}

var unaryOps = map[string]UnaryOp{
	"":   UnaryOpIdentity,
	"+":  UnaryOpPlus,
	"-":  UnaryOpMinus,
	"++": UnaryOpIncrement,
	"--": UnaryOpDecrement,
}

// BuildAST shapes a parse tree into an AST. Nothing is evaluated here.
func BuildAST(tree ParseTree) (ASTNode, error) {
	switch t := tree.(type) {
	case *ChainContext:
		return buildChain(t)
	case *UnaryContext:
		return buildUnary(t)
	default:
		return nil, NewSpreadsheetError(ErrorCodeInvalidExpression, fmt.Sprintf("unexpected parse tree node %T", tree))
	}
}

// Parse lexes, parses and builds the AST for formula text
func Parse(text string) (ASTNode, error) {
	tree, err := ParseText(text)
	if err != nil {
		return nil, err
	}
	return BuildAST(tree)
}

// buildChain folds a precedence level. addition and multiplication fold to
// the left; power folds to the right, so 2 ** 3 ** 2 is 2 ** 9.
func buildChain(c *ChainContext) (ASTNode, error) {
	if len(c.Operands) == 0 {
		return nil, NewSpreadsheetError(ErrorCodeInvalidExpression, "empty expression")
	}
	if len(c.Operators) != len(c.Operands)-1 {
		return nil, NewSpreadsheetError(ErrorCodeInvalidExpression, "operator and operand counts disagree")
	}

	operands := make([]ASTNode, len(c.Operands))
	for i, o := range c.Operands {
		node, err := BuildAST(o)
		if err != nil {
			return nil, err
		}
		operands[i] = node
	}

	if c.Rule == RulePower {
		acc := operands[len(operands)-1]
		for i := len(c.Operators) - 1; i >= 0; i-- {
			node, err := newBinary(c.Operators[i], operands[i], acc)
			if err != nil {
				return nil, err
			}
			acc = node
		}
		return acc, nil
	}

	acc := operands[0]
	for i, tok := range c.Operators {
		node, err := newBinary(tok, acc, operands[i+1])
		if err != nil {
			return nil, err
		}
		acc = node
	}
	return acc, nil
}

func newBinary(tok Token, left, right ASTNode) (ASTNode, error) {
	op, ok := binaryOps[tok.Value]
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeUnsupportedOperator,
			fmt.Sprintf("binary operator %q is not supported", tok.Value))
	}
	return &BinaryOpNode{
		Op:       op,
		Left:     left,
		Right:    right,
		Position: NodePosition{Start: left.GetPosition().Start, End: right.GetPosition().End},
	}, nil
}

// buildUnary nests prefix operators so the one nearest the term applies
// first: ++--a is ++(--(a))
func buildUnary(u *UnaryContext) (ASTNode, error) {
	node, err := buildTerm(u.Term)
	if err != nil {
		return nil, err
	}

	for i := len(u.Operators) - 1; i >= 0; i-- {
		tok := u.Operators[i]
		op, ok := unaryOps[tok.Value]
		if !ok {
			return nil, NewSpreadsheetError(ErrorCodeUnsupportedOperator,
				fmt.Sprintf("unary operator %q is not supported", tok.Value))
		}
		node = &UnaryOpNode{
			Op:       op,
			Operand:  node,
			Position: NodePosition{Start: tok.Pos, End: node.GetPosition().End},
		}
	}
	return node, nil
}

func buildTerm(t *TermContext) (ASTNode, error) {
	switch {
	case t.Number != nil:
		val, err := strconv.ParseFloat(t.Number.Value, 64)
		if err != nil {
			return nil, &SyntaxError{Line: t.Number.Line, Column: t.Number.Column,
				Message: fmt.Sprintf("invalid number: %s", t.Number.Value)}
		}
		return &NumberNode{Value: val, Position: t.Position}, nil

	case t.Cell != nil:
		addr, err := ParseAddress(t.Cell.Value)
		if err != nil {
			return nil, err
		}
		return &CellRefNode{Address: addr, Position: t.Position}, nil

	case t.Group != nil:
		// parentheses leave no node of their own
		return buildChain(t.Group)

	case t.Call != nil:
		arg, err := buildChain(t.Call.Argument)
		if err != nil {
			return nil, err
		}
		return &FunctionCallNode{
			Name:     strings.ToLower(t.Call.Name.Value),
			Argument: arg,
			Position: t.Position,
		}, nil

	default:
		return nil, NewSpreadsheetError(ErrorCodeInvalidExpression, "empty term")
	}
}
