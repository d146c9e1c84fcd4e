package spreadsheet

import (
	"fmt"
	"math"
	"strconv"
)

type NodePosition struct {
	Start int
	End   int
}

// ASTNode is the closed set of expression nodes. Every node evaluates itself,
// so adding a node kind without evaluation semantics does not compile.
type ASTNode interface {
	Eval(ev *evaluation) (float64, error)
	GetPosition() NodePosition
	ToString() string
}

// BinaryOp represents binary operators in AST nodes
type BinaryOp int

const (
	BinOpAdd BinaryOp = iota
	BinOpSubtract
	BinOpMultiply
	BinOpDivide
	BinOpModulo
	BinOpPower
)

var binaryOpText = map[BinaryOp]string{
	BinOpAdd:      "+",
	BinOpSubtract: "-",
	BinOpMultiply: "*",
	BinOpDivide:   "/",
	BinOpModulo:   "%",
	BinOpPower:    "**",
}

func (op BinaryOp) String() string {
	if s, ok := binaryOpText[op]; ok {
		return s
	}
	return fmt.Sprintf("BinaryOp(%d)", int(op))
}

// UnaryOp represents unary operators in AST nodes
type UnaryOp int

const (
	UnaryOpIdentity UnaryOp = iota
	UnaryOpPlus
	UnaryOpMinus
	UnaryOpIncrement // "++" means one more, not increment in place
	UnaryOpDecrement // "--" means one less
)

var unaryOpText = map[UnaryOp]string{
	UnaryOpIdentity:  "",
	UnaryOpPlus:      "+",
	UnaryOpMinus:     "-",
	UnaryOpIncrement: "++",
	UnaryOpDecrement: "--",
}

func (op UnaryOp) String() string {
	if s, ok := unaryOpText[op]; ok {
		return s
	}
	return fmt.Sprintf("UnaryOp(%d)", int(op))
}

// NumberNode represents a numeric literal
type NumberNode struct {
	Value    float64
	Position NodePosition
}

func (n *NumberNode) Eval(ev *evaluation) (float64, error) {
	return n.Value, nil
}

func (n *NumberNode) GetPosition() NodePosition {
	return n.Position
}

func (n *NumberNode) ToString() string {
	return formatNumber(n.Value)
}

// formatNumber prints the shortest text that parses back to v
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// CellRefNode represents a reference to another cell
type CellRefNode struct {
	Address  CellAddress
	Position NodePosition
}

func (n *CellRefNode) Eval(ev *evaluation) (float64, error) {
	return ev.resolve(n.Address)
}

func (n *CellRefNode) GetPosition() NodePosition {
	return n.Position
}

func (n *CellRefNode) ToString() string {
	return n.Address.String()
}

// UnaryOpNode represents a unary operation
type UnaryOpNode struct {
	Op       UnaryOp
	Operand  ASTNode
	Position NodePosition
}

func (n *UnaryOpNode) Eval(ev *evaluation) (float64, error) {
	val, err := n.Operand.Eval(ev)
	if err != nil {
		return 0, err
	}

	switch n.Op {
	case UnaryOpIdentity, UnaryOpPlus:
		return val, nil
	case UnaryOpMinus:
		return -val, nil
	case UnaryOpIncrement:
		return val + 1, nil
	case UnaryOpDecrement:
		return val - 1, nil
	default:
		return 0, NewSpreadsheetError(ErrorCodeUnsupportedOperator,
			fmt.Sprintf("unary operator %q is not supported", n.Op))
	}
}

func (n *UnaryOpNode) GetPosition() NodePosition {
	return n.Position
}

func (n *UnaryOpNode) ToString() string {
	return fmt.Sprintf("%s%s", n.Op, n.Operand.ToString())
}

// BinaryOpNode represents a binary operation. Right may be nil, in which
// case the node evaluates to Left.
type BinaryOpNode struct {
	Op       BinaryOp
	Left     ASTNode
	Right    ASTNode
	Position NodePosition
}

func (n *BinaryOpNode) Eval(ev *evaluation) (float64, error) {
	left, err := n.Left.Eval(ev)
	if err != nil {
		return 0, err
	}
	if n.Right == nil {
		return left, nil
	}

	right, err := n.Right.Eval(ev)
	if err != nil {
		return 0, err
	}

	switch n.Op {
	case BinOpAdd:
		return left + right, nil
	case BinOpSubtract:
		return left - right, nil
	case BinOpMultiply:
		return left * right, nil
	case BinOpDivide:
		if right == 0 {
			return 0, NewSpreadsheetError(ErrorCodeDivisionByZero, "division by zero")
		}
		return left / right, nil
	case BinOpModulo:
		if right == 0 {
			return 0, NewSpreadsheetError(ErrorCodeDivisionByZero, "modulo by zero")
		}
		return math.Mod(left, right), nil
	case BinOpPower:
		return math.Pow(left, right), nil
	default:
		return 0, NewSpreadsheetError(ErrorCodeUnsupportedOperator,
			fmt.Sprintf("binary operator %q is not supported", n.Op))
	}
}

func (n *BinaryOpNode) GetPosition() NodePosition {
	return n.Position
}

func (n *BinaryOpNode) ToString() string {
	if n.Right == nil {
		return n.Left.ToString()
	}
	return fmt.Sprintf("(%s %s %s)", n.Left.ToString(), n.Op, n.Right.ToString())
}

// FunctionCallNode represents a function call with one argument
type FunctionCallNode struct {
	Name     string
	Argument ASTNode
	Position NodePosition
}

func (n *FunctionCallNode) Eval(ev *evaluation) (float64, error) {
	arg, err := n.Argument.Eval(ev)
	if err != nil {
		return 0, err
	}
	return ev.functions.Call(n.Name, arg)
}

func (n *FunctionCallNode) GetPosition() NodePosition {
	return n.Position
}

func (n *FunctionCallNode) ToString() string {
	return fmt.Sprintf("%s(%s)", n.Name, n.Argument.ToString())
}
