package spreadsheet

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"
)

// mapGrid is a CellSource over a plain map keyed by address text
type mapGrid map[string]string

func (g mapGrid) GetCellText(addr CellAddress) string {
	return g[addr.String()]
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		formula string
		want    float64
	}{
		{"2 + 3 * 4", 14},
		{"2 + 3", 5},
		{"(2 + 3) * 4", 20},
		{"10 % 3", 1},
		{"-7 % 3", -1},
		{"2 ** 3", 8},
		{"2 ** 3 ** 2", 512},
		{"2 ** -1", 0.5},
		{"4 ** 0.5", 2},
		{"-2 ** 2", 4},
		{"1 - 2 - 3", -4},
		{"8 / 4 / 2", 1},
		{"inc(dec(10))", 10},
		{"INC(1)", 2},
		{"Dec(1)", 0},
		{"--5", 4},
		{"++5", 6},
		{"++--5", 5},
		{"---5", -6},
		{"1 - -1", 2},
		{"1--1", 2},
		{"+3", 3},
		{"1.5 * 2", 3},
		{"0 / 5", 0},
		{"", 0},
		{"  ", 0},
		{"$Z$100", 0}, // blank cell
	}

	calc := NewCalculator(nil)
	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			got, err := calc.Evaluate(tt.formula)
			if err != nil {
				t.Fatalf("Evaluate(%q) failed: %v", tt.formula, err)
			}
			if math.Abs(got-tt.want) > 1e-10 {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.formula, got, tt.want)
			}
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		formula string
		code    ErrorCode
	}{
		{"10 / 0", ErrorCodeDivisionByZero},
		{"10 % 0", ErrorCodeDivisionByZero},
		{"1 / (2 - 2)", ErrorCodeDivisionByZero},
		{"unknownFunc(5)", ErrorCodeUnknownFunction},
		{"inc(1 / 0)", ErrorCodeDivisionByZero},
		{"1 +", ErrorCodeInvalidExpression},
		{"(1", ErrorCodeInvalidExpression},
		{"hello", ErrorCodeInvalidExpression},
		{"=1", ErrorCodeInvalidExpression},
		{"1 + é", ErrorCodeInvalidExpression},
	}

	calc := NewCalculator(nil)
	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			_, err := calc.Evaluate(tt.formula)
			if err == nil {
				t.Fatalf("Evaluate(%q) succeeded, want %s", tt.formula, tt.code)
			}
			if code := CodeOf(err); code != tt.code {
				t.Errorf("Evaluate(%q) error = %v (%s), want %s", tt.formula, err, code, tt.code)
			}
		})
	}
}

func TestInvalidExpressionWrapsSyntaxError(t *testing.T) {
	_, err := NewCalculator(nil).Evaluate("2 * * 3")
	if !errors.Is(err, ErrInvalidExpression) {
		t.Fatalf("error = %v, want InvalidExpression", err)
	}
	var syn *SyntaxError
	if !errors.As(err, &syn) {
		t.Fatalf("error %v does not wrap a *SyntaxError", err)
	}
	if syn.Column != 5 {
		t.Errorf("syntax error column = %d, want 5", syn.Column)
	}
}

func TestEvaluateWithGrid(t *testing.T) {
	t.Run("reference resolves stored text", func(t *testing.T) {
		calc := NewCalculator(mapGrid{"$A$1": "5"})
		got, err := calc.Evaluate("inc($A$1) ** 2")
		if err != nil {
			t.Fatal(err)
		}
		if got != 36 {
			t.Errorf("got %v, want 36", got)
		}
	})

	t.Run("nested functions and references", func(t *testing.T) {
		calc := NewCalculator(mapGrid{"$B$2": "3"})
		got, err := calc.Evaluate("inc(2 * $B$2 + dec(4)) ** 2")
		if err != nil {
			t.Fatal(err)
		}
		if got != 100 {
			t.Errorf("got %v, want 100", got)
		}
	})

	t.Run("chain of references", func(t *testing.T) {
		calc := NewCalculator(mapGrid{
			"$A$0": "1",
			"$A$1": "$A$0 + 1",
			"$A$2": "$A$1 * 10",
		})
		got, err := calc.Evaluate("$A$2 + $A$0")
		if err != nil {
			t.Fatal(err)
		}
		if got != 21 {
			t.Errorf("got %v, want 21", got)
		}
	})

	t.Run("same cell twice is not a cycle", func(t *testing.T) {
		calc := NewCalculator(mapGrid{"$B$0": "2", "$C$0": "$B$0 * $B$0"})
		got, err := calc.Evaluate("$B$0 + $B$0 + $C$0")
		if err != nil {
			t.Fatal(err)
		}
		if got != 8 {
			t.Errorf("got %v, want 8", got)
		}
	})

	t.Run("diamond is not a cycle", func(t *testing.T) {
		calc := NewCalculator(mapGrid{
			"$A$0": "$B$0 + $C$0",
			"$B$0": "$D$0",
			"$C$0": "$D$0",
			"$D$0": "4",
		})
		got, err := calc.EvaluateCell("$B$0 + $C$0", NewCellAddress(0, 0))
		if err != nil {
			t.Fatal(err)
		}
		if got != 8 {
			t.Errorf("got %v, want 8", got)
		}
	})

	t.Run("error in referenced cell propagates", func(t *testing.T) {
		calc := NewCalculator(mapGrid{"$A$0": "1 / 0"})
		_, err := calc.Evaluate("$A$0 + 1")
		if !errors.Is(err, ErrDivisionByZero) {
			t.Errorf("error = %v, want DivisionByZero", err)
		}
	})

	t.Run("unparsable referenced cell names the cell", func(t *testing.T) {
		calc := NewCalculator(mapGrid{"$C$4": "1 +"})
		_, err := calc.Evaluate("$C$4")
		var se *SpreadsheetError
		if !errors.As(err, &se) || se.ErrorCode != ErrorCodeInvalidExpression {
			t.Fatalf("error = %v, want InvalidExpression", err)
		}
		if se.Address == nil || *se.Address != NewCellAddress(2, 4) {
			t.Errorf("error address = %v, want $C$4", se.Address)
		}
	})
}

func TestCircularReferences(t *testing.T) {
	t.Run("self reference", func(t *testing.T) {
		calc := NewCalculator(mapGrid{"$A$1": "$A$1"})
		_, err := calc.Evaluate("$A$1")
		if !errors.Is(err, ErrCircularReference) {
			t.Errorf("error = %v, want CircularReference", err)
		}
	})

	t.Run("self reference through EvaluateCell", func(t *testing.T) {
		calc := NewCalculator(mapGrid{})
		_, err := calc.EvaluateCell("$A$1 + 5", NewCellAddress(0, 1))
		if CodeOf(err) != ErrorCodeCircularReference {
			t.Errorf("error = %v, want CircularReference", err)
		}
	})

	t.Run("mutual reference from either side", func(t *testing.T) {
		grid := mapGrid{"$A$0": "$B$0 + 1", "$B$0": "$A$0 * 2"}
		calc := NewCalculator(grid)
		for _, cell := range []string{"$A$0", "$B$0"} {
			addr, _ := ParseAddress(cell)
			_, err := calc.EvaluateCell(grid[cell], addr)
			if !errors.Is(err, ErrCircularReference) {
				t.Errorf("%s: error = %v, want CircularReference", cell, err)
			}
		}
	})

	t.Run("long cycle", func(t *testing.T) {
		calc := NewCalculator(mapGrid{
			"$A$0": "$A$1",
			"$A$1": "$A$2",
			"$A$2": "$A$3",
			"$A$3": "$A$0",
		})
		_, err := calc.Evaluate("$A$0")
		var se *SpreadsheetError
		if !errors.As(err, &se) || se.ErrorCode != ErrorCodeCircularReference {
			t.Fatalf("error = %v, want CircularReference", err)
		}
		if se.Address == nil || se.Address.String() != "$A$0" {
			t.Errorf("cycle reported at %v, want $A$0", se.Address)
		}
	})

	t.Run("stack is released after failure", func(t *testing.T) {
		grid := mapGrid{"$A$0": "$A$0", "$B$0": "7"}
		calc := NewCalculator(grid)
		if _, err := calc.Evaluate("$A$0"); err == nil {
			t.Fatal("expected CircularReference")
		}
		got, err := calc.Evaluate("$B$0 + $B$0")
		if err != nil || got != 14 {
			t.Errorf("Evaluate after cycle = %v, %v; want 14", got, err)
		}
	})
}

func TestEvaluateDeterministic(t *testing.T) {
	calc := NewCalculator(mapGrid{"$A$0": "3", "$B$0": "$A$0 ** 2 % 5"})
	for _, formula := range []string{"$B$0 / 3", "$B$0 / 0", "$Q$"} {
		v1, err1 := calc.Evaluate(formula)
		v2, err2 := calc.Evaluate(formula)
		if v1 != v2 || CodeOf(err1) != CodeOf(err2) {
			t.Errorf("%q: (%v, %v) then (%v, %v)", formula, v1, err1, v2, err2)
		}
	}
}

func TestCalculatorLogsResolution(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	calc := NewCalculator(mapGrid{"$A$0": "$A$0"}, WithLogger(logger))
	if _, err := calc.Evaluate("$A$0"); err == nil {
		t.Fatal("expected CircularReference")
	}

	out := buf.String()
	if !strings.Contains(out, "resolving reference") || !strings.Contains(out, "circular reference") {
		t.Errorf("log output missing entries:\n%s", out)
	}
}

func TestBuiltInFunctionArguments(t *testing.T) {
	bf := NewDefaultBuiltInFunctions()

	if v, err := bf.Call("inc", 1.0); err != nil || v != 2 {
		t.Errorf("inc(1) = %v, %v", v, err)
	}
	if _, err := bf.Call("inc"); CodeOf(err) != ErrorCodeInvalidArgument {
		t.Errorf("inc() error = %v, want InvalidArgument", err)
	}
	if _, err := bf.Call("dec", 1.0, 2.0); CodeOf(err) != ErrorCodeInvalidArgument {
		t.Errorf("dec(1, 2) error = %v, want InvalidArgument", err)
	}
	if _, err := bf.Call("dec", "1"); CodeOf(err) != ErrorCodeInvalidArgument {
		t.Errorf(`dec("1") error = %v, want InvalidArgument`, err)
	}
	if _, err := bf.Call("sum", 1.0); CodeOf(err) != ErrorCodeUnknownFunction {
		t.Errorf("sum(1) error = %v, want UnknownFunction", err)
	}
}

func TestUnsupportedOperatorIsAnError(t *testing.T) {
	ev := NewCalculator(nil).newEvaluation()

	bin := &BinaryOpNode{Op: BinaryOp(99), Left: &NumberNode{Value: 1}, Right: &NumberNode{Value: 2}}
	if _, err := bin.Eval(ev); CodeOf(err) != ErrorCodeUnsupportedOperator {
		t.Errorf("binary error = %v, want UnsupportedOperator", err)
	}

	un := &UnaryOpNode{Op: UnaryOp(99), Operand: &NumberNode{Value: 1}}
	if _, err := un.Eval(ev); CodeOf(err) != ErrorCodeUnsupportedOperator {
		t.Errorf("unary error = %v, want UnsupportedOperator", err)
	}

	// a binary node without a right operand is its left operand
	single := &BinaryOpNode{Op: BinOpDivide, Left: &NumberNode{Value: 3}}
	if v, err := single.Eval(ev); err != nil || v != 3 {
		t.Errorf("single operand = %v, %v; want 3", v, err)
	}
}
