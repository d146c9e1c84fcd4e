package spreadsheet

import (
	"errors"
	"testing"
)

func parseFormula(formula string) bool {
	lexer := NewLexer(formula)
	tokens, err := lexer.Tokenize()
	if err != nil {
		return false
	}

	if len(tokens) == 0 {
		return false
	}

	parser := NewParser(tokens)
	_, err = parser.Parse()
	return err == nil
}

func TestParserBasicFormulas(t *testing.T) {
	validFormulas := []string{
		"1+2",
		"2 + 3 * 4",
		"$A$1",
		"$AA$10 * 2",
		"inc(1)",
		"INC(dec(10))",
		"inc (1)",
		"inc(2 * $B$2 + dec(4)) ** 2",
		"((1))",
		"-1",
		"+1",
		"--1",
		"++$A$0",
		"++--5",
		"1 - -1",
		"1--1",
		"2 ** -1",
		"10 % 3",
		"1.25 / 0.5",
		"unknownFunc(5)",
		"1 +\n2",
	}

	for _, formula := range validFormulas {
		t.Run(formula, func(t *testing.T) {
			if !parseFormula(formula) {
				t.Errorf("Failed to parse valid formula: %s", formula)
			}
		})
	}
}

func TestParserInvalidFormulas(t *testing.T) {
	invalidFormulas := []string{
		"",
		"   ",
		"1 +",
		"(1 + 2",
		"1 + 2)",
		")(",
		"()",
		"2 * * 3",
		"1 2",
		"$A1",
		"$a$1",
		"$A$",
		"A1",
		"foo",
		"inc",
		"inc()",
		"inc(1) (2)",
		"1.",
		"=1+2",
		"1 & 2",
		"\"text\"",
		"2 ^ 3",
		"é",
		"1 + ü",
	}

	for _, formula := range invalidFormulas {
		t.Run(formula, func(t *testing.T) {
			if parseFormula(formula) {
				t.Errorf("Expected formula to fail but it succeeded: %s", formula)
			}
		})
	}
}

func TestSyntaxErrorPosition(t *testing.T) {
	tests := []struct {
		formula string
		line    int
		column  int
	}{
		{"1 +", 1, 4},
		{"(1 + 2", 1, 7},
		{"1 + 2)", 1, 6},
		{"2 * * 3", 1, 5},
		{"1 +\n* 2", 2, 1},
		{"1 + é", 1, 5},
		{"$A1", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			_, err := ParseText(tt.formula)
			var syn *SyntaxError
			if !errors.As(err, &syn) {
				t.Fatalf("ParseText(%q) error = %v, want *SyntaxError", tt.formula, err)
			}
			if syn.Line != tt.line || syn.Column != tt.column {
				t.Errorf("ParseText(%q) at %d:%d, want %d:%d (%s)", tt.formula, syn.Line, syn.Column, tt.line, tt.column, syn.Message)
			}
			if !errors.Is(err, ErrSyntax) {
				t.Errorf("errors.Is(%v, ErrSyntax) = false", err)
			}
		})
	}
}

func TestLexerUnaryRuns(t *testing.T) {
	tests := []struct {
		formula string
		want    []string
	}{
		{"--1", []string{"--", "1"}},
		{"---1", []string{"--", "-", "1"}},
		{"++--$A$0", []string{"++", "--", "$A$0"}},
		{"1--1", []string{"1", "-", "-", "1"}},
		{"2**3", []string{"2", "**", "3"}},
		{"- -1", []string{"-", "-", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			tokens, err := NewLexer(tt.formula).Tokenize()
			if err != nil {
				t.Fatalf("Tokenize(%q) failed: %v", tt.formula, err)
			}
			// last token is EOF
			tokens = tokens[:len(tokens)-1]
			if len(tokens) != len(tt.want) {
				t.Fatalf("Tokenize(%q) = %d tokens, want %d", tt.formula, len(tokens), len(tt.want))
			}
			for i, tok := range tokens {
				if tok.Value != tt.want[i] {
					t.Errorf("token %d = %q, want %q", i, tok.Value, tt.want[i])
				}
			}
		})
	}

	tokens, err := NewLexer("1--1").Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	if tokens[1].Type != TokenBinaryOp || tokens[2].Type != TokenUnaryPrefixOp {
		t.Errorf("1--1 lexed as %s %s, want binary then unary", tokens[1].Type, tokens[2].Type)
	}
}

func TestBuildAST(t *testing.T) {
	tests := []struct {
		formula string
		want    string
	}{
		{"2 + 3 * 4", "(2 + (3 * 4))"},
		{"1 - 2 - 3", "((1 - 2) - 3)"},
		{"8 / 4 / 2", "((8 / 4) / 2)"},
		{"2 ** 3 ** 2", "(2 ** (3 ** 2))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"((7))", "7"},
		{"-2 ** 2", "(-2 ** 2)"},
		{"++--$A$0", "++--$A$0"},
		{"INC(dec(10))", "inc(dec(10))"},
		{"10 % 3 + $B$2", "((10 % 3) + $B$2)"},
		{"1.50", "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			node, err := Parse(tt.formula)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.formula, err)
			}
			if got := node.ToString(); got != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.formula, got, tt.want)
			}
		})
	}
}

func TestBuildASTShapes(t *testing.T) {
	node, err := Parse("++--$B$3")
	if err != nil {
		t.Fatal(err)
	}

	outer, ok := node.(*UnaryOpNode)
	if !ok || outer.Op != UnaryOpIncrement {
		t.Fatalf("outer node = %#v, want ++", node)
	}
	inner, ok := outer.Operand.(*UnaryOpNode)
	if !ok || inner.Op != UnaryOpDecrement {
		t.Fatalf("inner node = %#v, want --", outer.Operand)
	}
	ref, ok := inner.Operand.(*CellRefNode)
	if !ok || ref.Address != NewCellAddress(1, 3) {
		t.Fatalf("operand = %#v, want $B$3", inner.Operand)
	}

	if pos := node.GetPosition(); pos.Start != 0 || pos.End != 8 {
		t.Errorf("position = %+v, want {0 8}", pos)
	}

	// parentheses do not leave a node behind
	node, err = Parse("(1 + 2)")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := node.(*BinaryOpNode); !ok {
		t.Errorf("(1 + 2) built %T, want *BinaryOpNode", node)
	}
}

func TestParseMalformedAddressInFormula(t *testing.T) {
	_, err := Parse("$A$99999999999 + 1")
	if CodeOf(err) != ErrorCodeMalformedAddress {
		t.Errorf("Parse error = %v, want MalformedAddress", err)
	}
}
