package xlsx

import (
	"fmt"
	"strings"

	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
	"github.com/xuri/efp"
	"github.com/xuri/excelize/v2"
)

// infixOperators maps Excel infix operators to engine operators
var infixOperators = map[string]string{
	"+": "+",
	"-": "-",
	"*": "*",
	"/": "/",
	"^": "**",
}

// TranslateFormula rewrites an Excel formula (with or without the leading
// '=') into engine formula text. A1 references become zero-based absolute
// references, so A1 is $A$0. Anything the engine cannot express fails with
// an InvalidArgument application error.
func TranslateFormula(formula string) (string, error) {
	formula = strings.TrimPrefix(strings.TrimSpace(formula), "=")
	if formula == "" {
		return "", nil
	}

	ps := efp.ExcelParser()
	tokens := ps.Parse(formula)
	if tokens == nil {
		return "", unsupported(formula, "no tokens")
	}

	// one frame per open parenthesis or function call
	frames := []*powerChain{{expectOperand: true}}
	var b []byte
	beginOperand := func() {
		top := frames[len(frames)-1]
		if top.expectOperand {
			top.operandStart = len(b)
			top.expectOperand = false
		}
	}

	for _, token := range tokens {
		switch token.TType {
		case efp.TokenTypeOperand:
			text, err := translateOperand(formula, token)
			if err != nil {
				return "", err
			}
			beginOperand()
			b = append(b, text...)

		case efp.TokenTypeFunction:
			if token.TSubType == efp.TokenSubTypeStart {
				name := strings.ToLower(token.TValue)
				if !spreadsheet.NewDefaultBuiltInFunctions().Has(name) {
					return "", unsupported(formula, fmt.Sprintf("function %s", token.TValue))
				}
				beginOperand()
				b = append(b, name...)
				b = append(b, '(')
				frames = append(frames, &powerChain{expectOperand: true})
			} else {
				frames = frames[:max(len(frames)-1, 1)]
				b = append(b, ')')
			}

		case efp.TokenTypeSubexpression:
			if token.TSubType == efp.TokenSubTypeStart {
				beginOperand()
				b = append(b, '(')
				frames = append(frames, &powerChain{expectOperand: true})
			} else {
				frames = frames[:max(len(frames)-1, 1)]
				b = append(b, ')')
			}

		case efp.TokenTypeOperatorPrefix:
			if token.TValue != "-" && token.TValue != "+" {
				return "", unsupported(formula, fmt.Sprintf("prefix operator %q", token.TValue))
			}
			beginOperand()
			// a space keeps "- -1" from reading as the "--" operator
			b = append(b, token.TValue...)
			b = append(b, ' ')

		case efp.TokenTypeOperatorInfix:
			op, ok := infixOperators[token.TValue]
			if !ok {
				return "", unsupported(formula, fmt.Sprintf("operator %q", token.TValue))
			}
			top := frames[len(frames)-1]
			if op == "**" {
				b = top.extend(b)
			} else {
				top.inPower = false
			}
			top.expectOperand = true
			b = append(b, " "+op+" "...)

		case efp.TokenTypeWhitespace:
			// the engine output is re-spaced around operators

		default:
			// arguments separators, postfix percent and anything unknown
			return "", unsupported(formula, fmt.Sprintf("token %q (%s)", token.TValue, token.TType))
		}
	}

	text := strings.TrimSpace(string(b))
	if _, err := spreadsheet.Parse(text); err != nil {
		return "", unsupported(formula, err.Error())
	}
	return text, nil
}

// powerChain tracks the run of ^ operators at one nesting level. Excel's ^
// is left-associative and the engine's ** is right-associative, so every ^
// after the first wraps the chain so far in parentheses.
type powerChain struct {
	expectOperand bool
	operandStart  int // offset of the operand being written
	chainStart    int // offset of the first operand of the ^ run
	inPower       bool
}

// extend is called before writing ** into b
func (pc *powerChain) extend(b []byte) []byte {
	if !pc.inPower {
		pc.inPower = true
		pc.chainStart = pc.operandStart
		return b
	}
	wrapped := make([]byte, 0, len(b)+2)
	wrapped = append(wrapped, b[:pc.chainStart]...)
	wrapped = append(wrapped, '(')
	wrapped = append(wrapped, b[pc.chainStart:]...)
	return append(wrapped, ')')
}

func translateOperand(formula string, token efp.Token) (string, error) {
	switch token.TSubType {
	case efp.TokenSubTypeNumber:
		return token.TValue, nil
	case efp.TokenSubTypeRange:
		addr, err := CellNameToAddress(token.TValue)
		if err != nil {
			return "", unsupported(formula, err.Error())
		}
		return addr.String(), nil
	default:
		return "", unsupported(formula, fmt.Sprintf("%s operand %q", strings.ToLower(token.TSubType), token.TValue))
	}
}

// CellNameToAddress converts a single Excel cell name (A1, $B$3) to an
// engine address. Ranges and cross-sheet references are rejected.
func CellNameToAddress(name string) (spreadsheet.CellAddress, error) {
	if strings.ContainsAny(name, ":!") {
		return spreadsheet.CellAddress{}, fmt.Errorf("reference %q is not a single cell", name)
	}
	col, row, err := excelize.CellNameToCoordinates(strings.ReplaceAll(name, "$", ""))
	if err != nil {
		return spreadsheet.CellAddress{}, err
	}
	return spreadsheet.NewCellAddress(uint32(col-1), uint32(row-1)), nil
}

// AddressToCellName is the inverse of CellNameToAddress, so $A$0 is A1
func AddressToCellName(addr spreadsheet.CellAddress) (string, error) {
	return excelize.CoordinatesToCellName(int(addr.Column)+1, int(addr.Row)+1)
}

func unsupported(formula, what string) error {
	return spreadsheet.NewApplicationError(spreadsheet.InvalidArgument,
		fmt.Sprintf("formula %q: unsupported %s", formula, what))
}
