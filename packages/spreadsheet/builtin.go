package spreadsheet

import (
	"fmt"
	"strings"
)

// BuiltInFunctions contains the functions formulas may call
type BuiltInFunctions struct{}

// NewDefaultBuiltInFunctions creates a BuiltInFunctions with default
// implementations
func NewDefaultBuiltInFunctions() *BuiltInFunctions {
	return &BuiltInFunctions{}
}

// Call invokes a built-in function by name with the given arguments
func (bf *BuiltInFunctions) Call(name string, args ...any) (float64, error) {
	switch strings.ToUpper(name) {
	case "INC":
		return bf.INC(args...)
	case "DEC":
		return bf.DEC(args...)
	default:
		return 0, NewSpreadsheetError(ErrorCodeUnknownFunction, fmt.Sprintf("unknown function: %s", name))
	}
}

// Has reports whether name is a known function
func (bf *BuiltInFunctions) Has(name string) bool {
	switch strings.ToUpper(name) {
	case "INC", "DEC":
		return true
	}
	return false
}

// INC returns its argument plus one
func (bf *BuiltInFunctions) INC(args ...any) (float64, error) {
	n, err := singleNumber("INC", args)
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

// DEC returns its argument minus one
func (bf *BuiltInFunctions) DEC(args ...any) (float64, error) {
	n, err := singleNumber("DEC", args)
	if err != nil {
		return 0, err
	}
	return n - 1, nil
}

func singleNumber(fn string, args []any) (float64, error) {
	if len(args) != 1 {
		return 0, NewSpreadsheetError(ErrorCodeInvalidArgument,
			fmt.Sprintf("%s expects 1 argument, got %d", fn, len(args)))
	}
	n, ok := toNumber(args[0])
	if !ok {
		return 0, NewSpreadsheetError(ErrorCodeInvalidArgument,
			fmt.Sprintf("%s expects a number, got %T", fn, args[0]))
	}
	return n, nil
}

// toNumber accepts only numeric operands. there is no coercion from text
// or booleans.
func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
