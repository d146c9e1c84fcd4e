package spreadsheet

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the kind of failure reported by the engine
type ErrorCode uint8

const (
	ErrorCodeMalformedAddress    ErrorCode = 1 // address text fails the grammar or integer parse
	ErrorCodeSyntax              ErrorCode = 2 // formula text fails to lex or parse
	ErrorCodeInvalidExpression   ErrorCode = 3 // evaluation of text that does not parse
	ErrorCodeDivisionByZero      ErrorCode = 4 // right operand of / or % is zero
	ErrorCodeCircularReference   ErrorCode = 5 // evaluation revisits a cell on the current chain
	ErrorCodeUnknownFunction     ErrorCode = 6 // function name has no semantics
	ErrorCodeUnsupportedOperator ErrorCode = 7 // operator token has no semantics
	ErrorCodeInvalidArgument     ErrorCode = 8 // operand of the wrong type
)

// ErrorMapper maps error codes to the short text shown in a cell
var ErrorMapper = map[ErrorCode]string{
	ErrorCodeMalformedAddress:    "#REF!",
	ErrorCodeSyntax:              "#SYNTAX!",
	ErrorCodeInvalidExpression:   "#ERROR!",
	ErrorCodeDivisionByZero:      "#DIV/0!",
	ErrorCodeCircularReference:   "#CIRCULAR!",
	ErrorCodeUnknownFunction:     "#NAME?",
	ErrorCodeUnsupportedOperator: "#OP?",
	ErrorCodeInvalidArgument:     "#VALUE!",
}

var codeNames = map[ErrorCode]string{
	ErrorCodeMalformedAddress:    "MalformedAddress",
	ErrorCodeSyntax:              "SyntaxError",
	ErrorCodeInvalidExpression:   "InvalidExpression",
	ErrorCodeDivisionByZero:      "DivisionByZero",
	ErrorCodeCircularReference:   "CircularReference",
	ErrorCodeUnknownFunction:     "UnknownFunction",
	ErrorCodeUnsupportedOperator: "UnsupportedOperator",
	ErrorCodeInvalidArgument:     "InvalidArgument",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", uint8(c))
}

// Sentinels for errors.Is matching. A *SpreadsheetError matches the
// sentinel with the same code, whatever its message.
var (
	ErrMalformedAddress    = &SpreadsheetError{ErrorCode: ErrorCodeMalformedAddress}
	ErrSyntax              = &SpreadsheetError{ErrorCode: ErrorCodeSyntax}
	ErrInvalidExpression   = &SpreadsheetError{ErrorCode: ErrorCodeInvalidExpression}
	ErrDivisionByZero      = &SpreadsheetError{ErrorCode: ErrorCodeDivisionByZero}
	ErrCircularReference   = &SpreadsheetError{ErrorCode: ErrorCodeCircularReference}
	ErrUnknownFunction     = &SpreadsheetError{ErrorCode: ErrorCodeUnknownFunction}
	ErrUnsupportedOperator = &SpreadsheetError{ErrorCode: ErrorCodeUnsupportedOperator}
	ErrInvalidArgument     = &SpreadsheetError{ErrorCode: ErrorCodeInvalidArgument}
)

// SpreadsheetError is the single error type returned by the engine. Address
// is set when the failure belongs to a specific cell's text.
type SpreadsheetError struct {
	ErrorCode ErrorCode
	Message   string
	Address   *CellAddress
	Err       error
}

func (e *SpreadsheetError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = ErrorMapper[e.ErrorCode]
	}
	if e.Address != nil {
		return fmt.Sprintf("%s in %s: %s", e.ErrorCode, e.Address, msg)
	}
	return fmt.Sprintf("%s: %s", e.ErrorCode, msg)
}

func (e *SpreadsheetError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *SpreadsheetError with the same code
func (e *SpreadsheetError) Is(target error) bool {
	t, ok := target.(*SpreadsheetError)
	if !ok {
		return false
	}
	return t.ErrorCode == e.ErrorCode
}

// NewSpreadsheetError creates an error of the given kind
func NewSpreadsheetError(code ErrorCode, message string) *SpreadsheetError {
	if message == "" {
		message = ErrorMapper[code]
	}
	return &SpreadsheetError{
		ErrorCode: code,
		Message:   message,
	}
}

// WithCause wraps another error.
func (e *SpreadsheetError) WithCause(err error) *SpreadsheetError {
	e.Err = err
	return e
}

// SyntaxError describes where formula text stopped making sense. Line and
// Column are 1-based.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid input at line %d:%d - %s", e.Line, e.Column, e.Message)
}

// Is lets errors.Is(err, ErrSyntax) match a bare *SyntaxError
func (e *SyntaxError) Is(target error) bool {
	t, ok := target.(*SpreadsheetError)
	return ok && t.ErrorCode == ErrorCodeSyntax
}

// CodeOf returns the kind of an engine error, or 0 when err did not come
// from the engine.
func CodeOf(err error) ErrorCode {
	var se *SpreadsheetError
	if errors.As(err, &se) {
		return se.ErrorCode
	}
	var syn *SyntaxError
	if errors.As(err, &syn) {
		return ErrorCodeSyntax
	}
	return 0
}

// Cell is one populated grid cell as exposed to collaborators
type Cell struct {
	Address CellAddress
	Text    string
}
