package spreadsheet

import (
	"fmt"
	"io"
)

// AppErrorCode represents gRPC-style error codes for application-level errors.
// note that we are skipping error codes that don't make sense for our use-case,
// like unauthenticated, or permission denied.
type AppErrorCode int

const (
	// OK indicates the operation completed successfully.
	OK AppErrorCode = 0

	// Unknown error.
	Unknown AppErrorCode = 2

	// InvalidArgument indicates client specified an invalid argument, such as
	// a grid document with a non-numeric key.
	InvalidArgument AppErrorCode = 3

	// NotFound means a requested entity (a grid file, a workbook sheet) was
	// not found.
	NotFound AppErrorCode = 5

	// OutOfRange means a row or column index does not fit an address.
	OutOfRange AppErrorCode = 11

	// Internal errors. Means some invariants expected by underlying
	// system has been broken.
	Internal AppErrorCode = 13
)

var appCodeNames = map[AppErrorCode]string{
	OK:              "OK",
	Unknown:         "Unknown",
	InvalidArgument: "InvalidArgument",
	NotFound:        "NotFound",
	OutOfRange:      "OutOfRange",
	Internal:        "Internal",
}

func (c AppErrorCode) String() string {
	if name, ok := appCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("AppErrorCode(%d)", int(c))
}

// AppError represents errors at the application level (not
// spreadsheet formula errors)
type AppError struct {
	Code    AppErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewApplicationError creates a new application error
func NewApplicationError(code AppErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Result is the outcome of evaluating one cell
type Result struct {
	Value float64
	Err   error
}

// Display renders the result the way a grid shows it
func (r Result) Display() string {
	if r.Err != nil {
		if text, ok := ErrorMapper[CodeOf(r.Err)]; ok {
			return text
		}
		return "#ERROR!"
	}
	return formatNumber(r.Value)
}

// Sheet ties a Store to a Calculator reading from it. It is the surface a
// grid UI drives: set text, read values, walk the cascade.
type Sheet struct {
	store      *Store
	calculator *Calculator
}

// NewSheet creates an empty sheet
func NewSheet(opts ...Option) *Sheet {
	store := NewStore(opts...)
	return &Sheet{
		store:      store,
		calculator: NewCalculator(store, opts...),
	}
}

// Store returns the underlying store
func (s *Sheet) Store() *Store {
	return s.store
}

// Calculator returns the calculator bound to the store
func (s *Sheet) Calculator() *Calculator {
	return s.calculator
}

// Set stores text and returns the direct dependents of addr
func (s *Sheet) Set(addr CellAddress, text string) ([]CellAddress, error) {
	return s.store.UpdateCell(addr, text)
}

// SetText is Set with a textual address
func (s *Sheet) SetText(address, text string) ([]CellAddress, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}
	return s.Set(addr, text)
}

// Get returns the stored text of addr
func (s *Sheet) Get(addr CellAddress) string {
	return s.store.GetCellText(addr)
}

// Value evaluates the text stored in addr
func (s *Sheet) Value(addr CellAddress) (float64, error) {
	return s.calculator.EvaluateCell(s.store.GetCellText(addr), addr)
}

// Evaluate computes free-standing text against the sheet
func (s *Sheet) Evaluate(text string) (float64, error) {
	return s.calculator.Evaluate(text)
}

// Cascade returns every cell that must be redrawn after addr changes,
// breadth first and without addr itself
func (s *Sheet) Cascade(addr CellAddress) []CellAddress {
	return s.store.GetAllDependents(addr)
}

// Refresh recomputes addr and its whole cascade. Each cell is evaluated
// independently from its own text.
func (s *Sheet) Refresh(addr CellAddress) map[CellAddress]Result {
	cells := append([]CellAddress{addr}, s.Cascade(addr)...)
	results := make(map[CellAddress]Result, len(cells))
	for _, c := range cells {
		v, err := s.Value(c)
		results[c] = Result{Value: v, Err: err}
	}
	return results
}

// Values evaluates every non-blank cell
func (s *Sheet) Values() map[CellAddress]Result {
	results := make(map[CellAddress]Result, s.store.Len())
	for _, c := range s.store.Cells() {
		v, err := s.Value(c.Address)
		results[c.Address] = Result{Value: v, Err: err}
	}
	return results
}

// Load replaces the sheet with a JSON grid document
func (s *Sheet) Load(r io.Reader) error {
	return s.store.ReadJSON(r)
}

// Save writes the sheet as a JSON grid document
func (s *Sheet) Save(w io.Writer) error {
	return s.store.WriteJSON(w)
}
