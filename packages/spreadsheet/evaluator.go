package spreadsheet

import (
	"errors"
	"log/slog"
	"strings"
)

// CellSource supplies the stored text of a cell. A blank cell is "".
type CellSource interface {
	GetCellText(addr CellAddress) string
}

type options struct {
	logger *slog.Logger
}

// Option configures a Calculator or a Store
type Option func(*options)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) *options {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Calculator evaluates formula text against a grid. It holds no state
// between calls; every evaluation gets its own in-progress stack.
type Calculator struct {
	grid      CellSource
	functions *BuiltInFunctions
	logger    *slog.Logger
}

// NewCalculator creates a calculator reading cells from grid. A nil grid
// treats every referenced cell as blank.
func NewCalculator(grid CellSource, opts ...Option) *Calculator {
	o := buildOptions(opts)
	return &Calculator{
		grid:      grid,
		functions: NewDefaultBuiltInFunctions(),
		logger:    o.logger,
	}
}

// Evaluate computes the value of free-standing formula text
func (c *Calculator) Evaluate(text string) (float64, error) {
	ev := c.newEvaluation()
	return ev.evaluateText(text, nil)
}

// EvaluateCell computes text that lives in cell self, so a reference back to
// self is reported as circular.
func (c *Calculator) EvaluateCell(text string, self CellAddress) (float64, error) {
	ev := c.newEvaluation()
	ev.stack.push(self)
	defer ev.stack.pop()
	return ev.evaluateText(text, &self)
}

func (c *Calculator) newEvaluation() *evaluation {
	return &evaluation{
		calc:      c,
		stack:     NewCalculationStack(),
		functions: c.functions,
	}
}

// evaluation is the state of one top-level Evaluate call
type evaluation struct {
	calc      *Calculator
	stack     *CalculationStack
	functions *BuiltInFunctions
}

func (ev *evaluation) evaluateText(text string, owner *CellAddress) (float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}

	ast, err := Parse(text)
	if err != nil {
		return 0, invalidExpression(text, owner, err)
	}
	return ast.Eval(ev)
}

// resolve evaluates the stored text of a referenced cell
func (ev *evaluation) resolve(addr CellAddress) (float64, error) {
	if ev.stack.isProcessing(addr) {
		ev.calc.logger.Debug("circular reference", "cell", addr.String(), "chain", ev.stack.String())
		err := NewSpreadsheetError(ErrorCodeCircularReference, "circular reference detected")
		err.Address = &addr
		return 0, err
	}

	ev.stack.push(addr)
	defer ev.stack.pop()

	text := ""
	if ev.calc.grid != nil {
		text = ev.calc.grid.GetCellText(addr)
	}
	ev.calc.logger.Debug("resolving reference", "cell", addr.String(), "depth", ev.stack.depth())
	return ev.evaluateText(text, &addr)
}

func invalidExpression(text string, owner *CellAddress, cause error) error {
	// a malformed address inside otherwise valid text keeps its own kind
	if errors.Is(cause, ErrMalformedAddress) {
		return cause
	}
	err := NewSpreadsheetError(ErrorCodeInvalidExpression, "cannot parse "+quote(text)).WithCause(cause)
	err.Address = owner
	return err
}

func quote(s string) string {
	const limit = 40
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return `"` + s + `"`
}

// CalculationStack is the ordered set of cells being evaluated on the
// current call chain
type CalculationStack struct {
	items      []CellAddress
	processing map[CellAddress]struct{}
}

// NewCalculationStack creates a new calculation stack
func NewCalculationStack() *CalculationStack {
	return &CalculationStack{
		items:      make([]CellAddress, 0),
		processing: make(map[CellAddress]struct{}),
	}
}

// push adds a cell to the stack
func (cs *CalculationStack) push(addr CellAddress) {
	cs.items = append(cs.items, addr)
	cs.processing[addr] = struct{}{}
}

// pop removes and returns the top cell from the stack
func (cs *CalculationStack) pop() (CellAddress, bool) {
	if len(cs.items) == 0 {
		return CellAddress{}, false
	}
	addr := cs.items[len(cs.items)-1]
	cs.items = cs.items[:len(cs.items)-1]
	delete(cs.processing, addr)
	return addr, true
}

// isProcessing checks if a cell is currently being processed
func (cs *CalculationStack) isProcessing(addr CellAddress) bool {
	_, exists := cs.processing[addr]
	return exists
}

func (cs *CalculationStack) depth() int {
	return len(cs.items)
}

func (cs *CalculationStack) String() string {
	parts := make([]string, len(cs.items))
	for i, addr := range cs.items {
		parts[i] = addr.String()
	}
	return strings.Join(parts, " -> ")
}
