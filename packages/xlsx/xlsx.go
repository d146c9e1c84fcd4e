// Package xlsx moves a grid in and out of Excel workbooks. Engine address
// $A$0 is Excel cell A1.
package xlsx

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"

	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
	"github.com/xuri/excelize/v2"
)

const (
	// ValuesSheet holds computed numbers, or the error text of failing cells
	ValuesSheet = "Values"
	// FormulasSheet holds the raw cell text
	FormulasSheet = "Formulas"
)

type options struct {
	logger *slog.Logger
}

// Option configures Export and Import
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

// Export writes the sheet as a workbook with a Values and a Formulas sheet
func Export(w io.Writer, sheet *spreadsheet.Sheet, opts ...Option) error {
	o := buildOptions(opts)

	f := excelize.NewFile()
	defer f.Close()

	// a new file starts with Sheet1
	if err := f.SetSheetName(f.GetSheetName(0), ValuesSheet); err != nil {
		return wrap(spreadsheet.Internal, "naming values sheet", err)
	}
	if _, err := f.NewSheet(FormulasSheet); err != nil {
		return wrap(spreadsheet.Internal, "creating formulas sheet", err)
	}

	failed := 0
	for _, cell := range sheet.Store().Cells() {
		name, err := AddressToCellName(cell.Address)
		if err != nil {
			return wrap(spreadsheet.OutOfRange, fmt.Sprintf("cell %s", cell.Address), err)
		}

		if err := f.SetCellStr(FormulasSheet, name, cell.Text); err != nil {
			return wrap(spreadsheet.Internal, fmt.Sprintf("writing formula %s", name), err)
		}

		value, evalErr := sheet.Value(cell.Address)
		if evalErr != nil {
			failed++
			err = f.SetCellStr(ValuesSheet, name, spreadsheet.Result{Err: evalErr}.Display())
		} else {
			err = f.SetCellValue(ValuesSheet, name, value)
		}
		if err != nil {
			return wrap(spreadsheet.Internal, fmt.Sprintf("writing value %s", name), err)
		}
	}

	if err := f.Write(w); err != nil {
		return wrap(spreadsheet.Internal, "writing workbook", err)
	}
	o.logger.Info("workbook exported", "cells", sheet.Store().Len(), "errors", failed)
	return nil
}

// ImportReport describes what Import did
type ImportReport struct {
	Sheet   string
	Cells   int
	Skipped map[string]string // Excel cell name -> reason
}

// Import reads one worksheet (the first when sheetName is empty) and
// replaces the store with it. Formula cells are translated; constant cells
// are kept when they are numbers or engine formula text; everything else is
// skipped and listed in the report. The store is untouched on error.
func Import(r io.Reader, store *spreadsheet.Store, sheetName string, opts ...Option) (*ImportReport, error) {
	o := buildOptions(opts)

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, wrap(spreadsheet.InvalidArgument, "opening workbook", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheetName); err != nil || idx < 0 {
		return nil, spreadsheet.NewApplicationError(spreadsheet.NotFound, fmt.Sprintf("sheet %q not found", sheetName))
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, wrap(spreadsheet.Internal, "reading rows", err)
	}

	report := &ImportReport{Sheet: sheetName, Skipped: make(map[string]string)}
	cells := make(map[spreadsheet.CellAddress]string)
	for rowIdx, row := range rows {
		for colIdx, value := range row {
			addr := spreadsheet.NewCellAddress(uint32(colIdx), uint32(rowIdx))
			name, err := AddressToCellName(addr)
			if err != nil {
				return nil, wrap(spreadsheet.OutOfRange, "cell name", err)
			}

			formula, err := f.GetCellFormula(sheetName, name)
			if err != nil {
				return nil, wrap(spreadsheet.Internal, fmt.Sprintf("reading formula %s", name), err)
			}

			text, reason := cellText(value, formula)
			if reason != "" {
				report.Skipped[name] = reason
				o.logger.Warn("skipping cell", "cell", name, "reason", reason)
				continue
			}
			if text != "" {
				cells[addr] = text
			}
		}
	}

	if err := store.ReplaceAll(cells); err != nil {
		return nil, wrap(spreadsheet.InvalidArgument, "loading cells", err)
	}
	report.Cells = len(cells)
	o.logger.Info("workbook imported", "sheet", sheetName, "cells", report.Cells, "skipped", len(report.Skipped))
	return report, nil
}

// cellText picks the engine text for one cell. reason is set when the cell
// cannot be represented.
func cellText(value, formula string) (text, reason string) {
	if formula != "" {
		translated, err := TranslateFormula(formula)
		if err != nil {
			return "", err.Error()
		}
		return translated, ""
	}

	if value == "" {
		return "", ""
	}
	if _, err := spreadsheet.Parse(value); err == nil {
		return value, ""
	}
	// exponent forms like 1E+21 are numbers the formula grammar cannot spell
	if v, err := strconv.ParseFloat(value, 64); err == nil && !math.IsInf(v, 0) && !math.IsNaN(v) {
		return strconv.FormatFloat(v, 'f', -1, 64), ""
	}
	return "", fmt.Sprintf("value %q is not a number", value)
}

func wrap(code spreadsheet.AppErrorCode, message string, err error) error {
	var appErr *spreadsheet.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return &spreadsheet.AppError{Code: code, Message: message, Err: err}
}
