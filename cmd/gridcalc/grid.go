package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
	"github.com/vogtb/go-spreadsheet/packages/xlsx"
	"golang.org/x/text/width"
)

// foldInput maps fullwidth forms (as typed with an East Asian input method,
// e.g. "＄Ａ＄０＋１") to their ASCII counterparts. Anything still outside
// ASCII afterwards is left for the engine to refuse.
func foldInput(text string) string {
	return width.Fold.String(text)
}

// loadSheet reads the grid document. A missing file is an empty grid.
func loadSheet(cfg *settings) (*spreadsheet.Sheet, error) {
	sheet := spreadsheet.NewSheet(spreadsheet.WithLogger(cfg.logger))

	data, err := os.ReadFile(cfg.gridPath)
	if errors.Is(err, fs.ErrNotExist) {
		cfg.logger.Debug("grid file not found, starting empty", "path", cfg.gridPath)
		return sheet, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read grid: %w", err)
	}

	if err := sheet.Load(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", cfg.gridPath, err)
	}
	return sheet, nil
}

// saveSheet writes the grid document
func saveSheet(cfg *settings, sheet *spreadsheet.Sheet) error {
	var buf bytes.Buffer
	if err := sheet.Save(&buf); err != nil {
		return err
	}

	if err := os.WriteFile(cfg.gridPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write grid: %w", err)
	}
	cfg.logger.Info("grid saved", "path", cfg.gridPath, "cells", sheet.Store().Len())
	return nil
}

// parseCell accepts $COL$ROW engine addresses and Excel names like B3
func parseCell(text string) (spreadsheet.CellAddress, error) {
	text = strings.TrimSpace(foldInput(text))
	if strings.Count(text, "$") == 2 && strings.HasPrefix(text, "$") {
		return spreadsheet.ParseAddress(text)
	}
	return xlsx.CellNameToAddress(strings.ToUpper(text))
}

// displayName shows an address both ways, e.g. $B$2 (C3)
func displayName(addr spreadsheet.CellAddress) string {
	name, err := xlsx.AddressToCellName(addr)
	if err != nil {
		return addr.String()
	}
	return fmt.Sprintf("%s (%s)", addr, name)
}
