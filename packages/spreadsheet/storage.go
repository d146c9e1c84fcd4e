package spreadsheet

import (
	"errors"
	"log/slog"
	"slices"
)

// Store is the sparse address -> text mapping together with the reference
// graph derived from it. It is not safe for concurrent use; callers
// serialize access.
type Store struct {
	cells           map[CellAddress]string
	dependencyGraph *DependencyGraph
	logger          *slog.Logger
}

// NewStore creates an empty store
func NewStore(opts ...Option) *Store {
	o := buildOptions(opts)
	return &Store{
		cells:           make(map[CellAddress]string),
		dependencyGraph: NewDependencyGraph(),
		logger:          o.logger,
	}
}

// UpdateCell stores text in addr and rewrites the cell's reference edges.
// It returns the cells that directly reference addr, i.e. the ones to
// redraw. Text that cannot be scanned for references leaves the store
// untouched.
func (s *Store) UpdateCell(addr CellAddress, text string) ([]CellAddress, error) {
	refs, err := FindReferences(text)
	if err != nil {
		return nil, err
	}

	change := s.dependencyGraph.setPrecedents(addr, refs)
	if len(change.Added) > 0 || len(change.Removed) > 0 {
		s.logger.Debug("references changed",
			"cell", addr.String(),
			"added", formatAddresses(change.Added),
			"removed", formatAddresses(change.Removed))
	}

	if text == "" {
		delete(s.cells, addr)
	} else {
		s.cells[addr] = text
	}

	return s.dependencyGraph.GetDirectDependents(addr), nil
}

// ClearCell is UpdateCell(addr, "")
func (s *Store) ClearCell(addr CellAddress) ([]CellAddress, error) {
	return s.UpdateCell(addr, "")
}

// GetCellText returns the stored text, or "" for a blank cell
func (s *Store) GetCellText(addr CellAddress) string {
	return s.cells[addr]
}

// GetDependents returns the cells directly referencing addr
func (s *Store) GetDependents(addr CellAddress) []CellAddress {
	return s.dependencyGraph.GetDirectDependents(addr)
}

// GetReferences returns the cells addr's text references, without addr
// itself
func (s *Store) GetReferences(addr CellAddress) []CellAddress {
	return s.dependencyGraph.GetDirectPrecedents(addr)
}

// GetAllDependents returns the transitive dependents of addr, breadth first
func (s *Store) GetAllDependents(addr CellAddress) []CellAddress {
	return s.dependencyGraph.GetAllDependents(addr)
}

// ReplaceAll clears the store and loads cells. Every text is checked before
// anything changes, so a bad entry leaves the previous state in place.
func (s *Store) ReplaceAll(cells map[CellAddress]string) error {
	for addr, text := range cells {
		if _, err := FindReferences(text); err != nil {
			var se *SpreadsheetError
			if errors.As(err, &se) && se.Address == nil {
				se.Address = &addr
			}
			return err
		}
	}

	s.cells = make(map[CellAddress]string, len(cells))
	s.dependencyGraph.clear()

	for addr, text := range cells {
		// cannot fail, every text was scanned above
		if _, err := s.UpdateCell(addr, text); err != nil {
			return err
		}
	}

	s.logger.Info("grid loaded", "cells", len(s.cells), "nodes", s.dependencyGraph.NodeCount())
	return nil
}

// Rows is the highest populated row index plus one
func (s *Store) Rows() int {
	rows := 0
	for addr := range s.cells {
		rows = max(rows, int(addr.Row)+1)
	}
	return rows
}

// Columns is the highest populated column index plus one
func (s *Store) Columns() int {
	cols := 0
	for addr := range s.cells {
		cols = max(cols, int(addr.Column)+1)
	}
	return cols
}

// Len returns the number of non-blank cells
func (s *Store) Len() int {
	return len(s.cells)
}

// Cells returns every non-blank cell in row-major order
func (s *Store) Cells() []Cell {
	result := make([]Cell, 0, len(s.cells))
	for addr, text := range s.cells {
		result = append(result, Cell{Address: addr, Text: text})
	}
	slices.SortFunc(result, func(a, b Cell) int {
		return compareAddresses(a.Address, b.Address)
	})
	return result
}

// Graph exposes the reference graph for inspection. Its exported methods
// only read; edges change through UpdateCell and ReplaceAll.
func (s *Store) Graph() *DependencyGraph {
	return s.dependencyGraph
}

func formatAddresses(addrs []CellAddress) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return out
}
