package spreadsheet

import (
	"fmt"
	"iter"
)

// RangeAddress is an inclusive rectangle of cells
type RangeAddress struct {
	StartRow    uint32
	StartColumn uint32
	EndRow      uint32
	EndColumn   uint32
}

func (r RangeAddress) String() string {
	return fmt.Sprintf("%s:%s",
		CellAddress{Column: r.StartColumn, Row: r.StartRow},
		CellAddress{Column: r.EndColumn, Row: r.EndRow})
}

// Contains reports whether addr lies inside the rectangle
func (r RangeAddress) Contains(addr CellAddress) bool {
	return addr.Row >= r.StartRow && addr.Row <= r.EndRow &&
		addr.Column >= r.StartColumn && addr.Column <= r.EndColumn
}

// CellRange iterates a rectangle lazily, blank cells included
type CellRange struct {
	bounds RangeAddress
	source CellSource
}

// NewCellRange creates a range over source. The corners may be given in
// any order.
func NewCellRange(source CellSource, from, to CellAddress) *CellRange {
	return &CellRange{
		bounds: RangeAddress{
			StartRow:    min(from.Row, to.Row),
			StartColumn: min(from.Column, to.Column),
			EndRow:      max(from.Row, to.Row),
			EndColumn:   max(from.Column, to.Column),
		},
		source: source,
	}
}

// GetBounds returns the range boundaries
func (r *CellRange) GetBounds() RangeAddress {
	return r.bounds
}

// Iterate returns an iterator over all cells in the range, row by row
func (r *CellRange) Iterate() iter.Seq[Cell] {
	return func(yield func(Cell) bool) {
		if r.source == nil {
			return
		}

		for row := r.bounds.StartRow; row <= r.bounds.EndRow; row++ {
			for col := r.bounds.StartColumn; col <= r.bounds.EndColumn; col++ {
				addr := CellAddress{Column: col, Row: row}
				if !yield(Cell{Address: addr, Text: r.source.GetCellText(addr)}) {
					return
				}
				if col == r.bounds.EndColumn {
					break // keep col from wrapping at MaxUint32
				}
			}
			if row == r.bounds.EndRow {
				break
			}
		}
	}
}

// UsedRange spans from $A$0 to the last populated row and column. ok is
// false for an empty store.
func (s *Store) UsedRange() (r *CellRange, ok bool) {
	if s.Len() == 0 {
		return nil, false
	}
	return NewCellRange(s, CellAddress{}, CellAddress{Column: uint32(s.Columns() - 1), Row: uint32(s.Rows() - 1)}), true
}
