package spreadsheet

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// Snapshot returns the grid document: row -> column -> text, non-blank
// cells only
func (s *Store) Snapshot() map[int]map[int]string {
	doc := make(map[int]map[int]string)
	for addr, text := range s.cells {
		row := int(addr.Row)
		if doc[row] == nil {
			doc[row] = make(map[int]string)
		}
		doc[row][int(addr.Column)] = text
	}
	return doc
}

// WriteJSON encodes the grid document
func (s *Store) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.Snapshot()); err != nil {
		return &AppError{Code: Internal, Message: "encoding grid", Err: err}
	}
	return nil
}

// ReadJSON decodes a grid document and replaces the whole store with it.
// The document is decoded and checked in full first, so a bad document
// leaves the store as it was. A JSON null changes nothing.
func (s *Store) ReadJSON(r io.Reader) error {
	var doc map[int64]map[int64]string
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return &AppError{Code: InvalidArgument, Message: "decoding grid", Err: err}
	}
	if doc == nil {
		return nil
	}

	cells, err := cellsFromDocument(doc)
	if err != nil {
		return err
	}
	if err := s.ReplaceAll(cells); err != nil {
		return &AppError{Code: InvalidArgument, Message: "loading grid", Err: err}
	}
	return nil
}

func cellsFromDocument(doc map[int64]map[int64]string) (map[CellAddress]string, error) {
	cells := make(map[CellAddress]string)
	for row, cols := range doc {
		if err := checkIndex("row", row); err != nil {
			return nil, err
		}
		for col, text := range cols {
			if err := checkIndex("column", col); err != nil {
				return nil, err
			}
			if text == "" {
				continue
			}
			cells[CellAddress{Column: uint32(col), Row: uint32(row)}] = text
		}
	}
	return cells, nil
}

func checkIndex(kind string, n int64) error {
	if n < 0 || n > math.MaxUint32 {
		return NewApplicationError(OutOfRange, fmt.Sprintf("%s index %d out of range", kind, n))
	}
	return nil
}
