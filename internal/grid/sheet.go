package grid

import (
	"fmt"
	"strings"
)

// Sheet is read access to one worksheet by column label and one-based row.
type Sheet interface {
	Name() string
	Cell(col string, row int) Value
}

// MemorySheet is a fully loaded worksheet.
type MemorySheet struct {
	name  string
	cells map[string]Value
}

// NewMemorySheet builds a sheet from A1-style references, e.g.
// {"A2": "Police", "C3": 1200.5}. Values go through Of.
func NewMemorySheet(name string, cells map[string]any) *MemorySheet {
	s := &MemorySheet{name: name, cells: make(map[string]Value, len(cells))}
	for ref, v := range cells {
		s.cells[strings.ToUpper(ref)] = Of(v)
	}
	return s
}

func (s *MemorySheet) Name() string { return s.name }

// Cell returns the value at col+row, or an absent value.
func (s *MemorySheet) Cell(col string, row int) Value {
	v, ok := s.cells[CellRef(strings.ToUpper(col), row)]
	if !ok {
		return Empty()
	}
	return v
}

// Set stores a value. Absent values delete the cell.
func (s *MemorySheet) Set(col string, row int, v Value) {
	ref := CellRef(strings.ToUpper(col), row)
	if v.IsAbsent() {
		delete(s.cells, ref)
		return
	}
	s.cells[ref] = v
}

// Len is the number of non-empty cells.
func (s *MemorySheet) Len() int { return len(s.cells) }

// SheetNotFoundError is returned when a workbook lacks a configured sheet.
type SheetNotFoundError struct {
	Sheet     string
	Available []string
}

func (e *SheetNotFoundError) Error() string {
	return fmt.Sprintf("sheet %q not found (available: %s)", e.Sheet, strings.Join(e.Available, ", "))
}
