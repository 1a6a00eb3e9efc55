package grid

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Workbook holds every sheet of a spreadsheet file in memory. The underlying
// file handle is released before OpenWorkbook returns.
type Workbook struct {
	order  []string
	sheets map[string]*MemorySheet
}

// OpenWorkbook reads an .xlsx document and copies the raw cell values of all
// sheets into memory.
func OpenWorkbook(r io.Reader) (wb *Workbook, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("OpenWorkbook: open: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("OpenWorkbook: close: %w", cerr)
		}
	}()

	var sheets []*MemorySheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("OpenWorkbook: read sheet %q: %w", name, err)
		}

		sheet := &MemorySheet{name: name, cells: make(map[string]Value)}
		for i, row := range rows {
			for j, raw := range row {
				sheet.Set(ColumnLabel(j), i+1, Parse(raw))
			}
		}

		sheets = append(sheets, sheet)
	}

	return NewWorkbook(sheets...), nil
}

// OpenWorkbookBytes is OpenWorkbook over an in-memory file.
func OpenWorkbookBytes(data []byte) (*Workbook, error) {
	return OpenWorkbook(bytes.NewReader(data))
}

// NewWorkbook assembles a workbook from already loaded sheets.
func NewWorkbook(sheets ...*MemorySheet) *Workbook {
	wb := &Workbook{sheets: make(map[string]*MemorySheet, len(sheets))}
	for _, s := range sheets {
		wb.order = append(wb.order, s.Name())
		wb.sheets[s.Name()] = s
	}
	return wb
}

// Sheet returns the named sheet.
func (wb *Workbook) Sheet(name string) (Sheet, error) {
	s, ok := wb.sheets[name]
	if !ok {
		return nil, &SheetNotFoundError{Sheet: name, Available: wb.SheetNames()}
	}
	return s, nil
}

// Cells counts the non-empty cells of every sheet.
func (wb *Workbook) Cells() int {
	n := 0
	for _, s := range wb.sheets {
		n += s.Len()
	}
	return n
}

// SheetNames lists the sheets in workbook order.
func (wb *Workbook) SheetNames() []string {
	names := make([]string, len(wb.order))
	copy(names, wb.order)
	return names
}
