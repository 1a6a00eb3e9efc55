// Package scanner walks hand-maintained spreadsheet tables in which sparse
// marker cells open a group and the rows below carry the data of that group
// until the next marker appears.
package scanner

import (
	"fmt"
	"strings"

	"github.com/dvloznov/budget-flow/internal/grid"
)

// Placeholder is the group code in effect before the first marker row.
const Placeholder = "***PLACEHOLDER***"

// Layout assigns roles to the columns of one table.
type Layout struct {
	// First and Last are the inclusive one-based row range.
	First int
	Last  int

	// Marker is the column whose non-empty cell starts a new group. Empty means
	// the table has no groups and every record carries the placeholder.
	Marker string
	// Label is an optional second marker column holding a display label.
	Label string

	// Values are the data columns; one record is emitted per populated cell.
	Values []string
	// Attrs are copied onto every record of the row.
	Attrs []string
	// Require, when set, must be populated for a row to count as data. Rows
	// failing it are subtotal or separator rows.
	Require string

	// MarkerRowsEmit makes a marker row also emit its own data cells.
	MarkerRowsEmit bool
	// DataFirst treats a row holding both marker and data as a data row and
	// leaves the group unchanged.
	DataFirst bool
}

// Group is the marker in effect.
type Group struct {
	Code  string
	Label string
	// Row is where the marker was found; zero for the placeholder.
	Row int
}

// IsPlaceholder reports whether no marker has been seen yet.
func (g Group) IsPlaceholder() bool { return g.Row == 0 }

// Cell is one data cell of a row.
type Cell struct {
	Column string
	Value  grid.Value
}

// Row is the part of a sheet row the layout cares about.
type Row struct {
	Number int
	Marker grid.Value
	Label  grid.Value
	Values []Cell
	Attrs  map[string]grid.Value
}

// Record is one populated value cell tagged with its group.
type Record struct {
	Row    int
	Column string
	Value  grid.Value
	Attrs  map[string]grid.Value
	Group  Group
}

// Attr returns an attribute cell of the record's row.
func (r Record) Attr(col string) grid.Value {
	if v, ok := r.Attrs[col]; ok {
		return v
	}
	return grid.Empty()
}

// Ref is the A1 reference of the record's cell.
func (r Record) Ref() string {
	return grid.CellRef(r.Column, r.Row)
}

// State is the accumulator threaded through the rows.
type State struct {
	Group Group
}

// Initial returns the state before the first row.
func Initial() State {
	return State{Group: Group{Code: Placeholder, Label: Placeholder}}
}

// MalformedTableError reports a data row that appeared before any marker.
// The row is still emitted with the placeholder group.
type MalformedTableError struct {
	Sheet string
	Row   int
}

func (e *MalformedTableError) Error() string {
	return fmt.Sprintf("sheet %q row %d: data before any group marker", e.Sheet, e.Row)
}

// Result is the outcome of a scan.
type Result struct {
	Records   []Record
	Anomalies []*MalformedTableError
	Groups    int
}

// Scan folds Step over the layout's rows of sheet.
func Scan(sheet grid.Sheet, layout Layout) Result {
	var result Result
	state := Initial()

	for n := layout.First; n <= layout.Last; n++ {
		next, records, anomaly := Step(layout, state, ReadRow(sheet, layout, n))
		if next.Group != state.Group {
			result.Groups++
		}
		if anomaly != nil {
			anomaly.Sheet = sheet.Name()
			result.Anomalies = append(result.Anomalies, anomaly)
		}
		result.Records = append(result.Records, records...)
		state = next
	}

	return result
}

// ReadRow extracts the cells named by the layout from row n.
func ReadRow(sheet grid.Sheet, layout Layout, n int) Row {
	row := Row{Number: n, Marker: grid.Empty(), Label: grid.Empty()}
	if layout.Marker != "" {
		row.Marker = sheet.Cell(layout.Marker, n)
	}
	if layout.Label != "" {
		row.Label = sheet.Cell(layout.Label, n)
	}

	for _, col := range layout.Values {
		if v := sheet.Cell(col, n); !v.IsAbsent() {
			row.Values = append(row.Values, Cell{Column: col, Value: v})
		}
	}

	attrCols := layout.Attrs
	if layout.Require != "" {
		attrCols = append(append([]string(nil), layout.Attrs...), layout.Require)
	}
	if len(attrCols) > 0 {
		row.Attrs = make(map[string]grid.Value, len(attrCols))
		for _, col := range attrCols {
			row.Attrs[col] = sheet.Cell(col, n)
		}
	}

	return row
}

// Step applies one row to the state. It returns the next state, the records
// the row emits and, for data seen before any marker, an anomaly.
func Step(layout Layout, state State, row Row) (State, []Record, *MalformedTableError) {
	hasData := len(row.Values) > 0
	if hasData && layout.Require != "" {
		hasData = !row.Attrs[layout.Require].IsAbsent()
	}
	isMarker := layout.Marker != "" && !row.Marker.IsAbsent()

	if isMarker && !(layout.DataFirst && hasData) {
		next := State{Group: Group{
			Code:  strings.TrimSpace(row.Marker.String()),
			Label: strings.TrimSpace(row.Label.String()),
			Row:   row.Number,
		}}
		if layout.MarkerRowsEmit && hasData {
			return next, emit(row, next.Group), nil
		}
		return next, nil, nil
	}

	if !hasData {
		return state, nil, nil
	}

	var anomaly *MalformedTableError
	if layout.Marker != "" && state.Group.IsPlaceholder() {
		anomaly = &MalformedTableError{Row: row.Number}
	}
	return state, emit(row, state.Group), anomaly
}

func emit(row Row, group Group) []Record {
	records := make([]Record, 0, len(row.Values))
	for _, cell := range row.Values {
		records = append(records, Record{
			Row:    row.Number,
			Column: cell.Column,
			Value:  cell.Value,
			Attrs:  row.Attrs,
			Group:  group,
		})
	}
	return records
}
