package grid

import (
	"fmt"
	"strings"
)

const lettersInAlphabet = 26

// ColumnLabel returns the spreadsheet column name for a zero-based index:
// 0 -> "A", 25 -> "Z", 26 -> "AA", 701 -> "ZZ", 702 -> "AAA".
func ColumnLabel(index int) string {
	if index < 0 {
		panic(fmt.Sprintf("grid: negative column index %d", index))
	}
	if index < lettersInAlphabet {
		return string(rune('A' + index))
	}
	return ColumnLabel(index/lettersInAlphabet-1) + ColumnLabel(index%lettersInAlphabet)
}

// ColumnIndex is the inverse of ColumnLabel. Labels are case-insensitive.
func ColumnIndex(label string) (int, error) {
	label = strings.ToUpper(strings.TrimSpace(label))
	if label == "" {
		return 0, fmt.Errorf("ColumnIndex: empty column label")
	}

	index := 0
	for _, r := range label {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("ColumnIndex: invalid column label %q", label)
		}
		index = index*lettersInAlphabet + int(r-'A') + 1
	}
	return index - 1, nil
}

// Columns expands an inclusive column range such as "B".."AQ".
func Columns(first, last string) ([]string, error) {
	from, err := ColumnIndex(first)
	if err != nil {
		return nil, err
	}
	to, err := ColumnIndex(last)
	if err != nil {
		return nil, err
	}
	if to < from {
		return nil, fmt.Errorf("Columns: range %s..%s is reversed", first, last)
	}

	cols := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		cols = append(cols, ColumnLabel(i))
	}
	return cols, nil
}

// CellRef joins a column label and a one-based row into an A1 reference.
func CellRef(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
