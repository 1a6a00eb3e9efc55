package extract

import (
	"fmt"

	"github.com/dvloznov/budget-flow/internal/grid"
)

// FundCodes reads the fund code heading each fund column. A header cell that
// is blank or not an integer means the layout does not match the workbook.
func FundCodes(sheet grid.Sheet, row int, cols []string) (map[string]int, error) {
	codes := make(map[string]int, len(cols))
	for _, col := range cols {
		code, err := sheet.Cell(col, row).Int()
		if err != nil {
			return nil, fmt.Errorf("FundCodes: sheet %q cell %s: %w", sheet.Name(), grid.CellRef(col, row), err)
		}
		codes[col] = code
	}
	return codes, nil
}
