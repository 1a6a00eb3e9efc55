package extract

import (
	"errors"
	"fmt"

	"github.com/dvloznov/budget-flow/internal/grid"
)

// RevenueLayout locates the revenue tables inside the revenue workbook.
type RevenueLayout struct {
	AmountSheet   string
	CategorySheet string

	// FundHeaderRow holds one fund code per fund column.
	FundHeaderRow int
	FundColumns   []string

	// First and Last bound the revenue detail rows of the amount sheet.
	First          int
	Last           int
	CrossRefColumn string

	CategoryFirst          int
	CategoryLast           int
	CategoryColumn         string
	DetailColumn           string
	CategoryCrossRefColumn string
}

// Validate checks that every role has been assigned.
func (l RevenueLayout) Validate() error {
	var errs []error
	errs = append(errs, requireSheet("amount", l.AmountSheet), requireSheet("category", l.CategorySheet))
	errs = append(errs, requireRows("revenue", l.First, l.Last), requireRows("category", l.CategoryFirst, l.CategoryLast))
	errs = append(errs, requireColumns(l.FundColumns, l.CrossRefColumn, l.CategoryColumn, l.DetailColumn, l.CategoryCrossRefColumn))
	if l.FundHeaderRow <= 0 {
		errs = append(errs, fmt.Errorf("fund header row must be positive, got %d", l.FundHeaderRow))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("RevenueLayout: %w", err)
	}
	return nil
}

// ExpenseLayout locates the operating and capital tables inside the expense
// workbook.
type ExpenseLayout struct {
	AmountSheet  string
	ProgramSheet string

	FundHeaderRow int
	FundColumns   []string

	// First and Last bound the account rows of the amount sheet.
	First int
	Last  int
	// DescriptionColumn holds the coded department description that starts a
	// department group.
	DescriptionColumn string
	// ClassColumn holds the character class code; rows without one are
	// subtotals.
	ClassColumn string

	ProgramFirst  int
	ProgramLast   int
	ProgramColumn string
	CodedColumn   string
	PrettyColumn  string
}

// Validate checks that every role has been assigned.
func (l ExpenseLayout) Validate() error {
	var errs []error
	errs = append(errs, requireSheet("amount", l.AmountSheet), requireSheet("program", l.ProgramSheet))
	errs = append(errs, requireRows("expense", l.First, l.Last), requireRows("program", l.ProgramFirst, l.ProgramLast))
	errs = append(errs, requireColumns(l.FundColumns, l.DescriptionColumn, l.ClassColumn, l.ProgramColumn, l.CodedColumn, l.PrettyColumn))
	if l.FundHeaderRow <= 0 {
		errs = append(errs, fmt.Errorf("fund header row must be positive, got %d", l.FundHeaderRow))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("ExpenseLayout: %w", err)
	}
	return nil
}

func requireSheet(role, name string) error {
	if name == "" {
		return fmt.Errorf("%s sheet name is empty", role)
	}
	return nil
}

func requireRows(role string, first, last int) error {
	if first <= 0 || last < first {
		return fmt.Errorf("%s rows %d..%d are not a valid range", role, first, last)
	}
	return nil
}

func requireColumns(funds []string, cols ...string) error {
	if len(funds) == 0 {
		return errors.New("no fund columns")
	}
	for _, col := range append(append([]string(nil), funds...), cols...) {
		if _, err := grid.ColumnIndex(col); err != nil {
			return err
		}
	}
	return nil
}
