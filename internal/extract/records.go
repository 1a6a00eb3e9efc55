package extract

import (
	"github.com/dvloznov/budget-flow/internal/reference"
	"github.com/shopspring/decimal"
)

// RevenueRecord is one positive amount flowing from a revenue source into a
// fund.
type RevenueRecord struct {
	FundCode        int
	FundDescription string
	FundCategory    string
	Category        string
	SubCategory     string
	CrossRef        string
	Amount          decimal.Decimal
	// Cell is the A1 reference the amount was read from.
	Cell string
}

// FieldValue exposes the record to naming contexts by field name.
func (r RevenueRecord) FieldValue(name string) (any, bool) {
	switch name {
	case "fundCode":
		return r.FundCode, true
	case "fundDescription":
		return r.FundDescription, true
	case "fundCategory":
		return r.FundCategory, true
	case "category":
		return r.Category, true
	case "subCategory":
		return r.SubCategory, true
	case "crossRef":
		return r.CrossRef, true
	case "amount":
		return r.Amount, true
	case "cell":
		return r.Cell, true
	default:
		return nil, false
	}
}

// ExpenseRecord is one non-zero amount a department spends out of a fund.
type ExpenseRecord struct {
	Department      string
	Division        string
	Program         string
	AccountCode     string
	FundCode        int
	FundDescription string
	FundCategory    string
	ClassCode       int
	CharacterClass  string
	// Amount keeps its sign; negative lines are transfers or reversals.
	Amount decimal.Decimal
	Kind   reference.FundKind
	Cell   string
}

// FieldValue exposes the record to naming contexts by field name.
func (r ExpenseRecord) FieldValue(name string) (any, bool) {
	switch name {
	case "department":
		return r.Department, true
	case "division":
		return r.Division, true
	case "program":
		return r.Program, true
	case "accountCode":
		return r.AccountCode, true
	case "fundCode":
		return r.FundCode, true
	case "fundDescription":
		return r.FundDescription, true
	case "fundCategory":
		return r.FundCategory, true
	case "classCode":
		return r.ClassCode, true
	case "characterClass":
		return r.CharacterClass, true
	case "amount":
		return r.Amount, true
	case "kind":
		return string(r.Kind), true
	case "cell":
		return r.Cell, true
	default:
		return nil, false
	}
}
