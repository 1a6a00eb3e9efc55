package audit

import "github.com/dvloznov/budget-flow/internal/extract"

// RevenueEntries keys each revenue record by its fund description, the name
// the budget book prints revenue totals under.
func RevenueEntries(records []extract.RevenueRecord) []Entry {
	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, Entry{Name: r.FundDescription, Amount: r.Amount})
	}
	return entries
}

// ExpenseEntries keys each expense record by its department.
func ExpenseEntries(records []extract.ExpenseRecord) []Entry {
	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, Entry{Name: r.Department, Amount: r.Amount})
	}
	return entries
}
