package reference

// Fund is one entry of the city's fund list.
type Fund struct {
	Code        int
	Description string
}

// Band is one threshold of the fund-category lookup. A fund belongs to the
// band with the greatest threshold not exceeding its code.
type Band struct {
	Threshold int
	Label     string
}

// CharacterClass labels a spending-type code (51 = Personnel Services, ...).
type CharacterClass struct {
	Code  int
	Label string
}

// Agency maps a department name from the expense workbook to its division.
type Agency struct {
	Name     string
	Division string
}

// AliasKind selects the alias table used for a name boundary.
type AliasKind string

const (
	AliasFund   AliasKind = "fund"
	AliasAgency AliasKind = "agency"
)

// AliasRule rewrites a free-text name (typo, abbreviation) to its root name.
type AliasRule struct {
	Name string
	Root string
}

// Override replaces the category of a revenue cross-reference code.
// With Detail set the category is synthetic and no lookup happens; without it
// only the display category changes and the looked-up detail is kept.
type Override struct {
	CrossRef string
	Category string
	Detail   string
}

// Synthetic reports whether the override fully replaces the category.
func (o Override) Synthetic() bool { return o.Detail != "" }

// Range is an inclusive range of fund codes.
type Range struct {
	First int
	Last  int
}

// Contains reports whether code lies in the range. The zero Range is empty.
func (r Range) Contains(code int) bool {
	if r.First == 0 && r.Last == 0 {
		return false
	}
	return code >= r.First && code <= r.Last
}

// Tables is the static per-city reference configuration. It is read once at
// start-up and never mutated.
type Tables struct {
	Funds        []Fund
	Bands        []Band
	Classes      []CharacterClass
	Agencies     []Agency
	Aliases      map[AliasKind][]AliasRule
	Overrides    []Override
	CapitalFunds Range
}
