package reference

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// Unknown labels a character class code missing from the configuration.
	Unknown = "Unknown"

	// UnknownDivision marks an agency with no division mapping. Administrative
	// rows (debt service, transfers) are expected to carry it.
	UnknownDivision = "?"
)

// FundKind separates operating from capital spending.
type FundKind string

const (
	Operating FundKind = "Operating"
	Capital   FundKind = "Capital"
)

// Resolver answers the lookups used during extraction. It is safe to share
// because nothing mutates it after New.
type Resolver struct {
	funds     map[int]string
	bands     []Band
	classes   map[int]string
	divisions map[string]string
	aliases   map[AliasKind]map[string]string
	overrides map[string]Override
	capital   Range
}

// New validates the tables and builds the lookup indexes.
func New(t Tables) (*Resolver, error) {
	r := &Resolver{
		funds:     make(map[int]string, len(t.Funds)),
		classes:   make(map[int]string, len(t.Classes)),
		divisions: make(map[string]string, len(t.Agencies)),
		aliases:   make(map[AliasKind]map[string]string, len(t.Aliases)),
		overrides: make(map[string]Override, len(t.Overrides)),
		capital:   t.CapitalFunds,
	}

	for _, f := range t.Funds {
		if _, dup := r.funds[f.Code]; dup {
			return nil, fmt.Errorf("reference.New: duplicate fund code %d", f.Code)
		}
		r.funds[f.Code] = f.Description
	}

	for i, b := range t.Bands {
		if i > 0 && b.Threshold <= t.Bands[i-1].Threshold {
			return nil, fmt.Errorf("reference.New: band thresholds must be strictly increasing (%d after %d)",
				b.Threshold, t.Bands[i-1].Threshold)
		}
	}
	r.bands = append([]Band(nil), t.Bands...)

	for _, c := range t.Classes {
		r.classes[c.Code] = c.Label
	}

	for _, a := range t.Agencies {
		r.divisions[normalizeName(a.Name)] = a.Division
	}

	for kind, rules := range t.Aliases {
		table := make(map[string]string, len(rules))
		for _, rule := range rules {
			table[normalizeName(rule.Name)] = rule.Root
		}
		r.aliases[kind] = table
	}

	for _, o := range t.Overrides {
		r.overrides[strings.TrimSpace(o.CrossRef)] = o
	}

	return r, nil
}

// FundDescription returns the configured description of a fund code.
func (r *Resolver) FundDescription(code int) (string, error) {
	desc, ok := r.funds[code]
	if !ok {
		return "", &NotFoundError{Kind: KindFund, Key: strconv.Itoa(code)}
	}
	return desc, nil
}

// FundCategory returns the label of the greatest band threshold not exceeding
// code. Codes below the first threshold have no category.
func (r *Resolver) FundCategory(code int) (string, error) {
	label := ""
	found := false
	for _, b := range r.bands {
		if b.Threshold > code {
			break
		}
		label = b.Label
		found = true
	}
	if !found {
		return "", &NotFoundError{Kind: KindFundCategory, Key: strconv.Itoa(code)}
	}
	return label, nil
}

// CharacterClassLabel returns the label for a class code, or Unknown.
func (r *Resolver) CharacterClassLabel(code int) string {
	if label, ok := r.classes[code]; ok {
		return label
	}
	return Unknown
}

// ResolveAlias returns the root name for name in the kind's alias table, or
// name unchanged when no rule matches.
func (r *Resolver) ResolveAlias(kind AliasKind, name string) string {
	if root, ok := r.aliases[kind][normalizeName(name)]; ok {
		return root
	}
	return name
}

// Division maps an agency name to its division after alias correction.
// Unmapped agencies yield UnknownDivision and ok=false.
func (r *Resolver) Division(agency string) (string, bool) {
	canonical := r.ResolveAlias(AliasAgency, agency)
	if division, ok := r.divisions[normalizeName(canonical)]; ok {
		return division, true
	}
	return UnknownDivision, false
}

// FundKind classifies a fund code by the configured capital range.
func (r *Resolver) FundKind(code int) FundKind {
	if r.capital.Contains(code) {
		return Capital
	}
	return Operating
}

// RevenueOverride returns the category override for a cross-reference code.
func (r *Resolver) RevenueOverride(crossRef string) (Override, bool) {
	o, ok := r.overrides[strings.TrimSpace(crossRef)]
	return o, ok
}

// normalizeName folds whitespace and case so "Parks and  recreation" and
// "Parks and Recreation" share a key.
func normalizeName(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}
