// Package audit compares extracted totals against the totals printed in the
// city's budget book. It is a manual QA aid and never fails a run.
package audit

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// Expectation is one line of the budget-book extract.
type Expectation struct {
	Name  string
	Total decimal.Decimal
	// Previous is the name the line had in an earlier budget book, if any.
	Previous string
	Line     int
}

// Entry is one extracted amount keyed by the name the audit matches on.
type Entry struct {
	Name   string
	Amount decimal.Decimal
}

// Match says how entries were found for an expectation.
type Match string

const (
	ByName   Match = "name"
	ByAlias  Match = "alias"
	ByAmount Match = "amount"
	NoMatch  Match = "none"
)

// Mismatch is an expectation whose extracted total differs.
type Mismatch struct {
	Expectation Expectation
	Found       decimal.Decimal
	Entries     int
	Via         Match
}

type Summary struct {
	Checked int
	Passed  int
	Failed  []Mismatch
}

// ReadExpectations parses tab-separated lines of name, expected total and an
// optional previous name. Totals may carry "$" and thousands separators.
func ReadExpectations(r io.Reader) ([]Expectation, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var out []Expectation
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ReadExpectations: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("ReadExpectations: line %d: expected name and total, got %d field(s)", line, len(fields))
		}

		total, err := parseAmount(fields[1])
		if err != nil {
			return nil, fmt.Errorf("ReadExpectations: line %d: %w", line, err)
		}

		e := Expectation{Name: strings.TrimSpace(fields[0]), Total: total, Line: line}
		if len(fields) > 2 {
			e.Previous = strings.TrimSpace(fields[2])
		}
		out = append(out, e)
	}
	return out, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(raw))
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		cleaned = "-" + strings.Trim(cleaned, "()")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	return d, nil
}

// Reconcile sums the entries matching each expectation and compares the sum
// with the expected total in whole currency units. Entries are matched by
// name; failing that by the alias root from resolve; failing that, when no
// alias exists, by an amount equal to the expected total.
func Reconcile(expectations []Expectation, entries []Entry, resolve func(string) string) Summary {
	byName := make(map[string][]Entry)
	for _, e := range entries {
		key := strings.TrimSpace(e.Name)
		byName[key] = append(byName[key], e)
	}

	s := Summary{Checked: len(expectations)}
	for _, exp := range expectations {
		matched, via := byName[exp.Name], ByName
		if len(matched) == 0 {
			matched, via = fallback(exp, entries, byName, resolve)
		}

		sum := decimal.Zero
		for _, e := range matched {
			sum = sum.Add(e.Amount)
		}

		if len(matched) > 0 && sum.Round(0).Equal(exp.Total.Round(0)) {
			s.Passed++
			continue
		}
		s.Failed = append(s.Failed, Mismatch{
			Expectation: exp,
			Found:       sum,
			Entries:     len(matched),
			Via:         via,
		})
	}
	return s
}

func fallback(exp Expectation, entries []Entry, byName map[string][]Entry, resolve func(string) string) ([]Entry, Match) {
	if resolve != nil {
		if root := resolve(exp.Name); root != exp.Name {
			if matched := byName[root]; len(matched) > 0 {
				return matched, ByAlias
			}
			return nil, NoMatch
		}
	}

	var matched []Entry
	for _, e := range entries {
		if e.Amount.Equal(exp.Total) {
			matched = append(matched, e)
		}
	}
	if len(matched) == 0 {
		return nil, NoMatch
	}
	return matched, ByAmount
}

func HumanSummary(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Checked: %d\n", s.Checked)
	fmt.Fprintf(&b, "Passed: %d\n", s.Passed)
	fmt.Fprintf(&b, "Failed: %d\n", len(s.Failed))
	for _, m := range s.Failed {
		name := m.Expectation.Name
		if m.Expectation.Previous != "" {
			name = fmt.Sprintf("%s (previously %s)", name, m.Expectation.Previous)
		}
		if m.Via == NoMatch {
			fmt.Fprintf(&b, "  - %s: expected %s, nothing found\n", name, m.Expectation.Total.StringFixed(2))
			continue
		}
		fmt.Fprintf(&b, "  - %s: expected %s, found %s in %d entr%s by %s\n",
			name, m.Expectation.Total.StringFixed(2), m.Found.StringFixed(2), m.Entries, plural(m.Entries), m.Via)
	}
	return b.String()
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
