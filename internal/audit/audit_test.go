package audit

import (
	"strings"
	"testing"

	"github.com/dvloznov/budget-flow/internal/extract"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestReadExpectations(t *testing.T) {
	input := "General Fund\t$1,300\n" +
		"\n" +
		"EMSA\t500\tEmergency Medical Services Authority\n" +
		"Refunds\t(25)\n"

	got, err := ReadExpectations(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadExpectations failed: %v", err)
	}

	want := []Expectation{
		{Name: "General Fund", Total: d("1300"), Line: 1},
		{Name: "EMSA", Total: d("500"), Previous: "Emergency Medical Services Authority", Line: 3},
		{Name: "Refunds", Total: d("-25"), Line: 4},
	}
	opt := cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })
	if diff := cmp.Diff(want, got, opt); diff != "" {
		t.Errorf("expectations mismatch (-want +got):\n%s", diff)
	}
}

func TestReadExpectations_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "missing total", input: "General Fund\n"},
		{name: "bad amount", input: "General Fund\tlots\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadExpectations(strings.NewReader(tt.input)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestReconcile(t *testing.T) {
	entries := []Entry{
		{Name: "General Fund", Amount: d("1000")},
		{Name: "General Fund", Amount: d("300.40")},
		{Name: "TMUA Water Operating", Amount: d("800")},
		{Name: "EMSA", Amount: d("500")},
		{Name: "Golf Course Operating", Amount: d("42")},
	}
	resolve := func(name string) string {
		if name == "TMUA-Water" {
			return "TMUA Water Operating"
		}
		if name == "Stormwater" {
			return "Stormwater Management"
		}
		return name
	}
	expectations := []Expectation{
		{Name: "General Fund", Total: d("1300")},
		{Name: "TMUA-Water", Total: d("800")},
		{Name: "Golf", Total: d("42")},
		{Name: "EMSA", Total: d("450")},
		{Name: "Stormwater", Total: d("42")},
		{Name: "Airport", Total: d("7")},
	}

	s := Reconcile(expectations, entries, resolve)

	if s.Checked != 6 || s.Passed != 3 {
		t.Errorf("checked = %d, passed = %d", s.Checked, s.Passed)
	}

	var failed []string
	var via []Match
	for _, m := range s.Failed {
		failed = append(failed, m.Expectation.Name)
		via = append(via, m.Via)
	}
	if diff := cmp.Diff([]string{"EMSA", "Stormwater", "Airport"}, failed); diff != "" {
		t.Errorf("failed mismatch (-want +got):\n%s", diff)
	}
	// An alias that resolves to nothing does not fall back to amounts.
	if diff := cmp.Diff([]Match{ByName, NoMatch, NoMatch}, via); diff != "" {
		t.Errorf("via mismatch (-want +got):\n%s", diff)
	}
}

func TestHumanSummary(t *testing.T) {
	s := Summary{
		Checked: 2,
		Passed:  1,
		Failed: []Mismatch{{
			Expectation: Expectation{Name: "EMSA", Total: d("450"), Previous: "EMS"},
			Found:       d("500"),
			Entries:     1,
			Via:         ByName,
		}},
	}

	out := HumanSummary(s)
	for _, want := range []string{"Checked: 2", "Failed: 1", "EMSA (previously EMS): expected 450.00, found 500.00 in 1 entry by name"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRevenueEntries_Reconcile(t *testing.T) {
	records := []extract.RevenueRecord{
		{FundDescription: "General Fund", Amount: d("1000")},
		{FundDescription: "General Fund", Amount: d("300")},
		{FundDescription: "EMSA", Amount: d("500")},
	}
	expectations := []Expectation{
		{Name: "General Fund", Total: d("1300")},
		{Name: "EMSA", Total: d("500")},
	}

	s := Reconcile(expectations, RevenueEntries(records), nil)
	if s.Passed != 2 || len(s.Failed) != 0 {
		t.Errorf("summary = %+v", s)
	}
}

func TestExpenseEntries(t *testing.T) {
	got := ExpenseEntries([]extract.ExpenseRecord{{Department: "Police", Amount: d("-40")}})
	want := []Entry{{Name: "Police", Amount: d("-40")}}
	opt := cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })
	if diff := cmp.Diff(want, got, opt); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}
