package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dvloznov/budget-flow/internal/reference"
	"github.com/google/go-cmp/cmp"
)

const minimalCity = `
city: Testville
fiscalYear: 2017
carryover: Carryover
capitalFunds: {first: 6000, last: 6999}
funds:
  - {code: 1080, description: General Fund}
  - {code: 6014, description: 2014 Sales Tax Fund}
fundCategories:
  - {threshold: 1080, label: General Fund}
  - {threshold: 6000, label: Capital Projects}
characterClasses:
  - {code: 51, label: Personnel Services}
agencies:
  - {name: Police, division: Public Safety and Protection}
aliases:
  agency:
    - {name: Police Department, root: Police}
revenueOverrides:
  - {crossRef: n TRANSFERS IN, category: Transfers In}
revenue:
  amountSheet: ADOPTED Rev Table
  fundHeaderRow: 2
  fundColumns: {first: B, last: D}
  rows: {first: 3, last: 35}
  crossRefColumn: A
  categories:
    sheet: REVenue(2)
    rows: {first: 10, last: 68}
    categoryColumn: A
    detailColumn: B
    crossRefColumn: AN
expense:
  amountSheet: Expense
  fundHeaderRow: 3
  fundColumns: {first: Y, last: AB}
  rows: {first: 5, last: 40}
  descriptionColumn: A
  classColumn: B
  programs:
    sheet: Programs
    rows: {first: 2, last: 30}
    programColumn: A
    codedColumn: AK
    prettyColumn: B
`

func TestParseCity(t *testing.T) {
	city, err := ParseCity([]byte(minimalCity))
	if err != nil {
		t.Fatalf("ParseCity failed: %v", err)
	}

	if city.Name != "Testville" || city.FiscalYear != 2017 || city.Carryover != "Carryover" {
		t.Errorf("unexpected header fields: %+v", city)
	}
	if diff := cmp.Diff([]string{"B", "C", "D"}, city.Revenue.FundColumns); diff != "" {
		t.Errorf("revenue fund columns mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Y", "Z", "AA", "AB"}, city.Expense.FundColumns); diff != "" {
		t.Errorf("expense fund columns mismatch (-want +got):\n%s", diff)
	}
	if city.Revenue.CategoryCrossRefColumn != "AN" || city.Expense.CodedColumn != "AK" {
		t.Errorf("cross-ref columns not carried over: %+v / %+v", city.Revenue, city.Expense)
	}

	wantAliases := map[reference.AliasKind][]reference.AliasRule{
		reference.AliasAgency: {{Name: "Police Department", Root: "Police"}},
	}
	if diff := cmp.Diff(wantAliases, city.Tables.Aliases); diff != "" {
		t.Errorf("aliases mismatch (-want +got):\n%s", diff)
	}

	r, err := reference.New(city.Tables)
	if err != nil {
		t.Fatalf("reference.New failed: %v", err)
	}
	if r.FundKind(6014) != reference.Capital {
		t.Error("6014 should be a capital fund")
	}
}

func TestParseCity_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantSub string
	}{
		{
			name:    "unknown key",
			mutate:  func(s string) string { return strings.Replace(s, "carryover:", "carryOver:", 1) },
			wantSub: "carryOver",
		},
		{
			name:    "missing city",
			mutate:  func(s string) string { return strings.Replace(s, "city: Testville", "city: \"\"", 1) },
			wantSub: "city name is required",
		},
		{
			name: "bands out of order",
			mutate: func(s string) string {
				return strings.Replace(s, "{threshold: 6000, label: Capital Projects}", "{threshold: 1000, label: Capital Projects}", 1)
			},
			wantSub: "strictly increasing",
		},
		{
			name:    "bad column label",
			mutate:  func(s string) string { return strings.Replace(s, "{first: B, last: D}", "{first: B, last: 4}", 1) },
			wantSub: "fund columns",
		},
		{
			name:    "missing sheet",
			mutate:  func(s string) string { return strings.Replace(s, "sheet: Programs", "sheet: \"\"", 1) },
			wantSub: "program sheet name is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCity([]byte(tt.mutate(minimalCity)))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestLoadCity_Tulsa(t *testing.T) {
	city, err := LoadCity(filepath.Join("..", "..", "configs", "tulsa.yaml"))
	if err != nil {
		t.Fatalf("LoadCity failed: %v", err)
	}
	if len(city.Tables.Funds) != 46 {
		t.Errorf("funds = %d, want 46", len(city.Tables.Funds))
	}
	// B..AQ; AR is the totals column.
	if n := len(city.Revenue.FundColumns); n != 42 {
		t.Errorf("revenue fund columns = %d, want 42", n)
	}

	r, err := reference.New(city.Tables)
	if err != nil {
		t.Fatalf("reference.New failed: %v", err)
	}
	for _, f := range city.Tables.Funds {
		desc, err := r.FundDescription(f.Code)
		if err != nil || desc != f.Description {
			t.Errorf("FundDescription(%d) = %q, %v", f.Code, desc, err)
		}
	}
}

func TestLoadCity_MissingFile(t *testing.T) {
	if _, err := LoadCity(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadSettings_Defaults(t *testing.T) {
	for _, key := range []string{EnvConfig, EnvRevenue, EnvExpense, EnvOutput, EnvAudit, EnvStrict, EnvBQProject, EnvBQDataset, EnvLogLevel} {
		t.Setenv(key, "")
	}

	s := LoadSettings(filepath.Join(t.TempDir(), "missing.env"))

	want := Settings{
		ConfigPath: "configs/tulsa.yaml",
		OutputURI:  "sankey.json",
		Strict:     true,
		BQDataset:  "budget_flow",
		LogLevel:   "info",
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
	if s.PublishEnabled() {
		t.Error("publishing should be disabled without a project")
	}
}

func TestLoadSettings_Environment(t *testing.T) {
	t.Setenv(EnvRevenue, "gs://budgets/FY17 Revenues.xlsx")
	t.Setenv(EnvStrict, "false")
	t.Setenv(EnvBQProject, "civic-budgets")
	t.Setenv(EnvLogLevel, " debug ")

	s := LoadSettings(filepath.Join(t.TempDir(), "missing.env"))

	if s.RevenueURI != "gs://budgets/FY17 Revenues.xlsx" {
		t.Errorf("RevenueURI = %q", s.RevenueURI)
	}
	if s.Strict {
		t.Error("Strict should be false")
	}
	if !s.PublishEnabled() {
		t.Error("publishing should be enabled")
	}
	if s.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", s.LogLevel)
	}
}

func TestLoadSettings_DotEnv(t *testing.T) {
	// Register cleanup for variables the .env file will set, then clear them.
	t.Setenv(EnvExpense, "")
	t.Setenv(EnvOutput, "kept.json")
	os.Unsetenv(EnvExpense)

	path := filepath.Join(t.TempDir(), ".env")
	content := EnvExpense + "=expense.xlsx\n" + EnvOutput + "=overridden.json\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing .env: %v", err)
	}

	s := LoadSettings(path)

	if !s.DotEnvLoaded {
		t.Error("DotEnvLoaded should be true")
	}
	if s.ExpenseURI != "expense.xlsx" {
		t.Errorf("ExpenseURI = %q", s.ExpenseURI)
	}
	if s.OutputURI != "kept.json" {
		t.Errorf("OutputURI = %q, environment should win over .env", s.OutputURI)
	}
}

func TestGetEnvBool_Invalid(t *testing.T) {
	t.Setenv(EnvStrict, "maybe")
	if !getEnvBool(EnvStrict, true) {
		t.Error("invalid bool should fall back to the default")
	}
}
