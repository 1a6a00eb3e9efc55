// Package config reads process settings from the environment and the per-city
// reference data and sheet layouts from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/dvloznov/budget-flow/internal/extract"
	"github.com/dvloznov/budget-flow/internal/grid"
	"github.com/dvloznov/budget-flow/internal/reference"
	"gopkg.in/yaml.v3"
)

// City is everything needed to extract one city's budget.
type City struct {
	Name       string
	FiscalYear int
	// Carryover is the node name negative expense lines are routed to.
	Carryover string

	Tables  reference.Tables
	Revenue extract.RevenueLayout
	Expense extract.ExpenseLayout
}

type cityFile struct {
	City         string         `yaml:"city"`
	FiscalYear   int            `yaml:"fiscalYear"`
	Carryover    string         `yaml:"carryover"`
	CapitalFunds rangeFile      `yaml:"capitalFunds"`
	Funds        []fundFile     `yaml:"funds"`
	Bands        []bandFile     `yaml:"fundCategories"`
	Classes      []classFile    `yaml:"characterClasses"`
	Agencies     []agencyFile   `yaml:"agencies"`
	Aliases      aliasesFile    `yaml:"aliases"`
	Overrides    []overrideFile `yaml:"revenueOverrides"`
	Revenue      revenueFile    `yaml:"revenue"`
	Expense      expenseFile    `yaml:"expense"`
}

type rangeFile struct {
	First int `yaml:"first"`
	Last  int `yaml:"last"`
}

type columnsFile struct {
	First string `yaml:"first"`
	Last  string `yaml:"last"`
}

type fundFile struct {
	Code        int    `yaml:"code"`
	Description string `yaml:"description"`
}

type bandFile struct {
	Threshold int    `yaml:"threshold"`
	Label     string `yaml:"label"`
}

type classFile struct {
	Code  int    `yaml:"code"`
	Label string `yaml:"label"`
}

type agencyFile struct {
	Name     string `yaml:"name"`
	Division string `yaml:"division"`
}

type aliasFile struct {
	Name string `yaml:"name"`
	Root string `yaml:"root"`
}

type aliasesFile struct {
	Fund   []aliasFile `yaml:"fund"`
	Agency []aliasFile `yaml:"agency"`
}

type overrideFile struct {
	CrossRef string `yaml:"crossRef"`
	Category string `yaml:"category"`
	Detail   string `yaml:"detail"`
}

type revenueFile struct {
	AmountSheet    string      `yaml:"amountSheet"`
	FundHeaderRow  int         `yaml:"fundHeaderRow"`
	FundColumns    columnsFile `yaml:"fundColumns"`
	Rows           rangeFile   `yaml:"rows"`
	CrossRefColumn string      `yaml:"crossRefColumn"`
	Categories     struct {
		Sheet          string    `yaml:"sheet"`
		Rows           rangeFile `yaml:"rows"`
		CategoryColumn string    `yaml:"categoryColumn"`
		DetailColumn   string    `yaml:"detailColumn"`
		CrossRefColumn string    `yaml:"crossRefColumn"`
	} `yaml:"categories"`
}

type expenseFile struct {
	AmountSheet       string      `yaml:"amountSheet"`
	FundHeaderRow     int         `yaml:"fundHeaderRow"`
	FundColumns       columnsFile `yaml:"fundColumns"`
	Rows              rangeFile   `yaml:"rows"`
	DescriptionColumn string      `yaml:"descriptionColumn"`
	ClassColumn       string      `yaml:"classColumn"`
	Programs          struct {
		Sheet         string    `yaml:"sheet"`
		Rows          rangeFile `yaml:"rows"`
		ProgramColumn string    `yaml:"programColumn"`
		CodedColumn   string    `yaml:"codedColumn"`
		PrettyColumn  string    `yaml:"prettyColumn"`
	} `yaml:"programs"`
}

// LoadCity reads and validates a city configuration file.
func LoadCity(path string) (*City, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadCity: %w", err)
	}
	city, err := ParseCity(data)
	if err != nil {
		return nil, fmt.Errorf("LoadCity: %s: %w", path, err)
	}
	return city, nil
}

// ParseCity decodes a city configuration. Unknown keys are rejected so a
// misspelt column role fails loudly.
func ParseCity(data []byte) (*City, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f cityFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("ParseCity: decoding yaml: %w", err)
	}
	if f.City == "" {
		return nil, errors.New("ParseCity: city name is required")
	}

	city := &City{
		Name:       f.City,
		FiscalYear: f.FiscalYear,
		Carryover:  f.Carryover,
		Tables:     f.tables(),
	}

	var err error
	if city.Revenue, err = f.Revenue.layout(); err != nil {
		return nil, fmt.Errorf("ParseCity: revenue: %w", err)
	}
	if city.Expense, err = f.Expense.layout(); err != nil {
		return nil, fmt.Errorf("ParseCity: expense: %w", err)
	}

	// Construction validates bands and fund codes.
	if _, err := reference.New(city.Tables); err != nil {
		return nil, fmt.Errorf("ParseCity: %w", err)
	}
	if err := city.Revenue.Validate(); err != nil {
		return nil, fmt.Errorf("ParseCity: %w", err)
	}
	if err := city.Expense.Validate(); err != nil {
		return nil, fmt.Errorf("ParseCity: %w", err)
	}
	return city, nil
}

func (f cityFile) tables() reference.Tables {
	t := reference.Tables{
		CapitalFunds: reference.Range{First: f.CapitalFunds.First, Last: f.CapitalFunds.Last},
		Aliases:      make(map[reference.AliasKind][]reference.AliasRule),
	}
	for _, fund := range f.Funds {
		t.Funds = append(t.Funds, reference.Fund{Code: fund.Code, Description: fund.Description})
	}
	for _, b := range f.Bands {
		t.Bands = append(t.Bands, reference.Band{Threshold: b.Threshold, Label: b.Label})
	}
	for _, c := range f.Classes {
		t.Classes = append(t.Classes, reference.CharacterClass{Code: c.Code, Label: c.Label})
	}
	for _, a := range f.Agencies {
		t.Agencies = append(t.Agencies, reference.Agency{Name: a.Name, Division: a.Division})
	}
	for _, a := range f.Aliases.Fund {
		t.Aliases[reference.AliasFund] = append(t.Aliases[reference.AliasFund], reference.AliasRule{Name: a.Name, Root: a.Root})
	}
	for _, a := range f.Aliases.Agency {
		t.Aliases[reference.AliasAgency] = append(t.Aliases[reference.AliasAgency], reference.AliasRule{Name: a.Name, Root: a.Root})
	}
	for _, o := range f.Overrides {
		t.Overrides = append(t.Overrides, reference.Override{CrossRef: o.CrossRef, Category: o.Category, Detail: o.Detail})
	}
	return t
}

func (r revenueFile) layout() (extract.RevenueLayout, error) {
	funds, err := grid.Columns(r.FundColumns.First, r.FundColumns.Last)
	if err != nil {
		return extract.RevenueLayout{}, fmt.Errorf("fund columns: %w", err)
	}
	return extract.RevenueLayout{
		AmountSheet:            r.AmountSheet,
		CategorySheet:          r.Categories.Sheet,
		FundHeaderRow:          r.FundHeaderRow,
		FundColumns:            funds,
		First:                  r.Rows.First,
		Last:                   r.Rows.Last,
		CrossRefColumn:         r.CrossRefColumn,
		CategoryFirst:          r.Categories.Rows.First,
		CategoryLast:           r.Categories.Rows.Last,
		CategoryColumn:         r.Categories.CategoryColumn,
		DetailColumn:           r.Categories.DetailColumn,
		CategoryCrossRefColumn: r.Categories.CrossRefColumn,
	}, nil
}

func (e expenseFile) layout() (extract.ExpenseLayout, error) {
	funds, err := grid.Columns(e.FundColumns.First, e.FundColumns.Last)
	if err != nil {
		return extract.ExpenseLayout{}, fmt.Errorf("fund columns: %w", err)
	}
	return extract.ExpenseLayout{
		AmountSheet:       e.AmountSheet,
		ProgramSheet:      e.Programs.Sheet,
		FundHeaderRow:     e.FundHeaderRow,
		FundColumns:       funds,
		First:             e.Rows.First,
		Last:              e.Rows.Last,
		DescriptionColumn: e.DescriptionColumn,
		ClassColumn:       e.ClassColumn,
		ProgramFirst:      e.Programs.Rows.First,
		ProgramLast:       e.Programs.Rows.Last,
		ProgramColumn:     e.Programs.ProgramColumn,
		CodedColumn:       e.Programs.CodedColumn,
		PrettyColumn:      e.Programs.PrettyColumn,
	}, nil
}
