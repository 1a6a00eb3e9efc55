package reference

import (
	"errors"
	"testing"
)

func tulsaTables() Tables {
	return Tables{
		Funds: []Fund{
			{Code: 1080, Description: "General Fund"},
			{Code: 2240, Description: "Air Force Plant 3"},
			{Code: 3623, Description: "Tulsa Authority for Recovery of Energy"},
			{Code: 4306, Description: "Sinking Fund"},
			{Code: 6014, Description: "2014 Sales Tax Fund"},
			{Code: 7010, Description: "Tulsa Authority for Recovery of Energy"},
			{Code: 7060, Description: "EMSA"},
			{Code: 8030, Description: "Equip. Mgmt. Service Fund"},
		},
		Bands: []Band{
			{Threshold: 1080, Label: "General Fund"},
			{Threshold: 2000, Label: "Special Revenue"},
			{Threshold: 3000, Label: "Trust & Agency Enterprise"},
			{Threshold: 4100, Label: "Special Assessment"},
			{Threshold: 4306, Label: "Debt Service"},
			{Threshold: 5000, Label: "Special Revenue (Grants)"},
			{Threshold: 6000, Label: "Capital Projects"},
			{Threshold: 7000, Label: "Enterprise"},
			{Threshold: 8000, Label: "Internal Service"},
		},
		Classes: []CharacterClass{
			{Code: 51, Label: "Personnel Services"},
			{Code: 52, Label: "Professional Services"},
			{Code: 53, Label: "Materials and Supplies"},
			{Code: 54, Label: "Capital Purchase"},
			{Code: 55, Label: "Debt Service"},
			{Code: 58, Label: "Transfers"},
			{Code: 59, Label: "Transfers"},
		},
		Agencies: []Agency{
			{Name: "Parks and Recreation", Division: "Culture and Recreation"},
			{Name: "Police", Division: "Public Safety and Protection"},
		},
		Aliases: map[AliasKind][]AliasRule{
			AliasAgency: {{Name: "Park and Recreation", Root: "Parks and Recreation"}},
			AliasFund:   {{Name: "TMUA-Water", Root: "TMUA Water Operating"}},
		},
		Overrides: []Override{
			{CrossRef: "M Internal Service Charges", Category: "Internal Service", Detail: "Internal Service Charges"},
			{CrossRef: "n TRANSFERS IN", Category: "Transfers In"},
		},
		CapitalFunds: Range{First: 6000, Last: 6999},
	}
}

func mustResolver(t *testing.T, tables Tables) *Resolver {
	t.Helper()
	r, err := New(tables)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return r
}

func TestFundDescription_RoundTrip(t *testing.T) {
	tables := tulsaTables()
	r := mustResolver(t, tables)

	for _, f := range tables.Funds {
		got, err := r.FundDescription(f.Code)
		if err != nil {
			t.Fatalf("FundDescription(%d) error: %v", f.Code, err)
		}
		if got != f.Description {
			t.Errorf("FundDescription(%d) = %q, want %q", f.Code, got, f.Description)
		}
	}

	_, err := r.FundDescription(9999)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Kind != KindFund || nf.Key != "9999" {
		t.Errorf("NotFoundError = %+v", nf)
	}
}

func TestFundCategory(t *testing.T) {
	r := mustResolver(t, tulsaTables())

	tests := []struct {
		code    int
		want    string
		wantErr bool
	}{
		{code: 500, wantErr: true},
		{code: 1079, wantErr: true},
		{code: 1080, want: "General Fund"},
		{code: 1999, want: "General Fund"},
		{code: 2240, want: "Special Revenue"},
		{code: 3623, want: "Trust & Agency Enterprise"},
		{code: 4305, want: "Special Assessment"},
		{code: 4306, want: "Debt Service"},
		{code: 6014, want: "Capital Projects"},
		{code: 8030, want: "Internal Service"},
		{code: 99999, want: "Internal Service"},
	}

	for _, tt := range tests {
		got, err := r.FundCategory(tt.code)
		if tt.wantErr {
			if !IsNotFound(err) {
				t.Errorf("FundCategory(%d) expected NotFoundError, got %q, %v", tt.code, got, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("FundCategory(%d) error: %v", tt.code, err)
			continue
		}
		if got != tt.want {
			t.Errorf("FundCategory(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestNew_RejectsUnorderedBands(t *testing.T) {
	tables := tulsaTables()
	tables.Bands = []Band{{Threshold: 2000, Label: "b"}, {Threshold: 2000, Label: "c"}}
	if _, err := New(tables); err == nil {
		t.Error("expected error for repeated threshold")
	}

	tables.Bands = []Band{{Threshold: 3000, Label: "b"}, {Threshold: 1080, Label: "a"}}
	if _, err := New(tables); err == nil {
		t.Error("expected error for decreasing thresholds")
	}
}

func TestNew_RejectsDuplicateFund(t *testing.T) {
	tables := tulsaTables()
	tables.Funds = append(tables.Funds, Fund{Code: 1080, Description: "Again"})
	if _, err := New(tables); err == nil {
		t.Error("expected error for duplicate fund code")
	}
}

func TestCharacterClassLabel(t *testing.T) {
	r := mustResolver(t, tulsaTables())

	if got := r.CharacterClassLabel(51); got != "Personnel Services" {
		t.Errorf("CharacterClassLabel(51) = %q", got)
	}
	for _, code := range []int{56, 57, 0} {
		if got := r.CharacterClassLabel(code); got != Unknown {
			t.Errorf("CharacterClassLabel(%d) = %q, want %q", code, got, Unknown)
		}
	}
}

func TestResolveAlias(t *testing.T) {
	r := mustResolver(t, tulsaTables())

	tests := []struct {
		kind AliasKind
		name string
		want string
	}{
		{AliasAgency, "Park and Recreation", "Parks and Recreation"},
		{AliasAgency, "park and  recreation ", "Parks and Recreation"},
		{AliasAgency, "Police", "Police"},
		{AliasFund, "TMUA-Water", "TMUA Water Operating"},
		{AliasFund, "Park and Recreation", "Park and Recreation"},
	}

	for _, tt := range tests {
		if got := r.ResolveAlias(tt.kind, tt.name); got != tt.want {
			t.Errorf("ResolveAlias(%s, %q) = %q, want %q", tt.kind, tt.name, got, tt.want)
		}
	}
}

func TestDivision(t *testing.T) {
	r := mustResolver(t, tulsaTables())

	division, ok := r.Division("Park and Recreation")
	if !ok || division != "Culture and Recreation" {
		t.Errorf("Division(typo) = %q, %v", division, ok)
	}

	division, ok = r.Division("Transfers to Other Funds")
	if ok || division != UnknownDivision {
		t.Errorf("Division(unmapped) = %q, %v; want %q, false", division, ok, UnknownDivision)
	}
}

func TestFundKind(t *testing.T) {
	r := mustResolver(t, tulsaTables())

	if got := r.FundKind(6014); got != Capital {
		t.Errorf("FundKind(6014) = %s", got)
	}
	if got := r.FundKind(1080); got != Operating {
		t.Errorf("FundKind(1080) = %s", got)
	}

	var empty Range
	if empty.Contains(0) {
		t.Error("zero Range should be empty")
	}
}

func TestRevenueOverride(t *testing.T) {
	r := mustResolver(t, tulsaTables())

	o, ok := r.RevenueOverride(" M Internal Service Charges ")
	if !ok || !o.Synthetic() || o.Category != "Internal Service" {
		t.Errorf("internal service override = %+v, %v", o, ok)
	}

	o, ok = r.RevenueOverride("n TRANSFERS IN")
	if !ok || o.Synthetic() || o.Category != "Transfers In" {
		t.Errorf("transfers in override = %+v, %v", o, ok)
	}

	if _, ok := r.RevenueOverride("A Taxes"); ok {
		t.Error("unexpected override for plain cross-ref")
	}
}
