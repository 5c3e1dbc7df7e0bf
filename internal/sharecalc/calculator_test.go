package sharecalc

import (
	"errors"
	"math"
	"testing"
)

func testRules() RuleSet {
	return RuleSet{
		NonDoseProducts:     []string{"AD-Syringe, 0.5 ml", "Safety Box, 5 Litre"},
		FundingKeep:         "GAVI",
		TransitionCountries: []string{"Nigeria", "Kenya"},
		CountryAliases:      map[string]string{"Côte d'Ivoire": "Cote d'Ivoire"},
	}
}

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                string
		rules               RuleSet
		lines               []ShipmentLine
		wantAggregates      map[string]float64
		wantShares          map[string]float64
		wantTransitionShare float64
		wantMissing         []string
		wantSkipped         int
		wantErr             error
	}{
		{
			name:  "DocumentedExample",
			rules: testRules(),
			lines: []ShipmentLine{
				{Country: "Nigeria", Product: "bOPV 20 dose(s)", FinancingType: "GAVI", Doses: 100},
				{Country: "Kenya", Product: "bOPV 20 dose(s)", FinancingType: "GAVI", Doses: 50},
				{Country: "France", Product: "bOPV 20 dose(s)", FinancingType: "Co-financing", Doses: 1000},
				{Country: "Nigeria", Product: "AD-Syringe, 0.5 ml", FinancingType: "GAVI", Doses: 500},
			},
			wantAggregates:      map[string]float64{"Nigeria": 100, "Kenya": 50},
			wantShares:          map[string]float64{"Nigeria": 100.0 / 150.0, "Kenya": 50.0 / 150.0},
			wantTransitionShare: 1.0,
		},
		{
			name:  "AliasResolvedBeforeAggregation",
			rules: RuleSet{
				NonDoseProducts:     nil,
				FundingKeep:         "GAVI",
				TransitionCountries: []string{"Cote d'Ivoire"},
				CountryAliases:      map[string]string{"Côte d'Ivoire": "Cote d'Ivoire"},
			},
			lines: []ShipmentLine{
				{Country: "Côte d'Ivoire", Product: "YF 10 dose(s)", FinancingType: "GAVI", Doses: 30},
				{Country: "Cote d'Ivoire", Product: "YF 10 dose(s)", FinancingType: "GAVI", Doses: 70},
				{Country: "Ghana", Product: "YF 10 dose(s)", FinancingType: "GAVI", Doses: 100},
			},
			wantAggregates:      map[string]float64{"Cote d'Ivoire": 100, "Ghana": 100},
			wantShares:          map[string]float64{"Cote d'Ivoire": 0.5, "Ghana": 0.5},
			wantTransitionShare: 0.5,
		},
		{
			name:  "UnmappedSpellingReportedAsMissing",
			rules: RuleSet{
				FundingKeep:         "GAVI",
				TransitionCountries: []string{"Cote d'Ivoire"},
			},
			lines: []ShipmentLine{
				{Country: "Côte d'Ivoire", Product: "YF 10 dose(s)", FinancingType: "GAVI", Doses: 30},
			},
			wantAggregates:      map[string]float64{"Côte d'Ivoire": 30},
			wantShares:          map[string]float64{"Côte d'Ivoire": 1},
			wantTransitionShare: 0,
			wantMissing:         []string{"Cote d'Ivoire"},
		},
		{
			name:  "SchemaIssuesSkippedAndCounted",
			rules: testRules(),
			lines: []ShipmentLine{
				{Country: "Nigeria", Product: "bOPV 20 dose(s)", FinancingType: "GAVI", Doses: 100},
				{Country: "Kenya", Product: "bOPV 20 dose(s)", FinancingType: "GAVI", QuantityMissing: true},
				{Country: "", Product: "bOPV 20 dose(s)", FinancingType: "GAVI", Doses: 10},
				{Country: "Ghana", Product: "bOPV 20 dose(s)", FinancingType: "GAVI", Doses: -5},
			},
			wantAggregates:      map[string]float64{"Nigeria": 100},
			wantShares:          map[string]float64{"Nigeria": 1},
			wantTransitionShare: 1,
			wantMissing:         []string{"Kenya"},
			wantSkipped:         3,
		},
		{
			name:    "NothingSurvivesFilters",
			rules:   testRules(),
			lines:   []ShipmentLine{{Country: "France", Product: "bOPV 20 dose(s)", FinancingType: "Co-financing", Doses: 1000}},
			wantErr: ErrNoFilteredDoses,
		},
		{
			name:    "EmptyInput",
			rules:   testRules(),
			lines:   nil,
			wantErr: ErrNoFilteredDoses,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			calc, err := New(tc.rules)
			if err != nil {
				t.Fatalf("unexpected constructor error: %v", err)
			}

			got, err := calc.Calculate(tc.lines)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected error %v, got %v", tc.wantErr, err)
			}
			if tc.wantErr != nil {
				if got != nil {
					t.Fatalf("expected no partial result alongside %v, got %+v", tc.wantErr, got)
				}
				return
			}

			if !equalFloatMaps(got.Aggregates, tc.wantAggregates) {
				t.Errorf("aggregates: got %v want %v", got.Aggregates, tc.wantAggregates)
			}
			if !equalFloatMaps(got.Shares, tc.wantShares) {
				t.Errorf("shares: got %v want %v", got.Shares, tc.wantShares)
			}
			if math.Abs(got.TransitionShare-tc.wantTransitionShare) > 1e-9 {
				t.Errorf("transition share: got %v want %v", got.TransitionShare, tc.wantTransitionShare)
			}
			if len(got.Diagnostics.MissingCountries) != len(tc.wantMissing) {
				t.Errorf("missing countries: got %v want %v", got.Diagnostics.MissingCountries, tc.wantMissing)
			}
			if len(got.Diagnostics.SkippedRows) != tc.wantSkipped {
				t.Errorf("skipped rows: got %d want %d", len(got.Diagnostics.SkippedRows), tc.wantSkipped)
			}
		})
	}
}

func TestCalculate_SharesSumToOne(t *testing.T) {
	t.Parallel()

	calc, err := New(testRules())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := []ShipmentLine{
		{Country: "Nigeria", Product: "bOPV 20 dose(s)", FinancingType: "GAVI", Doses: 123456},
		{Country: "Kenya", Product: "MR 10 dose(s)", FinancingType: "GAVI", Doses: 7890},
		{Country: "Ghana", Product: "YF 10 dose(s)", FinancingType: "GAVI", Doses: 1},
		{Country: "Djibouti", Product: "Td 10 dose(s)", FinancingType: "GAVI", Doses: 0.5},
	}

	got, err := calc.Calculate(lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sum := 0.0
	for _, share := range got.Shares {
		sum += share
	}
	if math.Abs(sum-1.0) > 1e-12 {
		t.Fatalf("shares sum to %v, want 1.0", sum)
	}
}

func TestCalculate_Idempotent(t *testing.T) {
	t.Parallel()

	calc, err := New(testRules())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := []ShipmentLine{
		{Country: "Nigeria", Product: "bOPV 20 dose(s)", FinancingType: "GAVI", Doses: 100},
		{Country: "Kenya", Product: "MR 10 dose(s)", FinancingType: "GAVI", Doses: 40},
	}

	first, err := calc.Calculate(lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := calc.Calculate(lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !equalFloatMaps(first.Shares, second.Shares) || first.TransitionShare != second.TransitionShare {
		t.Fatalf("two runs over identical input diverged: %+v vs %+v", first, second)
	}
}

func TestNew_InvalidRules(t *testing.T) {
	t.Parallel()

	if _, err := New(RuleSet{TransitionCountries: []string{"Kenya"}}); !errors.Is(err, ErrNoFundingLabel) {
		t.Fatalf("expected ErrNoFundingLabel, got %v", err)
	}
	if _, err := New(RuleSet{FundingKeep: "GAVI"}); !errors.Is(err, ErrNoTransitionCountries) {
		t.Fatalf("expected ErrNoTransitionCountries, got %v", err)
	}
}

func TestNormalizeCountry(t *testing.T) {
	t.Parallel()

	aliases := map[string]string{
		"Côte d'Ivoire":         "Cote d'Ivoire",
		"Sao Tome and Principe": "Sao Tome & Principe",
	}

	tests := []struct {
		in   string
		want string
	}{
		{"Côte d'Ivoire", "Cote d'Ivoire"},
		{"  Kenya ", "Kenya"},
		{"Sao Tome and Principe", "Sao Tome & Principe"},
		{"Nigeria", "Nigeria"},
		{"  ", ""},
	}

	for _, tc := range tests {
		if got := normalizeCountry(tc.in, aliases); got != tc.want {
			t.Errorf("normalizeCountry(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func equalFloatMaps(got, want map[string]float64) bool {
	if len(got) != len(want) {
		return false
	}
	for k, wantVal := range want {
		gotVal, ok := got[k]
		if !ok || math.Abs(gotVal-wantVal) > 1e-9 {
			return false
		}
	}
	return true
}
