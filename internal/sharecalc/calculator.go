package sharecalc

import (
	"fmt"
	"strings"
)

type shareCalculator struct {
	rules    RuleSet
	excluded map[string]struct{}
}

// New creates a Calculator bound to the provided rule set.
func New(rules RuleSet) (Calculator, error) {
	if strings.TrimSpace(rules.FundingKeep) == "" {
		return nil, ErrNoFundingLabel
	}
	if len(rules.TransitionCountries) == 0 {
		return nil, ErrNoTransitionCountries
	}

	excluded := make(map[string]struct{}, len(rules.NonDoseProducts))
	for _, product := range rules.NonDoseProducts {
		excluded[product] = struct{}{}
	}

	return &shareCalculator{rules: rules, excluded: excluded}, nil
}

// Calculate runs the full pipeline over the snapshot: normalize destination
// names, drop non-dose products, keep only fully funded lines, aggregate
// doses by destination, and compute each destination's share of the filtered
// total plus the summed share of the transition-country set.
//
// A zero filtered total is the only fatal condition. Schema-level row
// problems and transition countries absent from the aggregates are collected
// into Diagnostics and returned alongside the result.
func (c *shareCalculator) Calculate(lines []ShipmentLine) (*Result, error) {
	result := &Result{
		Aggregates: make(map[string]float64),
		Shares:     make(map[string]float64),
	}

	for i, line := range lines {
		country := normalizeCountry(line.Country, c.rules.CountryAliases)
		if country == "" {
			result.Diagnostics.SkippedRows = append(result.Diagnostics.SkippedRows,
				RowIssue{Row: i, Reason: "missing destination country"})
			continue
		}
		if line.QuantityMissing {
			result.Diagnostics.SkippedRows = append(result.Diagnostics.SkippedRows,
				RowIssue{Row: i, Reason: fmt.Sprintf("missing dose quantity for %s", country)})
			continue
		}
		if line.Doses < 0 {
			result.Diagnostics.SkippedRows = append(result.Diagnostics.SkippedRows,
				RowIssue{Row: i, Reason: fmt.Sprintf("negative dose quantity %v for %s", line.Doses, country)})
			continue
		}

		// Product matching is exact and case-sensitive; variants are a
		// data-quality problem upstream, not something to paper over here.
		if _, skip := c.excluded[line.Product]; skip {
			continue
		}
		if line.FinancingType != c.rules.FundingKeep {
			continue
		}

		result.Aggregates[country] += line.Doses
	}

	for _, doses := range result.Aggregates {
		result.TotalDoses += doses
	}
	if result.TotalDoses == 0 {
		return nil, ErrNoFilteredDoses
	}

	for country, doses := range result.Aggregates {
		result.Shares[country] = doses / result.TotalDoses
	}

	for _, country := range c.rules.TransitionCountries {
		normalized := normalizeCountry(country, c.rules.CountryAliases)
		share, ok := result.Shares[normalized]
		if !ok {
			result.Diagnostics.MissingCountries = append(result.Diagnostics.MissingCountries, country)
			continue
		}
		result.TransitionShare += share
	}

	return result, nil
}

// normalizeCountry trims whitespace and resolves known alternate spellings
// to the canonical destination name used as the grouping key.
func normalizeCountry(name string, aliases map[string]string) string {
	name = strings.TrimSpace(name)
	if canonical, ok := aliases[name]; ok {
		return canonical
	}
	return name
}
