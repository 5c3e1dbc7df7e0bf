package sharecalc

// ShipmentLine is one row of the shipment snapshot after schema mapping.
// QuantityMissing marks rows whose dose quantity cell was blank in the
// source; such rows are excluded from aggregation and reported, never
// treated as zero.
type ShipmentLine struct {
	Country         string
	Product         string
	FinancingType   string
	Doses           float64
	QuantityMissing bool
}

// RuleSet bundles the static configuration the calculator runs under:
// the non-dose product exclusion list, the financing label that marks a
// fully funded line, the ordered transition-country set, and the alias
// table used to normalize destination names before any filtering.
type RuleSet struct {
	NonDoseProducts     []string
	FundingKeep         string
	TransitionCountries []string
	CountryAliases      map[string]string
}

// RowIssue records a source row that was excluded for a schema problem.
type RowIssue struct {
	Row    int
	Reason string
}

// Diagnostics accumulates non-fatal findings from a calculation run.
// SkippedRows lists schema-level exclusions; MissingCountries lists
// transition-set members with no matching aggregate, which usually means
// a naming mismatch rather than genuinely zero volume.
type Diagnostics struct {
	SkippedRows      []RowIssue
	MissingCountries []string
}

// Result holds the derived outputs of a calculation run. Shares are raw
// ratios; percentage formatting is left to the caller.
type Result struct {
	Aggregates      map[string]float64
	Shares          map[string]float64
	TotalDoses      float64
	TransitionShare float64
	Diagnostics     Diagnostics
}

// Calculator describes the behaviour required from a share calculator.
type Calculator interface {
	Calculate(lines []ShipmentLine) (*Result, error)
}
