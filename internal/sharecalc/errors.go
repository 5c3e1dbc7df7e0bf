package sharecalc

import "errors"

var (
	// ErrNoFundingLabel is returned when the rule set does not name the financing value to keep.
	ErrNoFundingLabel = errors.New("rule set must name the financing label identifying fully funded lines")
	// ErrNoTransitionCountries is returned when the rule set carries an empty transition-country set.
	ErrNoTransitionCountries = errors.New("rule set must contain at least one transition country")
	// ErrNoFilteredDoses is returned when no doses survive the filters, leaving shares undefined.
	ErrNoFilteredDoses = errors.New("no doses remain after filtering: share of total is undefined")
)
