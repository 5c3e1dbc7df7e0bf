// Package demand turns the Vaccine Almanac required-supply snapshot into
// the Africa-share-of-global-demand series behind the demand chart: country
// names are normalized, doses aggregated by continent and year, and the
// Africa share split into a measured series and a projected series so the
// chart can dash projections.
package demand

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/mthomas-dev/vaccine-analytics/internal/dataset"
	"github.com/mthomas-dev/vaccine-analytics/internal/export"
)

const africaBucket = "Africa"

var (
	// ErrNoUsableRows is returned when no input row survives normalization.
	ErrNoUsableRows = errors.New("no usable demand rows after normalization")
	// ErrTargetYearMissing is returned when the headline year is absent from the series.
	ErrTargetYearMissing = errors.New("target year missing from demand series")
)

// Options control the split between measured and projected data and the
// headline year reported as a key number.
type Options struct {
	LastMeasuredYear int
	TargetYear       int
}

// Output is the chart-ready series plus the headline share.
type Output struct {
	Table             export.Table
	AfricaShareTarget float64
	Issues            []string
}

// Run aggregates required supply by continent and year and derives the
// Africa share series. Countries that cannot be resolved to a continent are
// skipped and reported; they are the most likely sign of a naming change in
// the source.
func Run(rows []dataset.DemandRow, opts Options) (*Output, error) {
	out := &Output{}

	byYear := make(map[int]map[string]float64)
	for _, row := range rows {
		name := canonicalCountry(row.Country)
		continent, ok := continentOf(name)
		if !ok {
			out.Issues = append(out.Issues, fmt.Sprintf("unresolved country %q (%d)", row.Country, row.Year))
			continue
		}
		if byYear[row.Year] == nil {
			byYear[row.Year] = make(map[string]float64)
		}
		byYear[row.Year][continent] += row.RequiredSupply
	}
	if len(byYear) == 0 {
		return nil, ErrNoUsableRows
	}

	years := make([]int, 0, len(byYear))
	for year := range byYear {
		years = append(years, year)
	}
	sort.Ints(years)

	out.Table = export.Table{
		Header: []string{"year", "Africa_share_measured", "Africa_share_projected"},
	}

	targetSeen := false
	for _, year := range years {
		total := 0.0
		for _, supply := range byYear[year] {
			total += supply
		}
		if total == 0 {
			out.Issues = append(out.Issues, fmt.Sprintf("year %d has zero total demand", year))
			continue
		}

		share := byYear[year][africaBucket] / total

		measured, projected := "", ""
		if year <= opts.LastMeasuredYear {
			measured = formatShare(share)
		}
		if year >= opts.LastMeasuredYear {
			projected = formatShare(share)
		}
		out.Table.Rows = append(out.Table.Rows, []string{strconv.Itoa(year), measured, projected})

		if year == opts.TargetYear {
			out.AfricaShareTarget = share
			targetSeen = true
		}
	}

	if !targetSeen {
		return nil, fmt.Errorf("%w: %d", ErrTargetYearMissing, opts.TargetYear)
	}
	return out, nil
}

func formatShare(share float64) string {
	return strconv.FormatFloat(share, 'f', -1, 64)
}
