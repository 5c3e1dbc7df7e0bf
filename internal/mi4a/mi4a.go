// Package mi4a aggregates the WHO MI4A public purchase database into annual
// procured-dose totals and reconciles the aggregate against the unfiltered
// source so a silent loss of rows shows up before publication.
package mi4a

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/mthomas-dev/vaccine-analytics/internal/dataset"
	"github.com/mthomas-dev/vaccine-analytics/internal/export"
)

var (
	// ErrInvalidYearRange is returned when the configured range is empty or inverted.
	ErrInvalidYearRange = errors.New("year range must satisfy from <= to")
	// ErrNoRowsInRange is returned when no purchase row falls inside the year range.
	ErrNoRowsInRange = errors.New("no purchase rows inside the configured year range")
)

// YearRange is an inclusive range of purchase years.
type YearRange struct {
	From, To int
}

// Contains reports whether year falls inside the range.
func (r YearRange) Contains(year int) bool {
	return year >= r.From && year <= r.To
}

// TotalsCheck compares the aggregated total against an independent sum over
// the same source rows.
type TotalsCheck struct {
	AggregatedTotal float64
	SourceTotal     float64
	Match           bool
}

// Output is the chart-ready annual series plus the reconciliation result.
type Output struct {
	Table export.Table
	Check TotalsCheck
}

// Run filters the purchase rows to the year range and sums annual doses per
// year.
func Run(rows []dataset.PurchaseRow, years YearRange) (*Output, error) {
	if years.From > years.To {
		return nil, fmt.Errorf("%w: %d..%d", ErrInvalidYearRange, years.From, years.To)
	}

	byYear := make(map[int]float64)
	sourceTotal := 0.0
	for _, row := range rows {
		if !years.Contains(row.Year) {
			continue
		}
		byYear[row.Year] += row.AnnualDoses
		sourceTotal += row.AnnualDoses
	}
	if len(byYear) == 0 {
		return nil, ErrNoRowsInRange
	}

	yearKeys := make([]int, 0, len(byYear))
	for year := range byYear {
		yearKeys = append(yearKeys, year)
	}
	sort.Ints(yearKeys)

	out := &Output{
		Table: export.Table{Header: []string{"year", "annual_doses"}},
	}
	aggregated := 0.0
	for _, year := range yearKeys {
		aggregated += byYear[year]
		out.Table.Rows = append(out.Table.Rows, []string{
			strconv.Itoa(year),
			strconv.FormatFloat(byYear[year], 'f', -1, 64),
		})
	}

	out.Check = TotalsCheck{
		AggregatedTotal: aggregated,
		SourceTotal:     sourceTotal,
		Match:           math.Abs(aggregated-sourceTotal) < 1e-6,
	}
	return out, nil
}
