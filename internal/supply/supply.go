// Package supply reshapes the WHO global vaccine market report spreadsheet
// into the manufacturing chart and its headline numbers. The shared sheet
// embeds four summary tables at fixed cell ranges; one is extracted by
// name, given a share-of-global-supply column, and reordered Africa-first
// for the charting tool.
package supply

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/mthomas-dev/vaccine-analytics/internal/dataset"
	"github.com/mthomas-dev/vaccine-analytics/internal/export"
	"github.com/mthomas-dev/vaccine-analytics/internal/keynumbers"
)

var (
	// ErrUnknownTable is returned when the requested table name has no known location.
	ErrUnknownTable = errors.New("table name not found in table locations")
	// ErrTotalRowMissing is returned when the extracted table has no TOTAL row.
	ErrTotalRowMissing = errors.New("extracted table has no TOTAL row")
	// ErrZeroSupply is returned when the table sums to zero doses, leaving shares undefined.
	ErrZeroSupply = errors.New("total vaccine supply is zero: shares are undefined")
)

const totalLabel = "TOTAL"

// productionTargetMillions is the continental production ambition the fold
// increase indicator is measured against.
const productionTargetMillions = 1500.0

// tableLocation addresses one embedded table inside the shared sheet as
// half-open row/column ranges over the raw cell grid.
type tableLocation struct {
	firstRow, lastRow int
	firstCol, lastCol int
}

var tableLocations = map[string]tableLocation{
	"with_covid_who_region":    {firstRow: 11, lastRow: 18, firstCol: 2, lastCol: 6},
	"with_covid_continent":     {firstRow: 19, lastRow: 26, firstCol: 2, lastCol: 6},
	"without_covid_who_region": {firstRow: 30, lastRow: 37, firstCol: 2, lastCol: 6},
	"without_covid_continent":  {firstRow: 38, lastRow: 45, firstCol: 2, lastCol: 6},
}

// desiredOrder puts Africa first for the visualisation; the rest follow in
// descending production order.
var desiredOrder = []string{
	"Africa",
	"Asia",
	"North America",
	"Europe",
	"South America",
	"Oceania",
}

// Record is one row of the extracted manufacturing table.
type Record struct {
	ManufacturerHQ string
	ToWorld        float64
	ToAfrica       float64
	ShareToAfrica  float64
	ShareOfSupply  float64
}

// Output is the chart-ready table plus the headline indicators.
type Output struct {
	Table      export.Table
	KeyNumbers map[string]string
	Issues     []string
}

// Extract pulls the named table out of the raw sheet grid.
func Extract(grid [][]string, tableName string) ([]Record, []string, error) {
	loc, ok := tableLocations[tableName]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownTable, tableName)
	}

	var (
		records []Record
		issues  []string
	)
	for row := loc.firstRow; row < loc.lastRow; row++ {
		cells := make([]string, 0, loc.lastCol-loc.firstCol)
		for col := loc.firstCol; col < loc.lastCol; col++ {
			cells = append(cells, cellAt(grid, row, col))
		}
		if cells[0] == "" {
			continue
		}

		rec := Record{ManufacturerHQ: cells[0]}
		var parseErr error
		if rec.ToWorld, parseErr = numericCell(cells[1]); parseErr != nil {
			issues = append(issues, fmt.Sprintf("%s: unparseable vaccines_to_world %q", rec.ManufacturerHQ, cells[1]))
			continue
		}
		if rec.ToAfrica, parseErr = numericCell(cells[2]); parseErr != nil {
			issues = append(issues, fmt.Sprintf("%s: unparseable vaccines_to_africa %q", rec.ManufacturerHQ, cells[2]))
			continue
		}
		if rec.ShareToAfrica, parseErr = numericCell(cells[3]); parseErr != nil {
			issues = append(issues, fmt.Sprintf("%s: unparseable share_of_production_to_africa %q", rec.ManufacturerHQ, cells[3]))
			continue
		}
		records = append(records, rec)
	}
	return records, issues, nil
}

// Run extracts the named table and derives the chart table and headline
// numbers from it.
func Run(grid [][]string, tableName string) (*Output, error) {
	records, issues, err := Extract(grid, tableName)
	if err != nil {
		return nil, err
	}
	out := &Output{Issues: issues}

	totalToWorld := 0.0
	totalSeen := false
	for _, rec := range records {
		if rec.ManufacturerHQ == totalLabel {
			totalToWorld = rec.ToWorld
			totalSeen = true
			break
		}
	}
	if !totalSeen {
		return nil, ErrTotalRowMissing
	}
	if totalToWorld == 0 {
		return nil, ErrZeroSupply
	}

	byHQ := make(map[string]Record, len(records))
	for _, rec := range records {
		if rec.ManufacturerHQ == totalLabel {
			continue
		}
		rec.ShareOfSupply = rec.ToWorld * 100 / totalToWorld
		byHQ[rec.ManufacturerHQ] = rec
	}

	// Africa first, then the published descending order. A continent
	// missing from the sheet is reported, not silently reindexed away.
	ordered := make([]Record, 0, len(desiredOrder))
	for _, hq := range desiredOrder {
		rec, ok := byHQ[hq]
		if !ok {
			out.Issues = append(out.Issues, fmt.Sprintf("continent %q missing from table %q", hq, tableName))
			continue
		}
		ordered = append(ordered, rec)
		delete(byHQ, hq)
	}
	for hq := range byHQ {
		out.Issues = append(out.Issues, fmt.Sprintf("unexpected row %q in table %q", hq, tableName))
	}
	if len(ordered) == 0 {
		return nil, ErrZeroSupply
	}

	out.Table = buildTable(ordered)

	keyNums, err := headlineNumbers(ordered)
	if err != nil {
		return nil, err
	}
	out.KeyNumbers = keyNums

	return out, nil
}

func buildTable(records []Record) export.Table {
	table := export.Table{
		Header: []string{
			"manufacturer_hq",
			"vaccines_to_world",
			"vaccines_to_africa",
			"share_of_production_to_africa",
			"share_of_global_vaccine_supply",
			"africa",
			"non_africa",
		},
	}
	for _, rec := range records {
		africa, nonAfrica := 0.0, rec.ShareOfSupply
		if rec.ManufacturerHQ == "Africa" {
			africa, nonAfrica = rec.ShareOfSupply, 0.0
		}
		table.Rows = append(table.Rows, []string{
			rec.ManufacturerHQ,
			formatCell(rec.ToWorld),
			formatCell(rec.ToAfrica),
			formatCell(rec.ShareToAfrica),
			formatCell(rec.ShareOfSupply),
			formatCell(africa),
			formatCell(nonAfrica),
		})
	}
	return table
}

func headlineNumbers(records []Record) (map[string]string, error) {
	sumToWorld, sumToAfrica := 0.0, 0.0
	byHQ := make(map[string]Record, len(records))
	for _, rec := range records {
		sumToWorld += rec.ToWorld
		sumToAfrica += rec.ToAfrica
		byHQ[rec.ManufacturerHQ] = rec
	}
	if sumToWorld == 0 || sumToAfrica == 0 {
		return nil, ErrZeroSupply
	}

	afr := byHQ["Africa"]
	if afr.ToWorld == 0 {
		return nil, fmt.Errorf("%w: Africa production row", ErrZeroSupply)
	}
	imported := (sumToAfrica - afr.ToAfrica) / sumToAfrica

	return map[string]string{
		"africa_vaccine_production_value":              keynumbers.Millions(afr.ToWorld),
		"africa_vaccine_production_share":              keynumbers.PrecisePercent(afr.ToWorld / sumToWorld),
		"asia_vaccine_production_share":                keynumbers.Percent(byHQ["Asia"].ToWorld / sumToWorld),
		"na_vaccine_production_share":                  keynumbers.Percent(byHQ["North America"].ToWorld / sumToWorld),
		"eur_vaccine_production_share":                 keynumbers.Percent(byHQ["Europe"].ToWorld / sumToWorld),
		"fold_increase_required_to_target":             keynumbers.Fold(productionTargetMillions / (afr.ToWorld / 1e6)),
		"share_of_global_vaccines_delivered_to_africa": keynumbers.Percent(sumToAfrica / sumToWorld),
		"share_of_vaccines_to_africa_imported":         keynumbers.Percent(imported),
		"share_of_vaccines_to_africa_produced_by_africa": keynumbers.Percent(1 - imported),
	}, nil
}

func cellAt(grid [][]string, row, col int) string {
	if row >= len(grid) || col >= len(grid[row]) {
		return ""
	}
	return grid[row][col]
}

func numericCell(raw string) (float64, error) {
	value, ok, err := dataset.CleanNumber(raw)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return value, nil
}

func formatCell(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
