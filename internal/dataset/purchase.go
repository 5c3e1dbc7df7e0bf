package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// Column names of the MI4A public database "Vaccine Purchase Data" sheet.
const (
	purchaseColCountry    = "Country alias 2022"
	purchaseColYear       = "Year"
	purchaseColVaccine    = "Vaccine"
	purchaseColGaviStatus = "Gavi/Non-Gavi"
	purchaseColDoses      = "Annual Number of Doses"
)

// PurchaseRow is one procurement record of the MI4A purchase database.
type PurchaseRow struct {
	Country     string
	Year        int
	Vaccine     string
	GaviStatus  string
	AnnualDoses float64
}

// ParsePurchaseRows maps the raw sheet grid onto typed purchase records.
// The first row is the header; rows with unusable year or dose cells are
// skipped and reported.
func ParsePurchaseRows(grid [][]string) ([]PurchaseRow, []string, error) {
	if len(grid) < 2 {
		return nil, nil, ErrEmptySource
	}

	idx, err := columnIndex(grid[0], purchaseColCountry, purchaseColYear, purchaseColVaccine, purchaseColGaviStatus, purchaseColDoses)
	if err != nil {
		return nil, nil, err
	}

	var (
		rows   []PurchaseRow
		issues []string
	)
	for i, record := range grid[1:] {
		row := i + 1
		cell := func(name string) string {
			if idx[name] >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx[name]])
		}

		year, err := strconv.Atoi(cell(purchaseColYear))
		if err != nil {
			issues = append(issues, fmt.Sprintf("row %d: unparseable year %q", row, cell(purchaseColYear)))
			continue
		}

		doses, ok, err := CleanNumber(cell(purchaseColDoses))
		if err != nil || !ok {
			issues = append(issues, fmt.Sprintf("row %d: unparseable annual doses %q", row, cell(purchaseColDoses)))
			continue
		}

		rows = append(rows, PurchaseRow{
			Country:     cell(purchaseColCountry),
			Year:        year,
			Vaccine:     cell(purchaseColVaccine),
			GaviStatus:  cell(purchaseColGaviStatus),
			AnnualDoses: doses,
		})
	}

	if len(rows) == 0 {
		return nil, nil, ErrEmptySource
	}
	return rows, issues, nil
}
