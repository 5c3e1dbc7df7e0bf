package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Column names of the Vaccine Almanac "Demand: Total Required Supply by
// Country" export.
const (
	demandColYear    = "Year"
	demandColCountry = "Country"
	demandColVaccine = "Vaccine"
	demandColSupply  = "Total Required Supply"
)

// DemandRow is one row of the vaccine demand snapshot.
type DemandRow struct {
	Year           int
	Country        string
	Vaccine        string
	RequiredSupply float64
}

// ReadDemandRows decodes the demand snapshot. Rows with an unparseable year
// or supply value are skipped and reported as issues.
func ReadDemandRows(r io.Reader) ([]DemandRow, []string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, ErrEmptySource
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	idx, err := columnIndex(header, demandColYear, demandColCountry, demandColVaccine, demandColSupply)
	if err != nil {
		return nil, nil, err
	}

	var (
		rows   []DemandRow
		issues []string
	)
	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if errors.Is(err, csv.ErrFieldCount) {
			issues = append(issues, fmt.Sprintf("row %d: wrong number of fields", row))
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row %d: %w", row, err)
		}

		year, err := strconv.Atoi(strings.TrimSpace(record[idx[demandColYear]]))
		if err != nil {
			issues = append(issues, fmt.Sprintf("row %d: unparseable year %q", row, record[idx[demandColYear]]))
			continue
		}

		supply, ok, err := CleanNumber(record[idx[demandColSupply]])
		if err != nil || !ok {
			issues = append(issues, fmt.Sprintf("row %d: unparseable required supply %q", row, record[idx[demandColSupply]]))
			continue
		}

		rows = append(rows, DemandRow{
			Year:           year,
			Country:        strings.TrimSpace(record[idx[demandColCountry]]),
			Vaccine:        strings.TrimSpace(record[idx[demandColVaccine]]),
			RequiredSupply: supply,
		})
	}

	if len(rows) == 0 {
		return nil, nil, ErrEmptySource
	}
	return rows, issues, nil
}
