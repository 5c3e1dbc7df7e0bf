package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mthomas-dev/vaccine-analytics/internal/sharecalc"
)

// Column names of the Gavi shipment CSV extract, matching the standardised
// names of the published table.
const (
	shipmentColCountry   = "country"
	shipmentColProduct   = "product"
	shipmentColFinancing = "gavi_non_gavi"
	shipmentColDoses     = "total_quantity_in_doses"
)

// ReadShipmentLines decodes the Gavi shipment-line snapshot. Cells that
// should hold a quantity but do not parse are surfaced as issues and the
// line is marked QuantityMissing so the calculator reports it downstream.
func ReadShipmentLines(r io.Reader) ([]sharecalc.ShipmentLine, []string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, ErrEmptySource
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	idx, err := columnIndex(header, shipmentColCountry, shipmentColProduct, shipmentColFinancing, shipmentColDoses)
	if err != nil {
		return nil, nil, err
	}

	var (
		lines  []sharecalc.ShipmentLine
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

		line := sharecalc.ShipmentLine{
			Country:       strings.TrimSpace(record[idx[shipmentColCountry]]),
			Product:       strings.TrimSpace(record[idx[shipmentColProduct]]),
			FinancingType: strings.TrimSpace(record[idx[shipmentColFinancing]]),
		}

		doses, ok, parseErr := CleanNumber(record[idx[shipmentColDoses]])
		if parseErr != nil {
			issues = append(issues, fmt.Sprintf("row %d: unparseable dose quantity %q", row, record[idx[shipmentColDoses]]))
			line.QuantityMissing = true
		} else if !ok {
			line.QuantityMissing = true
		} else {
			line.Doses = doses
		}

		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return nil, nil, ErrEmptySource
	}
	return lines, issues, nil
}

// columnIndex resolves required column names to their positions in the
// header row. Matching is exact after trimming whitespace.
func columnIndex(header []string, required ...string) (map[string]int, error) {
	idx := make(map[string]int, len(required))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}
	return idx, nil
}
