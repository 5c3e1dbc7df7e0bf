package dataset

import (
	"errors"
	"strings"
	"testing"
)

func TestCleanNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    float64
		wantOK  bool
		wantErr bool
	}{
		{"1,234,567", 1234567, true, false},
		{" 42 ", 42, true, false},
		{"3 600", 3600, true, false},
		{"0.5", 0.5, true, false},
		{"", 0, false, false},
		{"   ", 0, false, false},
		{"n/a", 0, false, true},
	}

	for _, tc := range tests {
		got, ok, err := CleanNumber(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("CleanNumber(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if ok != tc.wantOK || got != tc.want {
			t.Errorf("CleanNumber(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

const shipmentCSV = `country,product,gavi_approval_year,gavi_business_key,gavi_non_gavi,delivery_date,total_quantity_in_doses
Nigeria,bOPV 20 dose(s),2022,BK1,GAVI,2023-01-15,"1,000,000"
Kenya,"AD-Syringe, 0.5 ml",2022,BK2,GAVI,2023-02-01,500000
Ghana,MR 10 dose(s),2022,BK3,Co-financing,2023-03-10,250000
Djibouti,YF 10 dose(s),2022,BK4,GAVI,2023-04-05,
`

func TestReadShipmentLines(t *testing.T) {
	t.Parallel()

	lines, issues, err := ReadShipmentLines(strings.NewReader(shipmentCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}

	if lines[0].Country != "Nigeria" || lines[0].Doses != 1_000_000 || lines[0].FinancingType != "GAVI" {
		t.Errorf("unexpected first line: %+v", lines[0])
	}
	if lines[1].Product != "AD-Syringe, 0.5 ml" {
		t.Errorf("quoted product mangled: %+v", lines[1])
	}
	if !lines[3].QuantityMissing {
		t.Errorf("blank quantity not flagged: %+v", lines[3])
	}
	if lines[3].Doses != 0 {
		t.Errorf("blank quantity zero-filled with %v doses kept", lines[3].Doses)
	}
}

func TestReadShipmentLines_RaggedRowExcludedAndCounted(t *testing.T) {
	t.Parallel()

	src := strings.Join([]string{
		"country,product,gavi_non_gavi,total_quantity_in_doses",
		"Nigeria,bOPV,GAVI,100",
		"Kenya,MR,GAVI",
		"Ghana,MR,GAVI,50",
		"",
	}, "\n")

	lines, issues, err := ReadShipmentLines(strings.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected the 2 well-formed lines, got %d", len(lines))
	}
	if lines[0].Country != "Nigeria" || lines[1].Country != "Ghana" {
		t.Errorf("wrong lines survived: %+v", lines)
	}
	if len(issues) != 1 || !strings.Contains(issues[0], "row 2") {
		t.Errorf("expected one issue for row 2, got %v", issues)
	}
}

func TestReadShipmentLines_UnparseableQuantity(t *testing.T) {
	t.Parallel()

	src := "country,product,gavi_non_gavi,total_quantity_in_doses\nNigeria,bOPV,GAVI,abc\n"
	lines, issues, err := ReadShipmentLines(strings.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %v", issues)
	}
	if !lines[0].QuantityMissing {
		t.Fatalf("unparseable quantity not flagged: %+v", lines[0])
	}
}

func TestReadShipmentLines_MissingColumn(t *testing.T) {
	t.Parallel()

	src := "country,product,total_quantity_in_doses\nNigeria,bOPV,100\n"
	if _, _, err := ReadShipmentLines(strings.NewReader(src)); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestReadShipmentLines_Empty(t *testing.T) {
	t.Parallel()

	if _, _, err := ReadShipmentLines(strings.NewReader("")); !errors.Is(err, ErrEmptySource) {
		t.Fatalf("expected ErrEmptySource, got %v", err)
	}
}

const demandCSV = `Year,Country,Vaccine,Total Required Supply
2024,Kenya,Measles,"1,500"
2024,India: South,Measles,2000
2030,Global Stockpile,Polio,300
bad,Kenya,Measles,100
2024,Ghana,Measles,not-a-number
`

func TestReadDemandRows(t *testing.T) {
	t.Parallel()

	rows, issues, err := ReadDemandRows(strings.NewReader(demandCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 usable rows, got %d: %+v", len(rows), rows)
	}
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %v", issues)
	}
	if rows[0].RequiredSupply != 1500 {
		t.Errorf("separator-formatted supply parsed as %v", rows[0].RequiredSupply)
	}
	if rows[1].Country != "India: South" {
		t.Errorf("country mangled: %q", rows[1].Country)
	}
}

func TestReadDemandRows_RaggedRowExcludedAndCounted(t *testing.T) {
	t.Parallel()

	src := strings.Join([]string{
		"Year,Country,Vaccine,Total Required Supply",
		"2024,Kenya,Measles,50",
		"2024,France",
		"2030,Kenya,Measles,75",
		"",
	}, "\n")

	rows, issues, err := ReadDemandRows(strings.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected the 2 well-formed rows, got %d", len(rows))
	}
	if len(issues) != 1 || !strings.Contains(issues[0], "row 2") {
		t.Errorf("expected one issue for row 2, got %v", issues)
	}
}

func TestParsePurchaseRows(t *testing.T) {
	t.Parallel()

	grid := [][]string{
		{"Region", "Income Group", "Gavi/Non-Gavi", "Country alias 2022", "Year", "Vaccine", "Annual Number of Doses"},
		{"AFR", "LIC", "Gavi", "Kenya", "2020", "Measles", "1,200"},
		{"AFR", "LIC", "Gavi", "Kenya", "n/a", "Measles", "100"},
		{"EUR", "HIC", "Non-Gavi", "France", "2021", "Polio", ""},
		{"AFR", "LMIC", "Gavi", "Ghana", "2019", "Measles", "800"},
	}

	rows, issues, err := ParsePurchaseRows(grid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 usable rows, got %d", len(rows))
	}
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %v", issues)
	}
	if rows[0].AnnualDoses != 1200 || rows[0].Year != 2020 {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
}

func TestParsePurchaseRows_MissingColumn(t *testing.T) {
	t.Parallel()

	grid := [][]string{
		{"Country alias 2022", "Year", "Vaccine", "Gavi/Non-Gavi"},
		{"Kenya", "2020", "Measles", "Gavi"},
	}
	if _, _, err := ParsePurchaseRows(grid); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}
