package export

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func sampleTable() Table {
	return Table{
		Header: []string{"country", "share"},
		Rows: [][]string{
			{"Nigeria", "0.667"},
			{"Kenya", "0.333"},
		},
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "shares.csv")
	if err := WriteCSV(path, sampleTable()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open written file: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0][0] != "country" || records[1][0] != "Nigeria" || records[2][1] != "0.333" {
		t.Fatalf("unexpected contents: %v", records)
	}
}

func TestWriteCSV_NoHeader(t *testing.T) {
	t.Parallel()

	err := WriteCSV(filepath.Join(t.TempDir(), "empty.csv"), Table{})
	if !errors.Is(err, ErrNoHeader) {
		t.Fatalf("expected ErrNoHeader, got %v", err)
	}
}

func TestWriteWorkbook_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "shares.xlsx")
	if err := WriteWorkbook(path, "Shares", sampleTable()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open written workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Shares")
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[1][0] != "Nigeria" {
		t.Fatalf("unexpected contents: %v", rows)
	}
}

func TestTableClone_Independent(t *testing.T) {
	t.Parallel()

	original := sampleTable()
	clone := original.Clone()
	clone.Rows[0][0] = "changed"

	if original.Rows[0][0] != "Nigeria" {
		t.Fatalf("clone shares backing storage with original")
	}
}
