package dataset

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ReadWorkbookRows loads one sheet of an xlsx workbook as a string grid.
// Cell formatting is resolved to display values, matching what the upstream
// analysts see in the spreadsheet.
func ReadWorkbookRows(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptySource
	}
	return rows, nil
}
