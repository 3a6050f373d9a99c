package xlsx

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/vsinha/fgplan/pkg/infrastructure/tables"
)

// ReadTable reads the first worksheet of a workbook. Cell values are read
// raw, so dates arrive as Excel serial numbers and numbers without display
// formatting.
func ReadTable(r io.Reader) (tables.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return tables.Table{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return tables.Table{}, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return tables.Table{}, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return tables.Table{}, fmt.Errorf("sheet %s must have a header row", sheets[0])
	}

	t := tables.Table{Header: rows[0]}
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
