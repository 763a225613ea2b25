// Package workbook reads the source range from an exported .xlsx workbook, so
// that a run can be reproduced without access to the live spreadsheet.
package workbook

import (
	"context"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/sheetsync/sheets-to-mysql/etl"
)

type Reader struct {
	file  string
	sheet string
}

// NewReader returns a reader for a worksheet in a workbook file. An empty
// worksheet name selects the first worksheet.
func NewReader(file string, sheet string) *Reader {
	return &Reader{
		file:  file,
		sheet: sheet,
	}
}

func (r *Reader) String() string {
	return fmt.Sprintf("workbook:%s  sheet:%s", r.file, r.sheet)
}

func (r *Reader) Read(ctx context.Context) (*etl.Table, error) {
	if _, err := os.Stat(r.file); err != nil {
		return nil, etl.Wrap(etl.SourceUnavailable, err, "unable to open workbook")
	}

	f, err := excelize.OpenFile(r.file)
	if err != nil {
		return nil, etl.Wrap(etl.SourceUnavailable, err, "unable to open workbook")
	}

	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, etl.Errorf(etl.SourceEmpty, "workbook %s has no worksheets", r.file)
		}

		sheet = list[0]
	}

	if err := ctx.Err(); err != nil {
		return nil, etl.Wrap(etl.SourceUnavailable, err, "read cancelled")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, etl.Wrap(etl.SourceUnavailable, err, fmt.Sprintf("unable to read worksheet '%s'", sheet))
	}

	// skip leading blank rows so that Line matches the worksheet row number
	first := 1
	for len(rows) > 0 && blank(rows[0]) {
		rows = rows[1:]
		first++
	}

	table := etl.NewTable(rows, first)
	if table.Empty() {
		return nil, etl.Errorf(etl.SourceEmpty, "no data in worksheet '%s'", sheet)
	}

	return table, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}

	return true
}
