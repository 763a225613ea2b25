package etl

import (
	"strings"
)

// Table is the raw content of a spreadsheet range: the header row followed by
// the data records, all as cell text.
type Table struct {
	Header  []string
	Records []Record
}

// Record is a single data row from the source. Line is the 1-based row number
// in the worksheet, used when reporting errors back to whoever maintains the
// sheet.
type Record struct {
	Line   int
	Values []string
}

// NewTable builds a Table from raw rows. The first row is the header. Data
// rows are padded (or truncated) to the header width and fully blank rows are
// dropped. first is the worksheet row number of the header row.
func NewTable(rows [][]string, first int) *Table {
	if len(rows) == 0 {
		return &Table{}
	}

	header := make([]string, len(rows[0]))
	for i, v := range rows[0] {
		header[i] = strings.TrimSpace(v)
	}

	table := Table{
		Header:  header,
		Records: []Record{},
	}

	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}

		values := make([]string, len(header))
		copy(values, row)

		table.Records = append(table.Records, Record{
			Line:   first + i + 1,
			Values: values,
		})
	}

	return &table
}

// Empty returns true if the table has no data records.
func (t *Table) Empty() bool {
	return t == nil || len(t.Records) == 0
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}

	return true
}
