package commands

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sheetsync/sheets-to-mysql/etl"
)

func tableToTSV(f io.Writer, table *etl.Table) error {
	if table == nil || len(table.Header) == 0 {
		return fmt.Errorf("missing/invalid header row")
	}

	w := csv.NewWriter(f)
	w.Comma = '\t'

	if err := w.Write(table.Header); err != nil {
		return err
	}

	for _, record := range table.Records {
		row := make([]string, len(table.Header))
		for i := range row {
			if i < len(record.Values) {
				row[i] = strings.TrimSpace(record.Values[i])
			}
		}

		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

// tsvToTable reads a file written by tableToTSV. The sheet row numbers are
// not kept, records are numbered from 2 and blank rows are skipped.
func tsvToTable(f io.Reader) (*etl.Table, error) {
	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	return etl.NewTable(records, 1), nil
}

// tsvFile is a source for a range previously saved by 'get'.
type tsvFile struct {
	file string
}

func (s tsvFile) String() string {
	return fmt.Sprintf("tsv:%s", s.file)
}

func (s tsvFile) Read(ctx context.Context) (*etl.Table, error) {
	f, err := os.Open(s.file)
	if err != nil {
		return nil, etl.Wrap(etl.SourceUnavailable, err, "unable to open TSV file")
	}

	defer f.Close()

	table, err := tsvToTable(f)
	if err != nil {
		return nil, etl.Wrap(etl.SourceUnavailable, err, "invalid TSV file "+s.file)
	}

	if table.Empty() {
		return nil, etl.Errorf(etl.SourceEmpty, "no data rows in %s", s.file)
	}

	return table, nil
}
