// Package normalize converts the raw cells of a spreadsheet range into typed
// rows for the destination table.
//
// Normalization is deterministic: the same table and schema always yield the
// same snapshot, in the same order. The first cell that cannot be converted
// fails the whole table with an etl.ValidationError.
package normalize

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/sheetsync/sheets-to-mysql/etl"
)

type Normalizer struct {
	schema Schema
}

func NewNormalizer(schema Schema) (*Normalizer, error) {
	if err := schema.validate(); err != nil {
		return nil, fmt.Errorf("invalid schema (%w)", err)
	}

	return &Normalizer{
		schema: schema,
	}, nil
}

func (n *Normalizer) Schema() Schema {
	return n.schema
}

func (n *Normalizer) Normalize(table *etl.Table) (*etl.Snapshot, error) {
	if table.Empty() {
		return nil, etl.Errorf(etl.SourceEmpty, "no rows in source range")
	}

	// .. build index
	index := map[string]int{}
	for i, v := range table.Header {
		k := normalise(v)
		if k == "" {
			continue
		}

		if _, ok := index[k]; ok {
			return nil, &etl.ValidationError{Row: -1, Column: clean(v), Reason: "duplicate column name"}
		}

		index[k] = i
	}

	// ... map destination columns
	columns := make([]int, len(n.schema.Columns))
	for i, c := range n.schema.Columns {
		if ix, ok := index[normalise(header(c))]; ok {
			columns[i] = ix
		} else if c.Required {
			return nil, &etl.ValidationError{Row: -1, Column: c.Name, Reason: fmt.Sprintf("missing '%s' column", header(c))}
		} else {
			columns[i] = -1
		}
	}

	// ... records
	snapshot := etl.Snapshot{
		Table:   n.schema.Table,
		Columns: n.schema.Names(),
		Rows:    [][]any{},
	}

	for r, record := range table.Records {
		row := make([]any, len(n.schema.Columns))

		for i, c := range n.schema.Columns {
			v := ""
			if ix := columns[i]; ix >= 0 && ix < len(record.Values) {
				v = clean(record.Values[ix])
			}

			if v == "" {
				if c.Required {
					return nil, &etl.ValidationError{Row: r, Line: record.Line, Column: c.Name, Reason: "required value is empty"}
				}

				row[i] = nil
				continue
			}

			value, err := coerce(c, v)
			if err != nil {
				return nil, &etl.ValidationError{Row: r, Line: record.Line, Column: c.Name, Value: v, Reason: err.Error()}
			}

			row[i] = value
		}

		snapshot.Rows = append(snapshot.Rows, row)
	}

	return n.dedupe(table, &snapshot)
}

// dedupe drops repeated rows. With key columns a repeated key is only allowed
// if the whole row is repeated; without key columns and Dedupe set, exact
// duplicates are dropped. The first occurrence is always the one kept.
func (n *Normalizer) dedupe(table *etl.Table, snapshot *etl.Snapshot) (*etl.Snapshot, error) {
	key := []int{}

	switch {
	case len(n.schema.Key) > 0:
		for _, k := range n.schema.Key {
			for i, c := range n.schema.Columns {
				if strings.EqualFold(c.Name, k) {
					key = append(key, i)
				}
			}
		}

	case n.schema.Dedupe:
		for i := range n.schema.Columns {
			key = append(key, i)
		}

	default:
		return snapshot, nil
	}

	seen := map[string]int{}
	rows := [][]any{}

	for r, row := range snapshot.Rows {
		k := fingerprint(row, key)
		if ix, ok := seen[k]; ok {
			if len(n.schema.Key) == 0 || reflect.DeepEqual(rows[ix], row) {
				continue
			}

			values := make([]string, len(key))
			for i, c := range key {
				if row[c] != nil {
					values[i] = fmt.Sprint(row[c])
				}
			}

			record := table.Records[r]
			return nil, &etl.ValidationError{
				Row:    r,
				Line:   record.Line,
				Column: strings.Join(n.schema.Key, ","),
				Value:  strings.Join(values, ","),
				Reason: "duplicate key",
			}
		}

		seen[k] = len(rows)
		rows = append(rows, row)
	}

	snapshot.Rows = rows

	return snapshot, nil
}

// fingerprint encodes the values of the columns with their types, so that
// NULL, empty text and values of different types never collide.
func fingerprint(row []any, columns []int) string {
	var b strings.Builder

	for _, ix := range columns {
		if v := row[ix]; v == nil {
			b.WriteString("nil;")
		} else {
			fmt.Fprintf(&b, "%T:%q;", v, fmt.Sprint(v))
		}
	}

	return b.String()
}
