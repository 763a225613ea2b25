// Package mysql replaces the contents of the destination table with a
// snapshot, atomically.
package mysql

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/sheetsync/sheets-to-mysql/etl"
	"github.com/sheetsync/sheets-to-mysql/log"
)

const (
	DefaultBatchSize = 500

	// MySQL prepared statements are limited to 65535 placeholders
	maxPlaceholders = 65535
)

type Writer struct {
	db        *sqlx.DB
	batchSize int
}

func NewWriter(db *sqlx.DB, batchSize int) *Writer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &Writer{
		db:        db,
		batchSize: batchSize,
	}
}

// Replace deletes every row in the snapshot table and inserts the snapshot
// rows in a single transaction. On any error the transaction is rolled back
// and the table keeps its previous contents.
//
// DELETE is used rather than TRUNCATE because TRUNCATE is DDL in MySQL and
// commits implicitly.
func (w *Writer) Replace(ctx context.Context, snapshot *etl.Snapshot) (*etl.WriteResult, error) {
	if snapshot == nil || strings.TrimSpace(snapshot.Table) == "" {
		return nil, etl.Errorf(etl.WriteFailed, "missing destination table")
	}

	if len(snapshot.Columns) == 0 {
		return nil, etl.Errorf(etl.WriteFailed, "no columns for table '%s'", snapshot.Table)
	}

	for i, row := range snapshot.Rows {
		if len(row) != len(snapshot.Columns) {
			return nil, etl.Errorf(etl.WriteFailed, "row %d has %d values, expected %d", i, len(row), len(snapshot.Columns))
		}
	}

	tx, err := w.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, etl.Wrap(etl.WriteFailed, err, "failed to begin transaction")
	}

	defer tx.Rollback() // no-op after commit

	result := etl.WriteResult{}
	table := quote(snapshot.Table)

	deleted, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table))
	if err != nil {
		return nil, etl.Wrap(etl.WriteFailed, err, fmt.Sprintf("failed to delete rows from %s", table))
	}

	if result.Deleted, err = deleted.RowsAffected(); err != nil {
		return nil, etl.Wrap(etl.WriteFailed, err, "failed to count deleted rows")
	}

	log.Debugf("%v  deleted %v rows", snapshot.Table, result.Deleted)

	batch := w.batch(len(snapshot.Columns))
	for start := 0; start < len(snapshot.Rows); start += batch {
		end := min(start+batch, len(snapshot.Rows))
		rows := snapshot.Rows[start:end]

		query, args := insert(table, snapshot.Columns, rows)
		inserted, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
		if err != nil {
			return nil, etl.Wrap(etl.WriteFailed, err, fmt.Sprintf("failed to insert rows %d-%d into %s", start, end-1, table))
		}

		if n, err := inserted.RowsAffected(); err != nil {
			return nil, etl.Wrap(etl.WriteFailed, err, "failed to count inserted rows")
		} else if n != int64(len(rows)) {
			return nil, etl.Errorf(etl.WriteFailed, "inserted %d of %d rows %d-%d into %s", n, len(rows), start, end-1, table)
		} else {
			result.Inserted += n
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, etl.Wrap(etl.WriteFailed, err, "failed to commit transaction")
	}

	return &result, nil
}

// Count returns the number of rows in a table.
func (w *Writer) Count(ctx context.Context, table string) (int64, error) {
	var count int64

	if err := w.db.GetContext(ctx, &count, fmt.Sprintf("SELECT COUNT(*) FROM %s", quote(table))); err != nil {
		return 0, err
	}

	return count, nil
}

func (w *Writer) batch(columns int) int {
	if columns*w.batchSize > maxPlaceholders {
		return maxPlaceholders / columns
	}

	return w.batchSize
}

func insert(table string, columns []string, rows [][]any) (string, []any) {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = ident(c)
	}

	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",") + ")"
	values := make([]string, len(rows))
	args := make([]any, 0, len(rows)*len(columns))

	for i, row := range rows {
		values[i] = placeholders
		args = append(args, row...)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, strings.Join(names, ","), strings.Join(values, ","))

	return query, args
}

// quote returns a backtick quoted table name. A dotted name is treated as
// database.table.
func quote(table string) string {
	parts := strings.Split(strings.TrimSpace(table), ".")
	for i, p := range parts {
		parts[i] = ident(p)
	}

	return strings.Join(parts, ".")
}

func ident(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
