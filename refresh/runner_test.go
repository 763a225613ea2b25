package refresh

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/sheetsync/sheets-to-mysql/etl"
	"github.com/sheetsync/sheets-to-mysql/mysql"
	"github.com/sheetsync/sheets-to-mysql/normalize"
	"github.com/sheetsync/sheets-to-mysql/sheets"
)

var schema = normalize.Schema{
	Table: "sales",
	Columns: []normalize.Column{
		{Name: "id", Type: normalize.Integer, Required: true},
		{Name: "name", Header: "Nombre Cliente", Type: normalize.String},
		{Name: "amount", Header: "importe_EUR", Type: normalize.Decimal, Scale: 2},
	},
}

type source struct {
	rows     [][]string
	err      error
	revision *sheets.Version
	reads    int
}

func (s *source) Read(ctx context.Context) (*etl.Table, error) {
	s.reads++

	if s.err != nil {
		return nil, s.err
	}

	table := etl.NewTable(s.rows, 1)
	if table.Empty() {
		return nil, etl.Errorf(etl.SourceEmpty, "no data rows")
	}

	return table, nil
}

type versionedSource struct {
	source
	calls int
}

func (s *versionedSource) Revision(ctx context.Context) (*sheets.Version, error) {
	s.calls++

	if s.revision == nil {
		return nil, errors.New("no revisions")
	}

	return s.revision, nil
}

type sink struct {
	snapshots []*etl.Snapshot
	err       error
}

func (s *sink) Replace(ctx context.Context, snapshot *etl.Snapshot) (*etl.WriteResult, error) {
	if s.err != nil {
		return nil, s.err
	}

	s.snapshots = append(s.snapshots, snapshot)

	return &etl.WriteResult{Deleted: 10, Inserted: int64(len(snapshot.Rows))}, nil
}

func normalizer(t *testing.T) *normalize.Normalizer {
	n, err := normalize.NewNormalizer(schema)
	require.NoError(t, err)

	return n
}

func rows(n int) [][]string {
	rows := [][]string{{"ID", "Nombre Cliente", "importe_EUR"}}
	for i := 1; i <= n; i++ {
		rows = append(rows, []string{fmt.Sprintf("%d", i), fmt.Sprintf("client %d", i), fmt.Sprintf("%d.50", 10*i)})
	}

	return rows
}

func TestRun(t *testing.T) {
	src := source{rows: rows(5)}
	dst := sink{}

	report, err := NewRunner(&src, normalizer(t), &dst).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Committed, report.State)
	assert.Equal(t, []State{Idle, Reading, Normalizing, Writing, Committed}, report.States)
	assert.Equal(t, 5, report.Rows)
	assert.Equal(t, int64(10), report.Deleted)
	assert.Equal(t, int64(5), report.Inserted)
	assert.NotEmpty(t, report.RunID)
	assert.False(t, report.Finished.Before(report.Started))
	assert.NoError(t, report.Err)

	require.Len(t, dst.snapshots, 1)
	assert.Equal(t, []any{int64(1), "client 1", 10.5}, dst.snapshots[0].Rows[0])
}

func TestRunIDsAreUnique(t *testing.T) {
	runner := NewRunner(&source{rows: rows(1)}, normalizer(t), &sink{})

	r1, err := runner.Run(context.Background())
	require.NoError(t, err)

	r2, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, r1.RunID, r2.RunID)
}

func TestRunFailures(t *testing.T) {
	invalid := rows(3)
	invalid[2][2] = "twelve"

	tests := []struct {
		name   string
		source *source
		sink   *sink
		kind   etl.Kind
		states []State
	}{
		{
			name:   "source unavailable",
			source: &source{err: etl.Errorf(etl.SourceUnavailable, "quota exceeded")},
			sink:   &sink{},
			kind:   etl.SourceUnavailable,
			states: []State{Idle, Reading, RolledBack},
		},
		{
			name:   "source empty",
			source: &source{rows: rows(0)},
			sink:   &sink{},
			kind:   etl.SourceEmpty,
			states: []State{Idle, Reading, RolledBack},
		},
		{
			name:   "invalid value",
			source: &source{rows: invalid},
			sink:   &sink{},
			kind:   etl.Validation,
			states: []State{Idle, Reading, Normalizing, RolledBack},
		},
		{
			name:   "write failed",
			source: &source{rows: rows(3)},
			sink:   &sink{err: etl.Errorf(etl.WriteFailed, "deadlock")},
			kind:   etl.WriteFailed,
			states: []State{Idle, Reading, Normalizing, Writing, RolledBack},
		},
	}

	for _, test := range tests {
		report, err := NewRunner(test.source, normalizer(t), test.sink).Run(context.Background())

		assert.Equal(t, test.kind, etl.KindOf(err), test.name)
		assert.Equal(t, RolledBack, report.State, test.name)
		assert.Equal(t, test.states, report.States, test.name)
		assert.Equal(t, err, report.Err, test.name)
		assert.Empty(t, test.sink.snapshots, test.name)
	}
}

func TestRunWithInvalidValueIdentifiesCell(t *testing.T) {
	invalid := rows(3)
	invalid[2][2] = "twelve"

	_, err := NewRunner(&source{rows: invalid}, normalizer(t), &sink{}).Run(context.Background())

	var verr *etl.ValidationError
	require.ErrorAs(t, err, &verr)

	assert.Equal(t, 1, verr.Row)
	assert.Equal(t, 3, verr.Line)
	assert.Equal(t, "amount", verr.Column)
	assert.Equal(t, "twelve", verr.Value)
}

func TestRunWithRevision(t *testing.T) {
	src := versionedSource{
		source: source{
			rows:     rows(2),
			revision: &sheets.Version{Revision: "103", Modified: time.Date(2025, time.January, 10, 11, 0, 0, 0, time.UTC)},
		},
	}

	_, err := NewRunner(&src, normalizer(t), &sink{}, WithRevision()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)

	// a failed revision lookup is only logged
	src.revision = nil

	_, err = NewRunner(&src, normalizer(t), &sink{}, WithRevision()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)

	_, err = NewRunner(&src, normalizer(t), &sink{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestRunWithTimeout(t *testing.T) {
	dst := deadline{}

	_, err := NewRunner(&source{rows: rows(1)}, normalizer(t), &dst, WithTimeout(time.Hour)).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, dst.ok)
}

type deadline struct {
	ok bool
}

func (d *deadline) Replace(ctx context.Context, snapshot *etl.Snapshot) (*etl.WriteResult, error) {
	_, d.ok = ctx.Deadline()

	return &etl.WriteResult{Inserted: int64(len(snapshot.Rows))}, nil
}

func TestStateTransitions(t *testing.T) {
	assert.NoError(t, Idle.next(Reading))
	assert.NoError(t, Writing.next(Committed))
	assert.NoError(t, Normalizing.next(RolledBack))
	assert.Error(t, Idle.next(Writing))
	assert.Error(t, Committed.next(RolledBack))
	assert.Error(t, RolledBack.next(Reading))
	assert.Equal(t, "Normalizing", Normalizing.String())
	assert.Equal(t, "State(9)", State(9).String())
}

// End to end against an embedded SQL database.

type row struct {
	ID     int64    `db:"id"`
	Name   *string  `db:"name"`
	Amount *float64 `db:"amount"`
}

func database(t *testing.T, n int) *sqlx.DB {
	db, err := sqlx.Open("sqlite", filepath.Join(t.TempDir(), "analytics.db"))
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	db.MustExec("CREATE TABLE `sales` (`id` INTEGER NOT NULL, `name` TEXT, `amount` REAL)")
	for i := 0; i < n; i++ {
		db.MustExec("INSERT INTO `sales` VALUES (?,?,?)", 1000+i, "prior", 1.0)
	}

	return db
}

func contents(t *testing.T, db *sqlx.DB) []row {
	list := []row{}
	require.NoError(t, db.Select(&list, "SELECT `id`,`name`,`amount` FROM `sales` ORDER BY `id`"))

	return list
}

func TestRefreshReplacesTable(t *testing.T) {
	db := database(t, 10)
	runner := NewRunner(&source{rows: rows(5)}, normalizer(t), mysql.NewWriter(db, 2))

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(10), report.Deleted)
	assert.Equal(t, int64(5), report.Inserted)

	list := contents(t, db)
	require.Len(t, list, 5)

	for i, r := range list {
		assert.Equal(t, int64(i+1), r.ID)
		assert.Equal(t, fmt.Sprintf("client %d", i+1), *r.Name)
		assert.Equal(t, float64(10*(i+1))+0.5, *r.Amount)
	}
}

func TestRefreshIsIdempotent(t *testing.T) {
	db := database(t, 10)
	runner := NewRunner(&source{rows: rows(5)}, normalizer(t), mysql.NewWriter(db, 0))

	_, err := runner.Run(context.Background())
	require.NoError(t, err)

	once := contents(t, db)

	_, err = runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, once, contents(t, db))
}

func TestRefreshLeavesTableUntouchedOnFailure(t *testing.T) {
	invalid := rows(3)
	invalid[2][2] = "twelve"

	tests := map[string][][]string{
		"invalid numeric": invalid,
		"no rows":         rows(0),
	}

	for name, rows := range tests {
		db := database(t, 10)
		before := contents(t, db)

		_, err := NewRunner(&source{rows: rows}, normalizer(t), mysql.NewWriter(db, 0)).Run(context.Background())

		assert.Error(t, err, name)
		assert.Equal(t, before, contents(t, db), name)
	}
}
