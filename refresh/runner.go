// Package refresh runs one full refresh: read the source range, normalize it
// and replace the destination table with the result.
package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sheetsync/sheets-to-mysql/etl"
	"github.com/sheetsync/sheets-to-mysql/log"
	"github.com/sheetsync/sheets-to-mysql/normalize"
	"github.com/sheetsync/sheets-to-mysql/sheets"
)

type Source interface {
	Read(ctx context.Context) (*etl.Table, error)
}

type Sink interface {
	Replace(ctx context.Context, snapshot *etl.Snapshot) (*etl.WriteResult, error)
}

// versioned sources report the revision being read.
type versioned interface {
	Revision(ctx context.Context) (*sheets.Version, error)
}

type Runner struct {
	source     Source
	normalizer *normalize.Normalizer
	sink       Sink
	timeout    time.Duration
	revision   bool
}

type Option func(*Runner)

// WithTimeout bounds the whole run.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Runner) {
		r.timeout = timeout
	}
}

// WithRevision logs the source revision at the start of a run, if the source
// has one.
func WithRevision() Option {
	return func(r *Runner) {
		r.revision = true
	}
}

// Report is the outcome of a run. Err is nil if and only if State is
// Committed.
type Report struct {
	RunID    string
	State    State
	States   []State
	Rows     int
	Deleted  int64
	Inserted int64
	Started  time.Time
	Finished time.Time
	Err      error
}

func (r Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

func NewRunner(source Source, normalizer *normalize.Normalizer, sink Sink, options ...Option) *Runner {
	runner := Runner{
		source:     source,
		normalizer: normalizer,
		sink:       sink,
	}

	for _, option := range options {
		option(&runner)
	}

	return &runner
}

// Run executes one refresh. The returned error is Report.Err, and carries an
// etl.Kind. Nothing is retried.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	run := &execution{
		Report: Report{
			RunID:   uuid.NewString(),
			State:   Idle,
			States:  []State{Idle},
			Started: time.Now(),
		},
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	log.Infof("%v  refresh started  %v", run.RunID, r.source)

	err := r.exec(ctx, run)
	if err != nil {
		run.fail(err)
	}

	run.Finished = time.Now()

	if run.Err != nil {
		log.Errorf("%v  refresh failed  %v  %v", run.RunID, etl.KindOf(run.Err), run.Err)
	} else {
		log.Infof("%v  refresh complete  deleted:%v  inserted:%v  (%v)", run.RunID, run.Deleted, run.Inserted, run.Duration().Round(time.Millisecond))
	}

	return &run.Report, run.Err
}

func (r *Runner) exec(ctx context.Context, run *execution) error {
	if err := run.transition(Reading); err != nil {
		return err
	}

	if r.revision {
		r.version(ctx, run.RunID)
	}

	table, err := r.source.Read(ctx)
	if err != nil {
		return err
	}

	log.Infof("%v  read %v rows", run.RunID, len(table.Records))

	if err := run.transition(Normalizing); err != nil {
		return err
	}

	snapshot, err := r.normalizer.Normalize(table)
	if err != nil {
		return err
	}

	run.Rows = len(snapshot.Rows)

	if err := run.transition(Writing); err != nil {
		return err
	}

	result, err := r.sink.Replace(ctx, snapshot)
	if err != nil {
		return err
	}

	run.Deleted = result.Deleted
	run.Inserted = result.Inserted

	return run.transition(Committed)
}

func (r *Runner) version(ctx context.Context, id string) {
	source, ok := r.source.(versioned)
	if !ok {
		return
	}

	if v, err := source.Revision(ctx); err != nil {
		log.Warnf("%v  unable to retrieve source revision (%v)", id, err)
	} else {
		log.Infof("%v  source revision %v  modified %v", id, v.Revision, v.Modified.Format(time.RFC3339))
	}
}

type execution struct {
	Report
}

func (r *execution) transition(to State) error {
	if err := r.State.next(to); err != nil {
		return err
	}

	log.Debugf("%v  %v -> %v", r.RunID, r.State, to)

	r.State = to
	r.States = append(r.States, to)

	return nil
}

func (r *execution) fail(err error) {
	if !r.State.Terminal() {
		if e := r.transition(RolledBack); e != nil {
			err = fmt.Errorf("%w (%v)", err, e)
		}
	}

	r.Err = err
}
