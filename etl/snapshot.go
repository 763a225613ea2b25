package etl

// Snapshot is the complete normalized content for the destination table
// produced by a single run. Values in each row are aligned with Columns and are
// one of nil, string, int64, float64, bool or time.Time.
type Snapshot struct {
	Table   string
	Columns []string
	Rows    [][]any
}

// WriteResult summarises a committed snapshot replace.
type WriteResult struct {
	Deleted  int64
	Inserted int64
}
