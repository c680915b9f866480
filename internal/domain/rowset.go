package domain

// RowSet is a finite, single-pass, non-restartable row sequence. It is
// produced lazily by executors and drained by the session cursor.
type RowSet interface {
	// Next returns the next row. ok is false when the sequence is exhausted
	// or an error occurred; err carries the failure, if any.
	Next() (row Row, ok bool, err error)

	// Close releases the underlying resources. Safe to call more than once.
	Close() error
}

// SliceRowSet is a RowSet over an in-memory slice of rows.
type SliceRowSet struct {
	rows []Row
	pos  int
}

// NewSliceRowSet wraps materialized rows as a RowSet.
func NewSliceRowSet(rows []Row) *SliceRowSet {
	return &SliceRowSet{rows: rows}
}

// Next implements RowSet.
func (s *SliceRowSet) Next() (Row, bool, error) {
	if s.pos >= len(s.rows) {
		return nil, false, nil
	}
	row := s.rows[s.pos]
	s.pos++
	return row, true, nil
}

// Close implements RowSet.
func (s *SliceRowSet) Close() error {
	s.pos = len(s.rows)
	return nil
}
