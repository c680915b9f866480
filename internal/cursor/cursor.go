// Package cursor holds the per-session pagination state for a query's result.
package cursor

import (
	"fmt"

	"fedsql/internal/domain"
)

// Cursor tracks how much of one query's result has been delivered. It is
// owned exclusively by the session runner and replaced wholesale on each new
// query; it is never patched across queries.
type Cursor struct {
	fetchSize    int
	maxRows      int
	rowsProduced int
	schema       domain.Schema
	rows         domain.RowSet

	// pending is the one-row lookahead used to decide whether more rows are
	// available without over-consuming the single-pass sequence.
	pending    domain.Row
	hasPending bool
}

// Batch is the output of one Fetch call.
type Batch struct {
	Schema  domain.Schema
	Rows    []domain.Row
	HasMore bool
}

// New initializes a cursor over a lazily-produced row sequence. Counters are
// reset to zero. The returned result is Indirect when at least one row is
// available under the current bounds, else a Direct empty result.
func New(schema domain.Schema, rows domain.RowSet, fetchSize, maxRows int) (*Cursor, *domain.QueryResult, error) {
	c := &Cursor{
		fetchSize: fetchSize,
		maxRows:   maxRows,
		schema:    schema,
		rows:      rows,
	}

	if maxRows <= 0 {
		// maxRows = 0 yields an immediate empty result regardless of the
		// sequence contents.
		_ = rows.Close()
		return c, domain.Direct(schema, nil), nil
	}

	if err := c.advance(); err != nil {
		return nil, nil, err
	}
	if !c.hasPending {
		return c, domain.Direct(schema, nil), nil
	}
	return c, domain.Indirect(schema), nil
}

// Fetch drains up to min(fetchSize, maxRows-rowsProduced) rows from the
// sequence. HasMore is recomputed from the mutable counters on every call,
// never cached.
//
// A fetchSize of zero is accepted and yields empty batches while HasMore
// stays true; callers must treat that as a misconfiguration on their side.
func (c *Cursor) Fetch() (*Batch, error) {
	if c.rows == nil {
		panic("cursor: Fetch called before initialization")
	}

	var out []domain.Row
	for c.hasPending && c.rowsProduced < c.maxRows && len(out) < c.fetchSize {
		out = append(out, c.pending)
		c.rowsProduced++
		if err := c.advance(); err != nil {
			return nil, err
		}
	}

	hasMore := c.hasPending && c.rowsProduced < c.maxRows
	if !hasMore {
		_ = c.rows.Close()
	}

	return &Batch{Schema: c.schema, Rows: out, HasMore: hasMore}, nil
}

// RowsProduced returns the monotonic count of rows delivered so far.
func (c *Cursor) RowsProduced() int { return c.rowsProduced }

// Schema returns the serialized schema descriptor of the current result.
func (c *Cursor) Schema() domain.Schema { return c.schema }

// Close releases the underlying row sequence.
func (c *Cursor) Close() error {
	if c.rows == nil {
		return nil
	}
	return c.rows.Close()
}

// advance pulls the next row into the lookahead slot.
func (c *Cursor) advance() error {
	row, ok, err := c.rows.Next()
	if err != nil {
		c.hasPending = false
		return fmt.Errorf("read row: %w", err)
	}
	c.pending = row
	c.hasPending = ok
	return nil
}
