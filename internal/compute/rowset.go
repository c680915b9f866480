package compute

import (
	"database/sql"
	"fmt"

	"fedsql/internal/domain"
)

// sqlRowSet adapts *sql.Rows to the domain row sequence. Rows are pulled
// lazily; the sequence is single-pass and not restartable.
type sqlRowSet struct {
	rows   *sql.Rows
	width  int
	closed bool
}

// NewRowSet wraps the given rows as a lazy RowSet with its schema.
func NewRowSet(rows *sql.Rows) (domain.Schema, domain.RowSet, error) {
	schema, err := schemaOf(rows)
	if err != nil {
		_ = rows.Close()
		return nil, nil, err
	}
	return schema, &sqlRowSet{rows: rows, width: len(schema)}, nil
}

// Next implements domain.RowSet.
func (s *sqlRowSet) Next() (domain.Row, bool, error) {
	if s.closed {
		return nil, false, nil
	}
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	vals := make([]interface{}, s.width)
	ptrs := make([]interface{}, s.width)
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := s.rows.Scan(ptrs...); err != nil {
		return nil, false, fmt.Errorf("scan row: %w", err)
	}

	// Byte slices become strings so rows serialize cleanly.
	row := make(domain.Row, s.width)
	for i, v := range vals {
		if b, ok := v.([]byte); ok {
			row[i] = string(b)
		} else {
			row[i] = v
		}
	}
	return row, true, nil
}

// Close implements domain.RowSet.
func (s *sqlRowSet) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.rows.Close()
}

// Materialize drains a query's rows eagerly, returning the schema and all
// rows. Used for direct results and local plan materialization.
func Materialize(rows *sql.Rows) (domain.Schema, []domain.Row, error) {
	schema, rs, err := NewRowSet(rows)
	if err != nil {
		return nil, nil, err
	}
	defer rs.Close()

	var out []domain.Row
	for {
		row, ok, err := rs.Next()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return schema, out, nil
		}
		out = append(out, row)
	}
}

// MaterializeLimit drains at most limit rows eagerly and closes the result.
// limit <= 0 drains none.
func MaterializeLimit(rows *sql.Rows, limit int) (domain.Schema, []domain.Row, error) {
	schema, rs, err := NewRowSet(rows)
	if err != nil {
		return nil, nil, err
	}
	defer rs.Close()

	var out []domain.Row
	for len(out) < limit {
		row, ok, err := rs.Next()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			break
		}
		out = append(out, row)
	}
	return schema, out, nil
}

// schemaOf extracts the serialized schema descriptor from result columns.
func schemaOf(rows *sql.Rows) (domain.Schema, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("result columns: %w", err)
	}
	schema := make(domain.Schema, len(types))
	for i, t := range types {
		schema[i] = domain.Column{Name: t.Name(), Type: t.DatabaseTypeName()}
	}
	return schema, nil
}
