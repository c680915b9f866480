package domain

import "encoding/json"

// ResultKind distinguishes fully materialized results from cursor-backed ones.
type ResultKind string

const (
	// ResultDirect means the result is fully materialized and no fetch is
	// needed.
	ResultDirect ResultKind = "DIRECT"
	// ResultIndirect means the result exists behind the session's cursor and
	// the caller must fetch.
	ResultIndirect ResultKind = "INDIRECT"
)

// Column describes one output column of a query.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Schema is the ordered column descriptor list of a result.
type Schema []Column

// JSON returns the serialized schema descriptor.
func (s Schema) JSON() string {
	if len(s) == 0 {
		return "[]"
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// Row is one output row.
type Row []interface{}

// QueryResult is the single result returned per query call, corresponding to
// the last statement of the batch.
type QueryResult struct {
	Kind   ResultKind
	Schema Schema
	Rows   []Row // populated only for ResultDirect
}

// Direct builds a fully materialized result.
func Direct(schema Schema, rows []Row) *QueryResult {
	return &QueryResult{Kind: ResultDirect, Schema: schema, Rows: rows}
}

// Indirect builds a cursor-backed result.
func Indirect(schema Schema) *QueryResult {
	return &QueryResult{Kind: ResultIndirect, Schema: schema}
}
