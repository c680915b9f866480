package domain

import (
	"context"
	"database/sql"
)

// UserRepository looks up catalog principals by (organization, name).
type UserRepository interface {
	GetByName(ctx context.Context, org, name string) (*User, error)
}

// ProcedureRepository looks up stored procedures by (organization, name).
type ProcedureRepository interface {
	GetByName(ctx context.Context, org, name string) (*Procedure, error)
}

// TimedEventRepository looks up persisted timed event definitions.
type TimedEventRepository interface {
	GetByName(ctx context.Context, org, name string) (*TimedEventDef, error)
	Save(ctx context.Context, def *TimedEventDef) error
	SetEnabled(ctx context.Context, org, name string, enabled bool) error
}

// TableRepository resolves a table's stored data-source configuration.
type TableRepository interface {
	GetConfig(ctx context.Context, org, name string) (*TableConfig, error)
}

// GrantRepository lists a user's grants on a table.
type GrantRepository interface {
	ListGrants(ctx context.Context, user, table string) ([]Grant, error)
}

// AuthorizationGate raises a privilege-denied condition for column-select and
// table-insert operations. Denials are *AccessDeniedError values.
type AuthorizationGate interface {
	CheckSelect(ctx context.Context, user string, table string, columns []string) error
	CheckInsert(ctx context.Context, user string, table string) error
}

// Queryable executes a statement and returns its rows. Both external data
// sources and the local engine satisfy it.
type Queryable interface {
	QueryContext(ctx context.Context, query string) (*sql.Rows, error)
}

// SinkWriter is a data-source write sink parameterized by the table's stored
// configuration and the overwrite-vs-append mode.
type SinkWriter interface {
	Write(ctx context.Context, cfg *TableConfig, schema Schema, rows RowSet, mode WriteMode) error
}
