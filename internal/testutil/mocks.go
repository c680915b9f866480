// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"

	"fedsql/internal/domain"
)

// === User Repository Mock ===

// MockUserRepo implements domain.UserRepository for testing.
type MockUserRepo struct {
	GetByNameFn func(ctx context.Context, org, name string) (*domain.User, error)
}

// GetByName implements the interface method for testing.
func (m *MockUserRepo) GetByName(ctx context.Context, org, name string) (*domain.User, error) {
	if m.GetByNameFn != nil {
		return m.GetByNameFn(ctx, org, name)
	}
	panic("unexpected call to MockUserRepo.GetByName")
}

var _ domain.UserRepository = (*MockUserRepo)(nil)

// === Procedure Repository Mock ===

// MockProcedureRepo implements domain.ProcedureRepository for testing.
type MockProcedureRepo struct {
	GetByNameFn func(ctx context.Context, org, name string) (*domain.Procedure, error)
}

// GetByName implements the interface method for testing.
func (m *MockProcedureRepo) GetByName(ctx context.Context, org, name string) (*domain.Procedure, error) {
	if m.GetByNameFn != nil {
		return m.GetByNameFn(ctx, org, name)
	}
	panic("unexpected call to MockProcedureRepo.GetByName")
}

var _ domain.ProcedureRepository = (*MockProcedureRepo)(nil)

// === Timed Event Repository Mock ===

// MockTimedEventRepo implements domain.TimedEventRepository for testing.
// Saved definitions are collected for assertions.
type MockTimedEventRepo struct {
	GetByNameFn  func(ctx context.Context, org, name string) (*domain.TimedEventDef, error)
	SaveFn       func(ctx context.Context, def *domain.TimedEventDef) error
	SetEnabledFn func(ctx context.Context, org, name string, enabled bool) error
	Saved        []*domain.TimedEventDef
}

// GetByName implements the interface method for testing.
func (m *MockTimedEventRepo) GetByName(ctx context.Context, org, name string) (*domain.TimedEventDef, error) {
	if m.GetByNameFn != nil {
		return m.GetByNameFn(ctx, org, name)
	}
	panic("unexpected call to MockTimedEventRepo.GetByName")
}

// Save implements the interface method for testing.
func (m *MockTimedEventRepo) Save(ctx context.Context, def *domain.TimedEventDef) error {
	if m.SaveFn != nil {
		if err := m.SaveFn(ctx, def); err != nil {
			return err
		}
	}
	m.Saved = append(m.Saved, def)
	return nil
}

// SetEnabled implements the interface method for testing.
func (m *MockTimedEventRepo) SetEnabled(ctx context.Context, org, name string, enabled bool) error {
	if m.SetEnabledFn != nil {
		return m.SetEnabledFn(ctx, org, name, enabled)
	}
	return nil
}

var _ domain.TimedEventRepository = (*MockTimedEventRepo)(nil)

// === Table Repository Mock ===

// MockTableRepo implements domain.TableRepository for testing.
type MockTableRepo struct {
	GetConfigFn func(ctx context.Context, org, name string) (*domain.TableConfig, error)
}

// GetConfig implements the interface method for testing.
func (m *MockTableRepo) GetConfig(ctx context.Context, org, name string) (*domain.TableConfig, error) {
	if m.GetConfigFn != nil {
		return m.GetConfigFn(ctx, org, name)
	}
	panic("unexpected call to MockTableRepo.GetConfig")
}

var _ domain.TableRepository = (*MockTableRepo)(nil)

// === Grant Repository Mock ===

// MockGrantRepo implements domain.GrantRepository for testing.
type MockGrantRepo struct {
	ListGrantsFn func(ctx context.Context, user, table string) ([]domain.Grant, error)
}

// ListGrants implements the interface method for testing.
func (m *MockGrantRepo) ListGrants(ctx context.Context, user, table string) ([]domain.Grant, error) {
	if m.ListGrantsFn != nil {
		return m.ListGrantsFn(ctx, user, table)
	}
	panic("unexpected call to MockGrantRepo.ListGrants")
}

var _ domain.GrantRepository = (*MockGrantRepo)(nil)

// === Authorization Gate Mock ===

// MockAuthzGate implements domain.AuthorizationGate for testing. The zero
// value allows everything; set the Fn fields to inject denials. Calls are
// collected for assertions.
type MockAuthzGate struct {
	CheckSelectFn func(ctx context.Context, user, table string, columns []string) error
	CheckInsertFn func(ctx context.Context, user, table string) error

	SelectChecks []string // table names, in call order
	InsertChecks []string
}

// CheckSelect implements the interface method for testing.
func (m *MockAuthzGate) CheckSelect(ctx context.Context, user, table string, columns []string) error {
	m.SelectChecks = append(m.SelectChecks, table)
	if m.CheckSelectFn != nil {
		return m.CheckSelectFn(ctx, user, table, columns)
	}
	return nil
}

// CheckInsert implements the interface method for testing.
func (m *MockAuthzGate) CheckInsert(ctx context.Context, user, table string) error {
	m.InsertChecks = append(m.InsertChecks, table)
	if m.CheckInsertFn != nil {
		return m.CheckInsertFn(ctx, user, table)
	}
	return nil
}

var _ domain.AuthorizationGate = (*MockAuthzGate)(nil)

// === Sink Writer Mock ===

// WriteCall records one sink write for assertions.
type WriteCall struct {
	Config *domain.TableConfig
	Schema domain.Schema
	Rows   []domain.Row
	Mode   domain.WriteMode
}

// MockSink implements domain.SinkWriter for testing. Written rows are
// drained eagerly and collected.
type MockSink struct {
	WriteFn func(ctx context.Context, cfg *domain.TableConfig, schema domain.Schema, rows domain.RowSet, mode domain.WriteMode) error
	Writes  []WriteCall
}

// Write implements the interface method for testing.
func (m *MockSink) Write(ctx context.Context, cfg *domain.TableConfig, schema domain.Schema, rows domain.RowSet, mode domain.WriteMode) error {
	if m.WriteFn != nil {
		return m.WriteFn(ctx, cfg, schema, rows, mode)
	}
	var drained []domain.Row
	defer rows.Close()
	for {
		row, ok, err := rows.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		drained = append(drained, row)
	}
	m.Writes = append(m.Writes, WriteCall{Config: cfg, Schema: schema, Rows: drained, Mode: mode})
	return nil
}

var _ domain.SinkWriter = (*MockSink)(nil)

// === Event Registrar Mock ===

// MockRegistrar records coordinator register/unregister calls for testing.
type MockRegistrar struct {
	RegisterFn   func(ctx context.Context, ev *domain.TimedEvent) error
	UnregisterFn func(ctx context.Context, group, name string) error

	Registered   []*domain.TimedEvent
	Unregistered []string // "group/name"
}

// Register implements the interface method for testing.
func (m *MockRegistrar) Register(ctx context.Context, ev *domain.TimedEvent) error {
	if m.RegisterFn != nil {
		if err := m.RegisterFn(ctx, ev); err != nil {
			return err
		}
	}
	m.Registered = append(m.Registered, ev)
	return nil
}

// Unregister implements the interface method for testing.
func (m *MockRegistrar) Unregister(ctx context.Context, group, name string) error {
	if m.UnregisterFn != nil {
		if err := m.UnregisterFn(ctx, group, name); err != nil {
			return err
		}
	}
	m.Unregistered = append(m.Unregistered, group+"/"+name)
	return nil
}

// === Statement Runner Mock ===

// MockStatementRunner records statement batches executed for timed events.
type MockStatementRunner struct {
	RunStatementsFn func(ctx context.Context, statements []string) (*domain.QueryResult, error)
	Batches         [][]string
}

// RunStatements implements the interface method for testing.
func (m *MockStatementRunner) RunStatements(ctx context.Context, statements []string) (*domain.QueryResult, error) {
	m.Batches = append(m.Batches, statements)
	if m.RunStatementsFn != nil {
		return m.RunStatementsFn(ctx, statements)
	}
	return domain.Direct(nil, nil), nil
}
