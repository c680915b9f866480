package compute

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"fedsql/internal/domain"
)

var _ domain.Queryable = (*LocalEngine)(nil)

// LocalEngine executes plans that are not pushed down. It wraps an embedded
// DuckDB instance with external sources attached, and owns the session-scoped
// temp view registry.
type LocalEngine struct {
	db *sql.DB

	mu    sync.RWMutex
	views map[string]viewDef
}

type viewDef struct {
	query  string
	cached bool
}

// NewLocalEngine wraps an embedded engine connection.
func NewLocalEngine(db *sql.DB) *LocalEngine {
	return &LocalEngine{db: db, views: make(map[string]viewDef)}
}

// QueryContext implements domain.Queryable against the local engine.
func (e *LocalEngine) QueryContext(ctx context.Context, query string) (*sql.Rows, error) {
	return e.db.QueryContext(ctx, query)
}

// ExecContext runs a statement without result rows on the local engine.
func (e *LocalEngine) ExecContext(ctx context.Context, query string) error {
	_, err := e.db.ExecContext(ctx, query)
	return err
}

// Attach makes an external source's data reachable from local plans under
// the source's name.
func (e *LocalEngine) Attach(ctx context.Context, name, path string) error {
	stmt := fmt.Sprintf("ATTACH IF NOT EXISTS '%s' AS %s", path, quoteIdent(name))
	if _, err := e.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("attach source %q: %w", name, err)
	}
	return nil
}

// RegisterView registers a temp view over a query plan under the given name.
// When replace is false and a view of that name already exists, it fails with
// a conflict; otherwise the existing definition is silently replaced. cache
// marks the view's result for caching.
func (e *LocalEngine) RegisterView(ctx context.Context, name, query string, replace, cache bool) error {
	key := strings.ToLower(name)

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.views[key]; exists && !replace {
		return domain.ErrConflict("temp view %q already exists", name)
	}

	stmt := fmt.Sprintf("CREATE OR REPLACE TEMP VIEW %s AS %s", quoteIdent(name), query)
	if _, err := e.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("register view %q: %w", name, err)
	}

	e.views[key] = viewDef{query: query, cached: cache}
	return nil
}

// HasView reports whether a temp view is registered under the given name.
func (e *LocalEngine) HasView(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.views[strings.ToLower(name)]
	return ok
}

// Close closes the underlying engine connection.
func (e *LocalEngine) Close() error {
	return e.db.Close()
}

// quoteIdent double-quotes an identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
