// Package compute provides the queryable data sources of the gateway: the
// registry of external sources a plan can be pushed down to, and the local
// engine that executes everything else.
package compute

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"fedsql/internal/domain"
)

// Source is one external queryable data source.
type Source struct {
	Name string
	Type string // driver type tag, e.g. "duckdb"
	DB   *sql.DB
}

// QueryContext implements domain.Queryable.
func (s *Source) QueryContext(ctx context.Context, query string) (*sql.Rows, error) {
	return s.DB.QueryContext(ctx, query)
}

// Registry holds the external sources registered with the gateway, keyed by
// source name.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]*Source
	logger  *slog.Logger
}

// NewRegistry creates an empty source registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{sources: make(map[string]*Source), logger: logger}
}

// Open registers a source by opening a database handle for its DSN.
func (r *Registry) Open(name, driver, dsn string) (*Source, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open source %q: %w", name, err)
	}
	src := &Source{Name: name, Type: driver, DB: db}
	r.Add(src)
	return src, nil
}

// Add registers an already-opened source, replacing any previous one of the
// same name.
func (r *Registry) Add(src *Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[src.Name] = src
	if r.logger != nil {
		r.logger.Info("registered data source", "source", src.Name, "type", src.Type)
	}
}

// Get returns the named source.
func (r *Registry) Get(name string) (*Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.sources[name]
	if !ok {
		return nil, domain.ErrNotFound("data source %q is not registered", name)
	}
	return src, nil
}

// Close closes every registered source handle.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for name, src := range r.sources {
		if err := src.DB.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close source %q: %w", name, err)
		}
		delete(r.sources, name)
	}
	return firstErr
}
