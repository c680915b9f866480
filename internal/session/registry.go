package session

import (
	"sync"

	"fedsql/internal/domain"
)

// Factory builds a new session runner bound to a user and optional database.
type Factory func(user, database string) *Runner

// Registry tracks live sessions by id for the transport layer. One session
// exists per client connection and is destroyed when the connection ends.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Runner
	factory  Factory
}

// NewRegistry creates a session registry around the given factory.
func NewRegistry(factory Factory) *Registry {
	return &Registry{sessions: make(map[string]*Runner), factory: factory}
}

// Open creates and tracks a new session.
func (r *Registry) Open(user, database string) *Runner {
	s := r.factory(user, database)
	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()
	return s
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (*Runner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound("session %q not found", id)
	}
	return s, nil
}

// Close destroys the session with the given id, canceling outstanding work.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return domain.ErrNotFound("session %q not found", id)
	}
	return s.Close()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
