package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"fedsql/internal/domain"
)

// StatementRunner runs a batch of statements once on behalf of the session
// that issued the event command and returns the batch's final result.
type StatementRunner interface {
	RunStatements(ctx context.Context, statements []string) (*domain.QueryResult, error)
}

// EventRegistrar is the coordinator exchange the service depends on.
// Satisfied by *Client.
type EventRegistrar interface {
	Register(ctx context.Context, ev *domain.TimedEvent) error
	Unregister(ctx context.Context, group, name string) error
}

// Service orchestrates timed-event commands: it builds entities from catalog
// lookups, drives the coordinator exchange, and couples a successful
// registration with one immediate execution so the caller sees both the
// scheduling side effect and a preview result in one response.
type Service struct {
	org    string
	users  domain.UserRepository
	procs  domain.ProcedureRepository
	events domain.TimedEventRepository
	client EventRegistrar
	logger *slog.Logger
}

// NewService wires the timed-event orchestration for one organization.
func NewService(org string, users domain.UserRepository, procs domain.ProcedureRepository, events domain.TimedEventRepository, client EventRegistrar, logger *slog.Logger) *Service {
	return &Service{org: org, users: users, procs: procs, events: events, client: client, logger: logger}
}

// CreateTimedEvent persists the event definition, registers it with the
// coordinator when enabled, and runs the procedure's statements once. A
// coordinator rejection or timeout fails the operation before any execution;
// a disabled event runs once without registration.
func (s *Service) CreateTimedEvent(ctx context.Context, runner StatementRunner, user string, cmd domain.CreateTimedEvent) (*domain.QueryResult, error) {
	definer, err := s.users.GetByName(ctx, s.org, user)
	if err != nil {
		return nil, fmt.Errorf("resolve definer %q: %w", user, err)
	}

	proc, err := s.procs.GetByName(ctx, s.org, cmd.Procedure)
	if err != nil {
		return nil, fmt.Errorf("resolve procedure %q: %w", cmd.Procedure, err)
	}

	def := &domain.TimedEventDef{
		Org:         s.org,
		Name:        cmd.Name,
		Procedure:   cmd.Procedure,
		Definer:     definer.Name,
		Schedule:    cmd.Schedule,
		Enabled:     cmd.Enable,
		Description: cmd.Description,
	}
	if err := s.events.Save(ctx, def); err != nil {
		return nil, fmt.Errorf("save event %q: %w", cmd.Name, err)
	}

	if cmd.Enable {
		ev := s.buildEntity(def, proc.Statements)
		if err := s.client.Register(ctx, ev); err != nil {
			return nil, err
		}
	}

	return runner.RunStatements(ctx, proc.Statements)
}

// AlterTimedEventEnable looks up the stored event and its definer, sends a
// register (enable) or unregister (disable) request under the same timeout
// and failure discipline, and runs the statements once on success.
func (s *Service) AlterTimedEventEnable(ctx context.Context, runner StatementRunner, cmd domain.AlterTimedEventEnable) (*domain.QueryResult, error) {
	def, err := s.events.GetByName(ctx, s.org, cmd.Name)
	if err != nil {
		return nil, fmt.Errorf("resolve event %q: %w", cmd.Name, err)
	}
	if _, err := s.users.GetByName(ctx, s.org, def.Definer); err != nil {
		return nil, fmt.Errorf("resolve definer %q: %w", def.Definer, err)
	}
	proc, err := s.procs.GetByName(ctx, s.org, def.Procedure)
	if err != nil {
		return nil, fmt.Errorf("resolve procedure %q: %w", def.Procedure, err)
	}

	if cmd.Enable {
		if err := s.client.Register(ctx, s.buildEntity(def, proc.Statements)); err != nil {
			return nil, err
		}
	} else {
		if err := s.client.Unregister(ctx, s.org, def.Name); err != nil {
			return nil, err
		}
	}

	if err := s.events.SetEnabled(ctx, s.org, def.Name, cmd.Enable); err != nil {
		return nil, fmt.Errorf("update event %q: %w", def.Name, err)
	}

	return runner.RunStatements(ctx, proc.Statements)
}

// buildEntity assembles the coordinator entity from a stored definition. The
// per-event config and start/end bounds stay unset; their semantics belong
// to the coordinator.
func (s *Service) buildEntity(def *domain.TimedEventDef, statements []string) *domain.TimedEvent {
	return &domain.TimedEvent{
		Name:        def.Name,
		Group:       s.org,
		Statements:  statements,
		Schedule:    def.Schedule,
		Definer:     def.Definer,
		Description: def.Description,
	}
}
