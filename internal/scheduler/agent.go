package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/robfig/cron/v3"

	"fedsql/internal/domain"
)

// EventRunner fires a registered event's statements when its schedule is due.
type EventRunner interface {
	RunEvent(ctx context.Context, ev *domain.TimedEvent) error
}

// Agent is the coordinator counterpart of the client protocol: it answers
// register/unregister requests and fires registered events on their cron
// schedules. Registered entities are held in memory; durable coordinator
// persistence is outside the gateway.
type Agent struct {
	cron   *cron.Cron
	runner EventRunner
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
	events  map[string]*domain.TimedEvent
}

// NewAgent creates a stopped agent; call Start to begin firing schedules.
func NewAgent(runner EventRunner, logger *slog.Logger) *Agent {
	return &Agent{
		cron:    cron.New(),
		runner:  runner,
		logger:  logger,
		entries: make(map[string]cron.EntryID),
		events:  make(map[string]*domain.TimedEvent),
	}
}

// Start begins cron evaluation.
func (a *Agent) Start() {
	a.cron.Start()
	a.logger.Info("scheduler agent started")
}

// Stop halts cron evaluation without waiting for running jobs.
func (a *Agent) Stop() {
	a.cron.Stop()
	a.logger.Info("scheduler agent stopped")
}

// Subscribe serves the coordinator protocol on the given connection until
// the subscriptions are drained.
func (a *Agent) Subscribe(nc *nats.Conn) error {
	if _, err := nc.Subscribe(SubjectRegister, func(m *nats.Msg) {
		_ = m.Respond(a.handleRegister(m.Data))
	}); err != nil {
		return fmt.Errorf("subscribe %s: %w", SubjectRegister, err)
	}
	if _, err := nc.Subscribe(SubjectUnregister, func(m *nats.Msg) {
		_ = m.Respond(a.handleUnregister(m.Data))
	}); err != nil {
		return fmt.Errorf("subscribe %s: %w", SubjectUnregister, err)
	}
	return nil
}

// Register schedules the event, replacing any existing entry of the same
// key. Conflicting registrations are serialized here, so clients need no
// locking of their own.
func (a *Agent) Register(ev *domain.TimedEvent) error {
	key := eventKey(ev.Group, ev.Name)

	a.mu.Lock()
	defer a.mu.Unlock()

	entryID, err := a.cron.AddFunc(ev.Schedule, func() { a.fire(ev) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", ev.Schedule, err)
	}

	if old, ok := a.entries[key]; ok {
		a.cron.Remove(old)
	}
	a.entries[key] = entryID
	a.events[key] = ev

	a.logger.Info("event scheduled", "event", ev.Name, "group", ev.Group, "schedule", ev.Schedule)
	return nil
}

// Unregister drops the event keyed by (group, name).
func (a *Agent) Unregister(group, name string) error {
	key := eventKey(group, name)

	a.mu.Lock()
	defer a.mu.Unlock()

	entryID, ok := a.entries[key]
	if !ok {
		return domain.ErrNotFound("event %q in group %q is not registered", name, group)
	}
	a.cron.Remove(entryID)
	delete(a.entries, key)
	delete(a.events, key)

	a.logger.Info("event unscheduled", "event", name, "group", group)
	return nil
}

// Registered reports whether an event is currently scheduled.
func (a *Agent) Registered(group, name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.entries[eventKey(group, name)]
	return ok
}

func (a *Agent) fire(ev *domain.TimedEvent) {
	if err := a.runner.RunEvent(context.Background(), ev); err != nil {
		a.logger.Warn("scheduled event failed", "event", ev.Name, "group", ev.Group, "error", err)
	}
}

func (a *Agent) handleRegister(data []byte) []byte {
	var req RegisterRequest
	if err := decode(data, &req); err != nil {
		return mustEncodeAck(Ack{OK: false, Message: err.Error()})
	}
	if err := a.Register(eventFromPayload(req.Event)); err != nil {
		return mustEncodeAck(Ack{OK: false, Message: err.Error()})
	}
	return mustEncodeAck(Ack{OK: true})
}

func (a *Agent) handleUnregister(data []byte) []byte {
	var req UnregisterRequest
	if err := decode(data, &req); err != nil {
		return mustEncodeAck(Ack{OK: false, Message: err.Error()})
	}
	if err := a.Unregister(req.Group, req.Name); err != nil {
		return mustEncodeAck(Ack{OK: false, Message: err.Error()})
	}
	return mustEncodeAck(Ack{OK: true})
}

func mustEncodeAck(ack Ack) []byte {
	data, err := encode(ack)
	if err != nil {
		// Ack is a fixed two-field struct; encoding cannot fail at runtime.
		panic(err)
	}
	return data
}

func eventKey(group, name string) string {
	return group + "/" + name
}
