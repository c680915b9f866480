// Package scheduler implements the timed-event protocol between the gateway
// and the remote scheduling coordinator: a synchronous-looking register/
// unregister exchange over asynchronous messaging with a bounded wait.
package scheduler

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"fedsql/internal/domain"
)

// Coordinator request/reply subjects.
const (
	SubjectRegister   = "scheduler.register"
	SubjectUnregister = "scheduler.unregister"
)

// EventPayload is the wire form of a timed event entity.
type EventPayload struct {
	Name        string            `msgpack:"name"`
	Group       string            `msgpack:"group"`
	Statements  []string          `msgpack:"statements"`
	Schedule    string            `msgpack:"schedule"`
	Definer     string            `msgpack:"definer"`
	Description string            `msgpack:"description,omitempty"`
	StartAt     *time.Time        `msgpack:"start_at,omitempty"`
	EndAt       *time.Time        `msgpack:"end_at,omitempty"`
	Config      map[string]string `msgpack:"config,omitempty"`
}

// RegisterRequest asks the coordinator to schedule an event.
type RegisterRequest struct {
	Event EventPayload `msgpack:"event"`
}

// UnregisterRequest asks the coordinator to drop an event by its key.
type UnregisterRequest struct {
	Group string `msgpack:"group"`
	Name  string `msgpack:"name"`
}

// Ack is the coordinator's authoritative outcome for either request.
type Ack struct {
	OK      bool   `msgpack:"ok"`
	Message string `msgpack:"message,omitempty"`
}

func payloadFromEvent(ev *domain.TimedEvent) EventPayload {
	return EventPayload{
		Name:        ev.Name,
		Group:       ev.Group,
		Statements:  ev.Statements,
		Schedule:    ev.Schedule,
		Definer:     ev.Definer,
		Description: ev.Description,
		StartAt:     ev.StartAt,
		EndAt:       ev.EndAt,
		Config:      ev.Config,
	}
}

func eventFromPayload(p EventPayload) *domain.TimedEvent {
	return &domain.TimedEvent{
		Name:        p.Name,
		Group:       p.Group,
		Statements:  p.Statements,
		Schedule:    p.Schedule,
		Definer:     p.Definer,
		Description: p.Description,
		StartAt:     p.StartAt,
		EndAt:       p.EndAt,
		Config:      p.Config,
	}
}

func encode(v interface{}) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode coordinator message: %w", err)
	}
	return data, nil
}

func decode(data []byte, v interface{}) error {
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode coordinator message: %w", err)
	}
	return nil
}
