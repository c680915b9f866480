package domain

import "time"

// TimedEvent is the entity sent to the remote scheduling coordinator. The
// coordinator owns its persisted lifecycle after registration.
type TimedEvent struct {
	Name        string
	Group       string // owning group, used as the unregister key
	Statements  []string
	Schedule    string // cron expression
	Definer     string
	Description string

	// StartAt and EndAt bound the event's active window. Their semantics are
	// coordinator-defined; the gateway never interprets them.
	StartAt *time.Time
	EndAt   *time.Time

	// Config is reserved for per-event coordinator settings and is currently
	// always nil.
	Config map[string]string
}
