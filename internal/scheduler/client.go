package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"fedsql/internal/domain"
)

// RequestTimeout bounds every coordinator exchange. Exceeding it fails the
// whole operation with domain.ErrCoordinatorTimeout.
const RequestTimeout = 10 * time.Second

// Requester is the request/reply messaging surface the client needs.
// *nats.Conn satisfies it.
type Requester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
}

// Client sends register/unregister requests to the remote coordinator. The
// coordinator's outcome is authoritative; local state is never assumed to
// have changed until it confirms.
type Client struct {
	nc      Requester
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient creates a coordinator client over an established connection.
func NewClient(nc Requester, logger *slog.Logger) *Client {
	return &Client{nc: nc, timeout: RequestTimeout, logger: logger}
}

// Register asks the coordinator to schedule the event. A rejection surfaces
// as *domain.CoordinatorRejectedError with the coordinator's message; a
// missed deadline as domain.ErrCoordinatorTimeout.
func (c *Client) Register(ctx context.Context, ev *domain.TimedEvent) error {
	req := RegisterRequest{Event: payloadFromEvent(ev)}
	data, err := encode(req)
	if err != nil {
		return err
	}
	if err := c.exchange(ctx, SubjectRegister, data); err != nil {
		return err
	}
	if c.logger != nil {
		c.logger.Info("timed event registered", "event", ev.Name, "group", ev.Group, "schedule", ev.Schedule)
	}
	return nil
}

// Unregister asks the coordinator to drop the event keyed by (group, name).
func (c *Client) Unregister(ctx context.Context, group, name string) error {
	data, err := encode(UnregisterRequest{Group: group, Name: name})
	if err != nil {
		return err
	}
	if err := c.exchange(ctx, SubjectUnregister, data); err != nil {
		return err
	}
	if c.logger != nil {
		c.logger.Info("timed event unregistered", "event", name, "group", group)
	}
	return nil
}

// exchange performs one bounded request/reply round trip and interprets the
// acknowledgment.
func (c *Client) exchange(ctx context.Context, subject string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.nc.RequestWithContext(ctx, subject, data)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) ||
			errors.Is(err, nats.ErrTimeout) ||
			errors.Is(err, nats.ErrNoResponders) {
			return fmt.Errorf("%s: %w", subject, domain.ErrCoordinatorTimeout)
		}
		return fmt.Errorf("coordinator request %s: %w", subject, err)
	}

	var ack Ack
	if err := decode(msg.Data, &ack); err != nil {
		return err
	}
	if !ack.OK {
		return &domain.CoordinatorRejectedError{Message: ack.Message}
	}
	return nil
}
