package session

import (
	"context"
	"sync"
)

// JobGroups is the execution substrate's cancellation index: every piece of
// in-flight work is tagged with its session's job group id and can be
// aborted in bulk. Cancellation is best-effort and takes effect at the next
// scheduling checkpoint, not immediately.
type JobGroups struct {
	cancels sync.Map // group id -> context.CancelFunc
}

// NewJobGroups creates an empty cancellation index.
func NewJobGroups() *JobGroups {
	return &JobGroups{}
}

// Bind derives a cancelable context tagged with the group id. The returned
// release func must be called when the work finishes.
func (g *JobGroups) Bind(ctx context.Context, group string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	g.cancels.Store(group, cancel)
	return ctx, func() {
		g.cancels.Delete(group)
		cancel()
	}
}

// Cancel aborts all work tagged with the group id. It does not wait for
// confirmation.
func (g *JobGroups) Cancel(group string) {
	if v, ok := g.cancels.Load(group); ok {
		v.(context.CancelFunc)()
	}
}
