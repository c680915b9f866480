// Package session owns the per-connection query orchestration: statement
// classification, dispatch, result cursoring, and cancellation scoping.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"fedsql/internal/classify"
	"fedsql/internal/cursor"
	"fedsql/internal/domain"
	"fedsql/internal/exec"
	"fedsql/internal/scheduler"
)

// Runner is the session façade. It binds user context once at construction,
// serializes statement batches, and exclusively owns the result cursor. Its
// job group id equals the session id.
type Runner struct {
	id       string
	user     string
	database string

	reads     *exec.ReadExecutor
	mutations *exec.MutationExecutor
	events    *scheduler.Service
	groups    *JobGroups
	logger    *slog.Logger

	mu        sync.Mutex
	cur       *cursor.Cursor
	fetchSize int
	maxRows   int
}

var _ scheduler.StatementRunner = (*Runner)(nil)

// NewRunner creates a session bound to the given user and optional database.
func NewRunner(user, database string, reads *exec.ReadExecutor, mutations *exec.MutationExecutor, events *scheduler.Service, groups *JobGroups, logger *slog.Logger) *Runner {
	id := uuid.NewString()
	return &Runner{
		id:        id,
		user:      user,
		database:  database,
		reads:     reads,
		mutations: mutations,
		events:    events,
		groups:    groups,
		logger:    logger.With("session", id, "user", user),
	}
}

// ID returns the session id, which doubles as the job group id.
func (r *Runner) ID() string { return r.id }

// User returns the bound user name.
func (r *Runner) User() string { return r.user }

// Query classifies and executes every statement in order, storing the two
// bounds for the session, and returns the last statement's result. The first
// failure aborts the batch; no later statement executes.
func (r *Runner) Query(ctx context.Context, statements []string, fetchSize, maxRows int) (*domain.QueryResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(statements) == 0 {
		return nil, domain.ErrValidation("statement batch is empty")
	}
	if fetchSize < 0 || maxRows < 0 {
		return nil, domain.ErrValidation("fetch size and max rows must be non-negative")
	}
	r.fetchSize = fetchSize
	r.maxRows = maxRows

	ctx, release := r.groups.Bind(ctx, r.id)
	defer release()

	return r.runBatch(ctx, statements)
}

// Fetch drains the next batch from the session's cursor under the bounds set
// by the last Query call.
func (r *Runner) Fetch(ctx context.Context) (*cursor.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cur == nil {
		return nil, domain.ErrValidation("session %s has no open cursor", r.id)
	}
	if err := ctx.Err(); err != nil {
		return nil, &domain.CanceledError{JobGroup: r.id}
	}
	return r.cur.Fetch()
}

// Cancel signals the execution substrate to abort all work tagged with this
// session's job group. Fire-and-forget; in-flight work fails at its next
// checkpoint.
func (r *Runner) Cancel() {
	r.groups.Cancel(r.id)
	r.logger.Info("session canceled")
}

// Close cancels outstanding work and releases the cursor.
func (r *Runner) Close() error {
	r.groups.Cancel(r.id)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cur != nil {
		err := r.cur.Close()
		r.cur = nil
		return err
	}
	return nil
}

// RunStatements implements scheduler.StatementRunner: it runs an event's
// statements once within the already-running batch, without re-entering the
// session lock.
func (r *Runner) RunStatements(ctx context.Context, statements []string) (*domain.QueryResult, error) {
	return r.runBatch(ctx, statements)
}

// runBatch executes statements in order and keeps only the last result.
func (r *Runner) runBatch(ctx context.Context, statements []string) (*domain.QueryResult, error) {
	var last *domain.QueryResult
	for _, stmt := range statements {
		cmd, err := classify.Classify(stmt)
		if err != nil {
			return nil, err
		}
		res, err := r.dispatch(ctx, cmd)
		if err != nil {
			return nil, err
		}
		last = res
	}
	return last, nil
}

// dispatch routes one command variant to its executor. The default arm is a
// reachable fatal case, not a silent fallthrough.
func (r *Runner) dispatch(ctx context.Context, cmd domain.Command) (*domain.QueryResult, error) {
	switch cmd := cmd.(type) {
	case domain.DataQuery:
		schema, rows, err := r.reads.Run(ctx, r.user, r.id, cmd, r.maxRows)
		if err != nil {
			return nil, err
		}
		cur, res, err := cursor.New(schema, rows, r.fetchSize, r.maxRows)
		if err != nil {
			return nil, err
		}
		if r.cur != nil {
			_ = r.cur.Close()
		}
		r.cur = cur
		return res, nil

	case domain.RunnableCommand:
		return r.reads.Runnable(ctx, r.id, cmd)

	case domain.InsertInto:
		if err := r.mutations.Insert(ctx, r.user, r.id, cmd); err != nil {
			return nil, err
		}
		return domain.Direct(nil, nil), nil

	case domain.CreateTempView:
		if err := r.mutations.CreateView(ctx, r.user, r.id, cmd); err != nil {
			return nil, err
		}
		return domain.Direct(nil, nil), nil

	case domain.CreateTimedEvent:
		return r.events.CreateTimedEvent(ctx, r, r.user, cmd)

	case domain.AlterTimedEventEnable:
		return r.events.AlterTimedEventEnable(ctx, r, cmd)

	default:
		return nil, &domain.UnsupportedCommandError{SQL: describeCommand(cmd)}
	}
}

func describeCommand(cmd domain.Command) string {
	if cmd == nil {
		return "<nil>"
	}
	return "<unknown command variant>"
}
