// Package exec drives classified commands through execution: the pushdown
// read path, the mutation path, and self-executing runnable statements.
package exec

import (
	"context"
	"log/slog"

	"fedsql/internal/domain"
)

// attemptFunc is one execution attempt with pushdown enabled or disabled.
type attemptFunc func(ctx context.Context, pushdown bool) (domain.Schema, domain.RowSet, error)

// runWithFallback runs the two-attempt strategy: try with pushdown enabled,
// then decide by ordered guards — authorization denial propagates, user
// cancellation propagates, anything else is retried exactly once with
// pushdown disabled. The retry's failure supersedes the original.
func runWithFallback(ctx context.Context, jobGroup string, logger *slog.Logger, attempt attemptFunc) (domain.Schema, domain.RowSet, error) {
	schema, rows, err := attempt(ctx, true)
	if err == nil {
		return schema, rows, nil
	}

	err = mapCanceled(ctx, jobGroup, err)
	switch {
	case domain.IsAccessDenied(err):
		return nil, nil, err
	case domain.IsCanceled(err):
		return nil, nil, err
	}

	if logger != nil {
		logger.Warn("pushdown attempt failed, retrying locally", "job_group", jobGroup, "error", err)
	}

	schema, rows, err = attempt(ctx, false)
	if err != nil {
		return nil, nil, mapCanceled(ctx, jobGroup, err)
	}
	return schema, rows, nil
}

// mapCanceled converts a failure observed after the session's job group was
// canceled into the typed cancellation error, leaving other failures intact.
func mapCanceled(ctx context.Context, jobGroup string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() == context.Canceled {
		return &domain.CanceledError{JobGroup: jobGroup}
	}
	return err
}
