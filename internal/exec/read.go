package exec

import (
	"context"
	"log/slog"
	"strings"

	"fedsql/internal/compute"
	"fedsql/internal/domain"
)

// ReadExecutor decides push-down vs local execution for read queries, with
// fallback-on-failure retry.
type ReadExecutor struct {
	planner domain.PlanOptimizer
	sources *compute.Registry
	local   *compute.LocalEngine
	authz   domain.AuthorizationGate
	logger  *slog.Logger
}

// NewReadExecutor wires the read-query path.
func NewReadExecutor(planner domain.PlanOptimizer, sources *compute.Registry, local *compute.LocalEngine, authz domain.AuthorizationGate, logger *slog.Logger) *ReadExecutor {
	return &ReadExecutor{planner: planner, sources: sources, local: local, authz: authz, logger: logger}
}

// Run plans and executes a read query bounded by maxRows, returning the
// result's schema and row sequence. A pushdown plan is delegated verbatim to
// its target source; a local plan executes on the embedded engine. Both
// paths materialize up to maxRows, so the returned rows stay readable after
// the statement's execution context ends.
func (e *ReadExecutor) Run(ctx context.Context, user, jobGroup string, q domain.DataQuery, maxRows int) (domain.Schema, domain.RowSet, error) {
	plan, err := e.planner.Plan(ctx, q.SQL, maxRows)
	if err != nil {
		return nil, nil, err
	}

	for _, table := range plan.Tables {
		if err := e.authz.CheckSelect(ctx, user, table, plan.Columns); err != nil {
			return nil, nil, err
		}
	}

	return runWithFallback(ctx, jobGroup, e.logger, func(ctx context.Context, pushdown bool) (domain.Schema, domain.RowSet, error) {
		if pushdown && plan.Pushdown != nil {
			return e.runPushdown(ctx, plan.Pushdown, maxRows)
		}
		return e.runLocal(ctx, plan.SQL)
	})
}

// Runnable executes a self-executing command and returns its rows directly.
func (e *ReadExecutor) Runnable(ctx context.Context, jobGroup string, cmd domain.RunnableCommand) (*domain.QueryResult, error) {
	if isStatementOnly(cmd.SQL) {
		if err := e.local.ExecContext(ctx, cmd.SQL); err != nil {
			return nil, mapCanceled(ctx, jobGroup, err)
		}
		return domain.Direct(nil, nil), nil
	}

	rows, err := e.local.QueryContext(ctx, cmd.SQL)
	if err != nil {
		return nil, mapCanceled(ctx, jobGroup, err)
	}
	schema, all, err := compute.Materialize(rows)
	if err != nil {
		return nil, mapCanceled(ctx, jobGroup, err)
	}
	return domain.Direct(schema, all), nil
}

// runPushdown delegates the entire optimized plan to the external source and
// materializes the result up to the plan's row cap. The cursor the rows feed
// outlives the statement's context, so they cannot stay lazy here.
func (e *ReadExecutor) runPushdown(ctx context.Context, target *domain.PushdownTarget, maxRows int) (domain.Schema, domain.RowSet, error) {
	src, err := e.sources.Get(target.Source)
	if err != nil {
		return nil, nil, err
	}
	rows, err := src.QueryContext(ctx, target.SQL)
	if err != nil {
		return nil, nil, err
	}
	schema, all, err := compute.MaterializeLimit(rows, maxRows)
	if err != nil {
		return nil, nil, err
	}
	return schema, domain.NewSliceRowSet(all), nil
}

// runLocal executes the plan on the embedded engine and materializes the
// result before handing it to the cursor.
func (e *ReadExecutor) runLocal(ctx context.Context, sql string) (domain.Schema, domain.RowSet, error) {
	rows, err := e.local.QueryContext(ctx, sql)
	if err != nil {
		return nil, nil, err
	}
	schema, all, err := compute.Materialize(rows)
	if err != nil {
		return nil, nil, err
	}
	return schema, domain.NewSliceRowSet(all), nil
}

// isStatementOnly reports whether the runnable command produces no rows.
func isStatementOnly(sql string) bool {
	upper := strings.ToUpper(strings.TrimSpace(sql))
	return strings.HasPrefix(upper, "SET") || strings.HasPrefix(upper, "USE")
}
