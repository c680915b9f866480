package exec

import (
	"context"
	"log/slog"

	"fedsql/internal/compute"
	"fedsql/internal/domain"
)

// MutationExecutor handles insert and temp-view-registration commands with
// the same fallback discipline as reads, plus authorization enforcement.
type MutationExecutor struct {
	org     string
	planner domain.PlanOptimizer
	tables  domain.TableRepository
	sources *compute.Registry
	local   *compute.LocalEngine
	sink    domain.SinkWriter
	authz   domain.AuthorizationGate
	logger  *slog.Logger
}

// NewMutationExecutor wires the write and view-registration paths.
func NewMutationExecutor(org string, planner domain.PlanOptimizer, tables domain.TableRepository, sources *compute.Registry, local *compute.LocalEngine, sink domain.SinkWriter, authz domain.AuthorizationGate, logger *slog.Logger) *MutationExecutor {
	return &MutationExecutor{
		org:     org,
		planner: planner,
		tables:  tables,
		sources: sources,
		local:   local,
		sink:    sink,
		authz:   authz,
		logger:  logger,
	}
}

// Insert executes the command's source query (pushdown first, one local
// retry on non-authorization failure) and hands the output to the target
// source's write path. No result rows are returned; the effect is a side
// effect only.
func (e *MutationExecutor) Insert(ctx context.Context, user, jobGroup string, cmd domain.InsertInto) error {
	cfg, err := e.tables.GetConfig(ctx, e.org, cmd.Table)
	if err != nil {
		return err
	}

	if err := e.authz.CheckInsert(ctx, user, cmd.Table); err != nil {
		return err
	}

	plan, err := e.planner.Plan(ctx, cmd.Query, 0)
	if err != nil {
		return err
	}
	for _, table := range plan.Tables {
		if err := e.authz.CheckSelect(ctx, user, table, plan.Columns); err != nil {
			return err
		}
	}

	schema, rows, err := runWithFallback(ctx, jobGroup, e.logger, func(ctx context.Context, pushdown bool) (domain.Schema, domain.RowSet, error) {
		if pushdown && plan.Pushdown != nil {
			return e.runOnSource(ctx, plan.Pushdown)
		}
		return e.runLocal(ctx, plan.SQL)
	})
	if err != nil {
		return err
	}

	// Gate the resolved output columns before they reach the write path.
	for _, table := range plan.Tables {
		if err := e.authz.CheckSelect(ctx, user, table, columnNames(schema)); err != nil {
			_ = rows.Close()
			return err
		}
	}

	mode := cfg.Mode
	if mode == "" {
		mode = domain.WriteAppend
	}
	if cmd.Overwrite {
		mode = domain.WriteOverwrite
	}

	if err := e.sink.Write(ctx, cfg, schema, rows, mode); err != nil {
		return mapCanceled(ctx, jobGroup, err)
	}
	return nil
}

// CreateView builds and locally executes the view's query plan, then
// registers it under the command's name. Registration fails with a duplicate
// conflict when the name exists and replace-if-exists is false.
func (e *MutationExecutor) CreateView(ctx context.Context, user, jobGroup string, cmd domain.CreateTempView) error {
	plan, err := e.planner.Plan(ctx, cmd.Query, 0)
	if err != nil {
		return err
	}
	for _, table := range plan.Tables {
		if err := e.authz.CheckSelect(ctx, user, table, plan.Columns); err != nil {
			return err
		}
	}

	// Execute locally once so a broken definition fails here, not on first
	// read of the view.
	_, rows, err := e.runLocal(ctx, "SELECT * FROM ("+plan.SQL+") AS v LIMIT 0")
	if err != nil {
		return mapCanceled(ctx, jobGroup, err)
	}
	_ = rows.Close()

	return e.local.RegisterView(ctx, cmd.Name, plan.SQL, cmd.Replace, cmd.Cache)
}

func (e *MutationExecutor) runOnSource(ctx context.Context, target *domain.PushdownTarget) (domain.Schema, domain.RowSet, error) {
	src, err := e.sources.Get(target.Source)
	if err != nil {
		return nil, nil, err
	}
	rows, err := src.QueryContext(ctx, target.SQL)
	if err != nil {
		return nil, nil, err
	}
	return compute.NewRowSet(rows)
}

func (e *MutationExecutor) runLocal(ctx context.Context, sql string) (domain.Schema, domain.RowSet, error) {
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

func columnNames(schema domain.Schema) []string {
	names := make([]string, len(schema))
	for i, c := range schema {
		names[i] = c.Name
	}
	return names
}
