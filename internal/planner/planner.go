// Package planner builds row-limited plans for read statements and decides
// between single-pushdown and local execution.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"fedsql/internal/domain"
)

// ViewChecker reports whether a name is bound to a registered temp view.
// Queries over temp views always execute locally.
type ViewChecker interface {
	HasView(name string) bool
}

var _ domain.PlanOptimizer = (*Planner)(nil)

// Planner implements domain.PlanOptimizer against the catalog's table
// configurations.
type Planner struct {
	org    string
	tables domain.TableRepository
	views  ViewChecker
	logger *slog.Logger
}

// New creates a Planner scoped to one organization's catalog.
func New(org string, tables domain.TableRepository, views ViewChecker, logger *slog.Logger) *Planner {
	return &Planner{org: org, tables: tables, views: views, logger: logger}
}

// Plan wraps stmt in a row-limit clause bounded by maxRows and classifies the
// result as single-pushdown or local.
//
// The plan is single-pushdown when every referenced table is owned by the
// same external source and none of the references is a session temp view.
// Otherwise only sub-plans can be delegated and the plan executes locally.
func (p *Planner) Plan(ctx context.Context, stmt string, maxRows int) (*domain.OptimizedPlan, error) {
	stmt = strings.TrimRight(strings.TrimSpace(stmt), ";")
	if stmt == "" {
		return nil, domain.ErrValidation("empty statement")
	}

	limited := stmt
	if maxRows > 0 {
		limited = fmt.Sprintf("SELECT * FROM (%s) AS q LIMIT %d", stmt, maxRows)
	}

	plan := &domain.OptimizedPlan{
		SQL:     limited,
		Tables:  ExtractTableNames(stmt),
		Columns: ExtractColumns(stmt),
	}

	source, ok, err := p.singleSource(ctx, plan.Tables)
	if err != nil {
		return nil, err
	}
	if ok {
		plan.Pushdown = &domain.PushdownTarget{Source: source, SQL: limited}
	}

	if p.logger != nil {
		p.logger.Debug("planned statement",
			"tables", plan.Tables,
			"pushdown", plan.Pushdown != nil,
		)
	}
	return plan, nil
}

// singleSource resolves the owning source of every referenced table. ok is
// true only when all tables share one external source.
func (p *Planner) singleSource(ctx context.Context, tables []string) (string, bool, error) {
	if len(tables) == 0 {
		return "", false, nil
	}

	source := ""
	for _, t := range tables {
		if p.views != nil && p.views.HasView(t) {
			return "", false, nil
		}

		cfg, err := p.tables.GetConfig(ctx, p.org, t)
		if err != nil {
			var notFound *domain.NotFoundError
			if errors.As(err, &notFound) {
				// Unregistered relation: not delegable as a whole.
				return "", false, nil
			}
			return "", false, fmt.Errorf("resolve table %q: %w", t, err)
		}

		if source == "" {
			source = cfg.SourceName
			continue
		}
		if source != cfg.SourceName {
			return "", false, nil
		}
	}
	return source, source != "", nil
}
