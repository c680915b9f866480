package domain

import "context"

// PushdownTarget names the external queryable source an entire optimized plan
// is delegated to, and the statement text to delegate verbatim.
type PushdownTarget struct {
	Source string
	SQL    string
}

// OptimizedPlan is the planner's output for a read statement: the row-limited
// statement text, the tables it references, and the pushdown decision.
// Pushdown is nil when only local execution is possible.
type OptimizedPlan struct {
	SQL      string
	Tables   []string
	Columns  []string // selected columns, "*" when unresolved
	Pushdown *PushdownTarget
}

// PlanOptimizer builds an analyzed, optimized plan for a read statement,
// bounded by maxRows, and classifies it as single-pushdown or local.
type PlanOptimizer interface {
	Plan(ctx context.Context, stmt string, maxRows int) (*OptimizedPlan, error)
}
