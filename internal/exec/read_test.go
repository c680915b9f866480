package exec

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fedsql/internal/compute"
	internaldb "fedsql/internal/db"
	"fedsql/internal/domain"
	"fedsql/internal/testutil"
)

// stubPlanner returns a fixed plan regardless of the statement.
type stubPlanner struct {
	plan *domain.OptimizedPlan
}

func (s stubPlanner) Plan(context.Context, string, int) (*domain.OptimizedPlan, error) {
	return s.plan, nil
}

func newReadFixture(t *testing.T, rowCount int) (*ReadExecutor, *domain.OptimizedPlan) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sources := compute.NewRegistry(logger)
	src, err := sources.Open("warehouse", "sqlite3", filepath.Join(t.TempDir(), "warehouse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sources.Close() })

	_, err = src.DB.Exec("CREATE TABLE orders (n INTEGER)")
	require.NoError(t, err)
	for i := 1; i <= rowCount; i++ {
		_, err = src.DB.Exec("INSERT INTO orders (n) VALUES (?)", i)
		require.NoError(t, err)
	}

	localDB, err := internaldb.OpenLocalEngine("")
	require.NoError(t, err)
	local := compute.NewLocalEngine(localDB)
	t.Cleanup(func() { _ = local.Close() })

	stmt := "SELECT n FROM orders ORDER BY n"
	plan := &domain.OptimizedPlan{
		SQL:      stmt,
		Tables:   []string{"orders"},
		Columns:  []string{"n"},
		Pushdown: &domain.PushdownTarget{Source: "warehouse", SQL: stmt},
	}
	reads := NewReadExecutor(stubPlanner{plan: plan}, sources, local, &testutil.MockAuthzGate{}, logger)
	return reads, plan
}

func TestReadExecutor_PushdownRowsOutliveContext(t *testing.T) {
	t.Parallel()

	reads, plan := newReadFixture(t, 3)

	ctx, cancel := context.WithCancel(context.Background())
	schema, rows, err := reads.Run(ctx, "alice", "job-1", domain.DataQuery{SQL: plan.SQL}, 5)
	require.NoError(t, err)
	require.Len(t, schema, 1)
	assert.Equal(t, "n", schema[0].Name)

	// The statement's context ends before the cursor starts draining.
	cancel()

	var got []domain.Row
	for {
		row, ok, err := rows.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, row)
	}
	require.NoError(t, rows.Close())
	require.Len(t, got, 3)
}

func TestReadExecutor_PushdownStopsAtRowCap(t *testing.T) {
	t.Parallel()

	reads, plan := newReadFixture(t, 7)

	_, rows, err := reads.Run(context.Background(), "alice", "job-1", domain.DataQuery{SQL: plan.SQL}, 4)
	require.NoError(t, err)
	defer rows.Close()

	count := 0
	for {
		_, ok, err := rows.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		count++
	}
	assert.Equal(t, 4, count)
}
