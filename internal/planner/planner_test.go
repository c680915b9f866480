package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fedsql/internal/domain"
	"fedsql/internal/testutil"
)

type staticViews map[string]bool

func (v staticViews) HasView(name string) bool { return v[name] }

func tableRepoWith(sources map[string]string) *testutil.MockTableRepo {
	return &testutil.MockTableRepo{
		GetConfigFn: func(_ context.Context, org, name string) (*domain.TableConfig, error) {
			src, ok := sources[name]
			if !ok {
				return nil, domain.ErrNotFound("table %q not found", name)
			}
			return &domain.TableConfig{Org: org, Name: name, SourceName: src}, nil
		},
	}
}

func TestPlan_SingleSourcePushdown(t *testing.T) {
	t.Parallel()

	p := New("acme", tableRepoWith(map[string]string{"orders": "pg1", "customers": "pg1"}), staticViews{}, nil)

	plan, err := p.Plan(context.Background(), "SELECT id FROM orders JOIN customers ON orders.cid = customers.id", 100)
	require.NoError(t, err)
	require.NotNil(t, plan.Pushdown)
	assert.Equal(t, "pg1", plan.Pushdown.Source)
	assert.Equal(t, []string{"orders", "customers"}, plan.Tables)
	assert.Contains(t, plan.Pushdown.SQL, "LIMIT 100")
}

func TestPlan_MixedSourcesStayLocal(t *testing.T) {
	t.Parallel()

	p := New("acme", tableRepoWith(map[string]string{"orders": "pg1", "customers": "mysql1"}), staticViews{}, nil)

	plan, err := p.Plan(context.Background(), "SELECT * FROM orders JOIN customers ON orders.cid = customers.id", 0)
	require.NoError(t, err)
	assert.Nil(t, plan.Pushdown)
}

func TestPlan_TempViewForcesLocal(t *testing.T) {
	t.Parallel()

	p := New("acme", tableRepoWith(map[string]string{"orders": "pg1"}), staticViews{"v_recent": true}, nil)

	plan, err := p.Plan(context.Background(), "SELECT * FROM v_recent", 10)
	require.NoError(t, err)
	assert.Nil(t, plan.Pushdown)
}

func TestPlan_UnknownTableStaysLocal(t *testing.T) {
	t.Parallel()

	p := New("acme", tableRepoWith(nil), staticViews{}, nil)

	plan, err := p.Plan(context.Background(), "SELECT * FROM scratch_data", 10)
	require.NoError(t, err)
	assert.Nil(t, plan.Pushdown)
}

func TestPlan_MaxRowsWrapsLimit(t *testing.T) {
	t.Parallel()

	p := New("acme", tableRepoWith(nil), staticViews{}, nil)

	plan, err := p.Plan(context.Background(), "SELECT a FROM t;", 5)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM (SELECT a FROM t) AS q LIMIT 5", plan.SQL)

	plan, err = p.Plan(context.Background(), "SELECT a FROM t", 0)
	require.NoError(t, err)
	assert.Equal(t, "SELECT a FROM t", plan.SQL)
}

func TestPlan_EmptyStatement(t *testing.T) {
	t.Parallel()

	p := New("acme", tableRepoWith(nil), staticViews{}, nil)

	_, err := p.Plan(context.Background(), "  ;", 10)
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestExtractTableNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{"simple", "SELECT * FROM orders", []string{"orders"}},
		{"join", "SELECT * FROM a JOIN b ON a.x = b.x", []string{"a", "b"}},
		{"dedup", "SELECT * FROM t JOIN t ON 1=1", []string{"t"}},
		{"qualified", "SELECT * FROM warehouse.orders", []string{"warehouse.orders"}},
		{"case folded", "SELECT * FROM Orders", []string{"orders"}},
		{"subquery", "SELECT * FROM (SELECT * FROM inner_t) x", []string{"inner_t"}},
		{"no tables", "VALUES (1)", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractTableNames(tc.sql))
		})
	}
}

func TestExtractColumns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{"named", "SELECT a, b FROM t", []string{"a", "b"}},
		{"aliased", "SELECT a AS x, t.b y FROM t", []string{"a", "b"}},
		{"star", "SELECT * FROM t", []string{"*"}},
		{"expression", "SELECT count(a) FROM t", []string{"*"}},
		{"not a select", "SHOW TABLES", []string{"*"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractColumns(tc.sql))
		})
	}
}
