package repository

import (
	"context"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "fedsql/internal/db"
	"fedsql/internal/domain"
)

func TestUserRepo(t *testing.T) {
	conn := internaldb.OpenTestMetastore(t)
	repo := NewUserRepo(conn)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.User{Org: "acme", Name: "alice", Admin: true}))
	require.NoError(t, repo.Create(ctx, &domain.User{Org: "acme", Name: "bob"}))

	u, err := repo.GetByName(ctx, "acme", "alice")
	require.NoError(t, err)
	assert.True(t, u.Admin)
	assert.NotEmpty(t, u.ID)

	u, err = repo.GetByName(ctx, "acme", "bob")
	require.NoError(t, err)
	assert.False(t, u.Admin)

	_, err = repo.GetByName(ctx, "acme", "ghost")
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)

	// Same name in another org is a different principal.
	_, err = repo.GetByName(ctx, "other", "alice")
	assert.ErrorAs(t, err, &notFound)
}

func TestProcedureRepo(t *testing.T) {
	conn := internaldb.OpenTestMetastore(t)
	repo := NewProcedureRepo(conn)
	ctx := context.Background()

	stmts := []string{"INSERT INTO t SELECT * FROM s", "SELECT count(*) FROM t"}
	require.NoError(t, repo.Create(ctx, &domain.Procedure{
		Org: "acme", Name: "load_orders", Statements: stmts, Description: "nightly load",
	}))

	p, err := repo.GetByName(ctx, "acme", "load_orders")
	require.NoError(t, err)
	assert.Equal(t, stmts, p.Statements)
	assert.Equal(t, "nightly load", p.Description)

	_, err = repo.GetByName(ctx, "acme", "missing")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestTimedEventRepo_SaveIsUpsert(t *testing.T) {
	conn := internaldb.OpenTestMetastore(t)
	repo := NewTimedEventRepo(conn)
	ctx := context.Background()

	def := &domain.TimedEventDef{
		Org: "acme", Name: "nightly", Procedure: "load_orders",
		Definer: "alice", Schedule: "0 2 * * *", Enabled: true,
	}
	require.NoError(t, repo.Save(ctx, def))

	def.Schedule = "30 2 * * *"
	require.NoError(t, repo.Save(ctx, def))

	got, err := repo.GetByName(ctx, "acme", "nightly")
	require.NoError(t, err)
	assert.Equal(t, "30 2 * * *", got.Schedule)
	assert.True(t, got.Enabled)
}

func TestTimedEventRepo_SetEnabled(t *testing.T) {
	conn := internaldb.OpenTestMetastore(t)
	repo := NewTimedEventRepo(conn)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.TimedEventDef{
		Org: "acme", Name: "nightly", Procedure: "p", Definer: "alice",
		Schedule: "0 2 * * *", Enabled: true,
	}))

	require.NoError(t, repo.SetEnabled(ctx, "acme", "nightly", false))
	got, err := repo.GetByName(ctx, "acme", "nightly")
	require.NoError(t, err)
	assert.False(t, got.Enabled)

	var notFound *domain.NotFoundError
	assert.ErrorAs(t, repo.SetEnabled(ctx, "acme", "ghost", true), &notFound)
}

func TestTableRepo(t *testing.T) {
	conn := internaldb.OpenTestMetastore(t)
	repo := NewTableRepo(conn)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.TableConfig{
		Org: "acme", Name: "Orders", SourceType: "postgres", SourceName: "pg1",
		Options:     map[string]string{"schema": "public"},
		PartitionBy: []string{"order_date"},
		Mode:        domain.WriteOverwrite,
	}))

	// Lookup is case-insensitive on the table name.
	cfg, err := repo.GetConfig(ctx, "acme", "ORDERS")
	require.NoError(t, err)
	assert.Equal(t, "pg1", cfg.SourceName)
	assert.Equal(t, "public", cfg.Options["schema"])
	assert.Equal(t, []string{"order_date"}, cfg.PartitionBy)
	assert.Equal(t, domain.WriteOverwrite, cfg.Mode)

	_, err = repo.GetConfig(ctx, "acme", "missing")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestTableRepo_DefaultWriteMode(t *testing.T) {
	conn := internaldb.OpenTestMetastore(t)
	repo := NewTableRepo(conn)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.TableConfig{
		Org: "acme", Name: "sales", SourceType: "duckdb", SourceName: "local",
	}))

	cfg, err := repo.GetConfig(ctx, "acme", "sales")
	require.NoError(t, err)
	assert.Equal(t, domain.WriteAppend, cfg.Mode)
}

func TestGrantRepo(t *testing.T) {
	conn := internaldb.OpenTestMetastore(t)
	repo := NewGrantRepo(conn)
	ctx := context.Background()

	require.NoError(t, repo.Grant(ctx, &domain.Grant{
		User: "bob", Table: "Orders", Privilege: "select", Columns: []string{"id", "total"},
	}))
	require.NoError(t, repo.Grant(ctx, &domain.Grant{
		User: "bob", Table: "orders", Privilege: "INSERT",
	}))

	grants, err := repo.ListGrants(ctx, "bob", "ORDERS")
	require.NoError(t, err)
	require.Len(t, grants, 2)

	byPriv := map[string][]string{}
	for _, g := range grants {
		byPriv[g.Privilege] = g.Columns
	}
	assert.Equal(t, []string{"id", "total"}, byPriv["SELECT"])
	assert.Empty(t, byPriv["INSERT"])

	// Re-granting the same privilege replaces the column list.
	require.NoError(t, repo.Grant(ctx, &domain.Grant{
		User: "bob", Table: "orders", Privilege: "SELECT",
	}))
	grants, err = repo.ListGrants(ctx, "bob", "orders")
	require.NoError(t, err)
	for _, g := range grants {
		if g.Privilege == "SELECT" {
			assert.Empty(t, g.Columns)
		}
	}

	grants, err = repo.ListGrants(ctx, "alice", "orders")
	require.NoError(t, err)
	assert.Empty(t, grants)
}
