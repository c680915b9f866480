package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"fedsql/internal/domain"
)

var _ domain.GrantRepository = (*GrantRepo)(nil)

// GrantRepo implements GrantRepository using SQLite.
type GrantRepo struct {
	db *sql.DB
}

// NewGrantRepo creates a new GrantRepo.
func NewGrantRepo(db *sql.DB) *GrantRepo {
	return &GrantRepo{db: db}
}

// ListGrants returns the user's grants on a table.
func (r *GrantRepo) ListGrants(ctx context.Context, user, table string) ([]domain.Grant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_name, table_name, privilege, columns
		 FROM grants WHERE user_name = ? AND lower(table_name) = lower(?)`,
		user, table,
	)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	defer rows.Close()

	var out []domain.Grant
	for rows.Next() {
		var g domain.Grant
		var cols sql.NullString
		if err := rows.Scan(&g.User, &g.Table, &g.Privilege, &cols); err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		g.Columns, err = unmarshalStrings(cols)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Grant records a privilege for a user on a table. An empty column list
// grants all columns.
func (r *GrantRepo) Grant(ctx context.Context, g *domain.Grant) error {
	cols, err := marshalJSON(g.Columns)
	if err != nil {
		return err
	}
	var colsArg interface{}
	if len(g.Columns) > 0 {
		colsArg = cols
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO grants (user_name, table_name, privilege, columns)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_name, table_name, privilege) DO UPDATE SET columns = excluded.columns`,
		g.User, strings.ToLower(g.Table), strings.ToUpper(g.Privilege), colsArg,
	)
	if err != nil {
		return mapDBError(err, "grant", g.User+"/"+g.Table)
	}
	return nil
}
