package repository

import (
	"context"
	"database/sql"

	"fedsql/internal/domain"
)

var _ domain.ProcedureRepository = (*ProcedureRepo)(nil)

// ProcedureRepo implements ProcedureRepository using SQLite.
type ProcedureRepo struct {
	db *sql.DB
}

// NewProcedureRepo creates a new ProcedureRepo.
func NewProcedureRepo(db *sql.DB) *ProcedureRepo {
	return &ProcedureRepo{db: db}
}

// GetByName returns the stored procedure with the given (organization, name).
func (r *ProcedureRepo) GetByName(ctx context.Context, org, name string) (*domain.Procedure, error) {
	var p domain.Procedure
	var stmts sql.NullString
	var desc sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, org, name, statements, description FROM procedures WHERE org = ? AND name = ?`,
		org, name,
	).Scan(&p.ID, &p.Org, &p.Name, &stmts, &desc)
	if err != nil {
		return nil, mapDBError(err, "procedure", name)
	}

	p.Statements, err = unmarshalStrings(stmts)
	if err != nil {
		return nil, err
	}
	p.Description = desc.String
	return &p, nil
}

// Create inserts a procedure with its stored statement texts.
func (r *ProcedureRepo) Create(ctx context.Context, p *domain.Procedure) error {
	if p.ID == "" {
		p.ID = newID()
	}
	stmts, err := marshalJSON(p.Statements)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO procedures (id, org, name, statements, description) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Org, p.Name, stmts, p.Description,
	)
	if err != nil {
		return mapDBError(err, "procedure", p.Name)
	}
	return nil
}
