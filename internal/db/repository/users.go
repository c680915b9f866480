package repository

import (
	"context"
	"database/sql"

	"fedsql/internal/domain"
)

// Compile-time check.
var _ domain.UserRepository = (*UserRepo)(nil)

// UserRepo implements UserRepository using SQLite.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetByName returns the user with the given (organization, name).
func (r *UserRepo) GetByName(ctx context.Context, org, name string) (*domain.User, error) {
	var u domain.User
	var admin int
	err := r.db.QueryRowContext(ctx,
		`SELECT id, org, name, is_admin FROM users WHERE org = ? AND name = ?`,
		org, name,
	).Scan(&u.ID, &u.Org, &u.Name, &admin)
	if err != nil {
		return nil, mapDBError(err, "user", name)
	}
	u.Admin = admin != 0
	return &u, nil
}

// Create inserts a user.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = newID()
	}
	admin := 0
	if u.Admin {
		admin = 1
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, org, name, is_admin) VALUES (?, ?, ?, ?)`,
		u.ID, u.Org, u.Name, admin,
	)
	if err != nil {
		return mapDBError(err, "user", u.Name)
	}
	return nil
}
