package repository

import (
	"context"
	"database/sql"

	"fedsql/internal/domain"
)

var _ domain.TimedEventRepository = (*TimedEventRepo)(nil)

// TimedEventRepo implements TimedEventRepository using SQLite.
type TimedEventRepo struct {
	db *sql.DB
}

// NewTimedEventRepo creates a new TimedEventRepo.
func NewTimedEventRepo(db *sql.DB) *TimedEventRepo {
	return &TimedEventRepo{db: db}
}

// GetByName returns the persisted event definition.
func (r *TimedEventRepo) GetByName(ctx context.Context, org, name string) (*domain.TimedEventDef, error) {
	var def domain.TimedEventDef
	var enabled int
	var desc sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, org, name, procedure, definer, schedule, enabled, description
		 FROM timed_events WHERE org = ? AND name = ?`,
		org, name,
	).Scan(&def.ID, &def.Org, &def.Name, &def.Procedure, &def.Definer, &def.Schedule, &enabled, &desc)
	if err != nil {
		return nil, mapDBError(err, "timed event", name)
	}
	def.Enabled = enabled != 0
	def.Description = desc.String
	return &def, nil
}

// Save inserts the event definition or replaces an existing one of the same
// (organization, name).
func (r *TimedEventRepo) Save(ctx context.Context, def *domain.TimedEventDef) error {
	if def.ID == "" {
		def.ID = newID()
	}
	enabled := 0
	if def.Enabled {
		enabled = 1
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO timed_events (id, org, name, procedure, definer, schedule, enabled, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (org, name) DO UPDATE SET
		   procedure = excluded.procedure,
		   definer = excluded.definer,
		   schedule = excluded.schedule,
		   enabled = excluded.enabled,
		   description = excluded.description`,
		def.ID, def.Org, def.Name, def.Procedure, def.Definer, def.Schedule, enabled, def.Description,
	)
	if err != nil {
		return mapDBError(err, "timed event", def.Name)
	}
	return nil
}

// SetEnabled flips the stored enabled flag.
func (r *TimedEventRepo) SetEnabled(ctx context.Context, org, name string, enabled bool) error {
	v := 0
	if enabled {
		v = 1
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE timed_events SET enabled = ? WHERE org = ? AND name = ?`,
		v, org, name,
	)
	if err != nil {
		return mapDBError(err, "timed event", name)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("timed event %q not found", name)
	}
	return nil
}
