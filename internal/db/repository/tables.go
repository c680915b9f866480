package repository

import (
	"context"
	"database/sql"
	"strings"

	"fedsql/internal/domain"
)

var _ domain.TableRepository = (*TableRepo)(nil)

// TableRepo implements TableRepository using SQLite.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo creates a new TableRepo.
func NewTableRepo(db *sql.DB) *TableRepo {
	return &TableRepo{db: db}
}

// GetConfig returns the table's stored data-source configuration. Lookups
// are case-insensitive on the table name.
func (r *TableRepo) GetConfig(ctx context.Context, org, name string) (*domain.TableConfig, error) {
	var cfg domain.TableConfig
	var options, partitions sql.NullString
	var mode string
	err := r.db.QueryRowContext(ctx,
		`SELECT org, name, source_type, source_name, options, partition_by, write_mode
		 FROM tables WHERE org = ? AND lower(name) = lower(?)`,
		org, name,
	).Scan(&cfg.Org, &cfg.Name, &cfg.SourceType, &cfg.SourceName, &options, &partitions, &mode)
	if err != nil {
		return nil, mapDBError(err, "table", name)
	}

	cfg.Options, err = unmarshalMap(options)
	if err != nil {
		return nil, err
	}
	cfg.PartitionBy, err = unmarshalStrings(partitions)
	if err != nil {
		return nil, err
	}
	cfg.Mode = domain.WriteMode(strings.ToUpper(mode))
	return &cfg, nil
}

// Save inserts or replaces a table configuration.
func (r *TableRepo) Save(ctx context.Context, cfg *domain.TableConfig) error {
	options, err := marshalJSON(cfg.Options)
	if err != nil {
		return err
	}
	partitions, err := marshalJSON(cfg.PartitionBy)
	if err != nil {
		return err
	}
	mode := string(cfg.Mode)
	if mode == "" {
		mode = string(domain.WriteAppend)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO tables (org, name, source_type, source_name, options, partition_by, write_mode)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (org, name) DO UPDATE SET
		   source_type = excluded.source_type,
		   source_name = excluded.source_name,
		   options = excluded.options,
		   partition_by = excluded.partition_by,
		   write_mode = excluded.write_mode`,
		cfg.Org, strings.ToLower(cfg.Name), cfg.SourceType, cfg.SourceName, options, partitions, mode,
	)
	if err != nil {
		return mapDBError(err, "table", cfg.Name)
	}
	return nil
}
