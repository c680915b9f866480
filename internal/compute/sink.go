package compute

import (
	"context"
	"fmt"
	"strings"

	"fedsql/internal/domain"
)

var _ domain.SinkWriter = (*SourceSink)(nil)

// SourceSink writes insert output through the target source's own write
// path. Overwrite mode replaces existing data before the append; append mode
// leaves it untouched.
type SourceSink struct {
	sources *Registry
}

// NewSourceSink creates a sink over the registered sources.
func NewSourceSink(sources *Registry) *SourceSink {
	return &SourceSink{sources: sources}
}

// Write streams the row sequence into the target table in batches. The
// table's stored options qualify the target; partition columns are forwarded
// to sources that support them and are a no-op for embedded tables.
func (s *SourceSink) Write(ctx context.Context, cfg *domain.TableConfig, schema domain.Schema, rows domain.RowSet, mode domain.WriteMode) error {
	src, err := s.sources.Get(cfg.SourceName)
	if err != nil {
		return err
	}
	defer rows.Close()

	target := quoteIdent(cfg.Name)
	if schemaName := cfg.Options["schema"]; schemaName != "" {
		target = quoteIdent(schemaName) + "." + target
	}

	tx, err := src.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write to %q: %w", cfg.Name, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if mode == domain.WriteOverwrite {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+target); err != nil {
			return fmt.Errorf("overwrite %q: %w", cfg.Name, err)
		}
	}

	placeholders := "(" + strings.TrimRight(strings.Repeat("?,", len(schema)), ",") + ")"
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+target+" VALUES "+placeholders)
	if err != nil {
		return fmt.Errorf("prepare insert into %q: %w", cfg.Name, err)
	}
	defer stmt.Close()

	for {
		row, ok, err := rows.Next()
		if err != nil {
			return fmt.Errorf("read insert source: %w", err)
		}
		if !ok {
			break
		}
		if len(row) != len(schema) {
			return domain.ErrValidation("insert width mismatch: %d values for %d columns", len(row), len(schema))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("insert into %q: %w", cfg.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit write to %q: %w", cfg.Name, err)
	}
	return nil
}
