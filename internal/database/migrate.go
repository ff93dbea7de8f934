package database

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jmoiron/sqlx"

	"mysns/internal/logger"
)

//go:embed schema.sql
var schema string

// Migrate applies the schema. Every statement is idempotent, so it is safe to
// run on each deploy.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	l := logger.Component("database")
	l.Info().Msg("schema applied")
	return nil
}
