package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"mysns/internal/config"
	"mysns/internal/logger"
)

func Connect(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	db, err := ConnectDSN(ctx, cfg.DSN())
	if err != nil {
		return nil, err
	}

	l := logger.Component("database")
	l.Info().
		Str("host", cfg.DBHost).
		Str("name", cfg.DBName).
		Msg("connected to database")
	return db, nil
}

// ConnectDSN opens a pool for an explicit lib/pq connection string.
func ConnectDSN(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}
