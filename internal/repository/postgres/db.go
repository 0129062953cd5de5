package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/salesdash/internal/config"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

const defaultMaxConcurrent = 10

// DB is a read-only connection pool used by the SQL record source.
type DB struct {
	*sqlx.DB
	sem *semaphore.Weighted
}

// NewDB opens a pool with the configured driver. Driver "pgx" uses the pgx stdlib
// adapter, anything else goes through lib/pq.
func NewDB(cfg config.DatabaseConfig) (*DB, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver != "pgx" {
		driver = "postgres"
	}

	db, err := sqlx.Connect(driver, DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("could not connect to %s: %w", driver, err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Info().Str("driver", driver).Str("host", cfg.Host).Str("db", cfg.DBName).Msg("database connected")
	return NewWithDB(db, cfg.MaxConcurrent), nil
}

// NewWithDB wraps an existing pool. maxConcurrent bounds the number of queries
// running at once; a non-positive value uses the default.
func NewWithDB(db *sqlx.DB, maxConcurrent int64) *DB {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	return &DB{
		DB:  db,
		sem: semaphore.NewWeighted(maxConcurrent),
	}
}

// DSN builds a key/value connection string accepted by both lib/pq and pgx.
func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// QueryRows runs query and hands the open result set to fn. The semaphore slot is
// held until fn returns and the rows are closed.
func (db *DB) QueryRows(ctx context.Context, query string, fn func(rows *sqlx.Rows) error) error {
	// Acquire semaphore
	if err := db.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("could not acquire semaphore: %w", err)
	}
	defer db.sem.Release(1)

	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("could not close rows")
		}
	}()

	if err := fn(rows); err != nil {
		return err
	}
	return rows.Err()
}
