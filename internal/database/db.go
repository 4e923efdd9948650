// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/oliverandrich/taskboard/internal/config"
	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver, registered as "pgx"
	"github.com/sethvargo/go-retry"
	"github.com/vinovest/sqlx"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// Driver names as registered with database/sql.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

// Open creates a pooled connection handle for dsn.
//
// Postgres URLs (postgres://, postgresql://, postgresql+psycopg://) use pgx.
// Everything else is treated as a SQLite path, optionally prefixed with sqlite://.
func Open(dsn string) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, config.ErrMissingDatabaseURL
	}

	driver, dsn := resolve(dsn)

	if driver == DriverSQLite && !isMemory(dsn) {
		path, _, _ := strings.Cut(dsn, "?")
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, err
		}
	}

	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(10)
	conn.SetConnMaxLifetime(30 * time.Minute)

	if driver == DriverSQLite {
		// Every connection to :memory: is its own database.
		if isMemory(dsn) {
			conn.SetMaxOpenConns(1)
		}
		if err := configureSQLite(context.Background(), conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	return conn, nil
}

// Close closes the database, ignoring a nil handle.
func Close(db *sqlx.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// WaitReady pings db until it answers or timeout elapses.
func WaitReady(ctx context.Context, db *sqlx.DB, timeout, interval time.Duration) error {
	backoff := retry.WithMaxDuration(timeout, retry.NewConstant(interval))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("database not ready after %s: %w", timeout, err)
	}
	return nil
}

// resolve picks the driver for dsn and returns the DSN in the form that driver expects.
func resolve(dsn string) (driver, normalized string) {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") ||
		strings.HasPrefix(lower, "postgresql://") ||
		strings.HasPrefix(lower, "postgresql+") {
		return DriverPostgres, NormalizePostgresDSN(dsn)
	}

	dsn = strings.TrimPrefix(dsn, "sqlite://")
	return DriverSQLite, addSQLiteParams(dsn)
}

// NormalizePostgresDSN rewrites SQLAlchemy-style URLs for pgx and disables TLS
// when sslmode is not given.
func NormalizePostgresDSN(dsn string) string {
	if scheme, rest, ok := strings.Cut(dsn, "://"); ok && strings.HasPrefix(scheme, "postgresql+") {
		dsn = "postgres://" + rest
	}

	if !strings.Contains(dsn, "sslmode=") {
		if strings.Contains(dsn, "?") {
			dsn += "&sslmode=disable"
		} else {
			dsn += "?sslmode=disable"
		}
	}
	return dsn
}

func isMemory(dsn string) bool {
	return strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// addSQLiteParams adds recommended SQLite parameters if not already present.
func addSQLiteParams(dsn string) string {
	params := []string{
		"_txlock=immediate",
		"_pragma=busy_timeout(5000)",
		"_pragma=foreign_keys(1)",
	}

	for _, p := range params {
		if strings.Contains(dsn, p) {
			continue
		}
		separator := "?"
		if strings.Contains(dsn, "?") {
			separator = "&"
		}
		dsn += separator + p
	}

	return dsn
}

// configureSQLite sets PRAGMAs for file-backed databases.
func configureSQLite(ctx context.Context, db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return err
		}
	}

	return nil
}
