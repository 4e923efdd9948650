// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"

	"github.com/pressly/goose/v3"
	gooseDB "github.com/pressly/goose/v3/database"
	"github.com/vinovest/sqlx"
)

//go:embed migrations
var embedMigrations embed.FS

// Schema names one service's set of migrations. Each schema keeps its own goose
// version table so both services can share a database.
type Schema string

const (
	SchemaUsers Schema = "users"
	SchemaTasks Schema = "tasks"
)

func (s Schema) versionTable() string {
	return "goose_" + string(s) + "_version"
}

// NewMigrator returns a goose provider for schema on db.
func NewMigrator(db *sqlx.DB, schema Schema) (*goose.Provider, error) {
	dialect, dir := gooseDB.DialectSQLite3, "sqlite"
	if db.DriverName() == DriverPostgres {
		dialect, dir = gooseDB.DialectPostgres, "postgres"
	}

	fsys, err := fs.Sub(embedMigrations, path.Join("migrations", dir, string(schema)))
	if err != nil {
		return nil, err
	}

	store, err := gooseDB.NewStore(dialect, schema.versionTable())
	if err != nil {
		return nil, err
	}

	return goose.NewProvider("", db.DB, fsys, goose.WithStore(store))
}

// RunMigrations applies all pending migrations for schema.
func RunMigrations(ctx context.Context, db *sqlx.DB, schema Schema) error {
	p, err := NewMigrator(db, schema)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}
	_, err = p.Up(ctx)
	return err
}

// MigrateDown rolls back the last migration.
func MigrateDown(ctx context.Context, db *sqlx.DB, schema Schema) error {
	p, err := NewMigrator(db, schema)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}
	_, err = p.Down(ctx)
	return err
}

// MigrateReset rolls back all migrations.
func MigrateReset(ctx context.Context, db *sqlx.DB, schema Schema) error {
	p, err := NewMigrator(db, schema)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}
	_, err = p.DownTo(ctx, 0)
	return err
}

// Version returns the currently applied migration version for schema.
func Version(ctx context.Context, db *sqlx.DB, schema Schema) (int64, error) {
	p, err := NewMigrator(db, schema)
	if err != nil {
		return 0, fmt.Errorf("migrator: %w", err)
	}
	return p.GetDBVersion(ctx)
}
