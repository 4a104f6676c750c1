package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsDir = "migrations"

func setupGoose() error {
	goose.SetBaseFS(migrationFiles)
	return goose.SetDialect("postgres")
}

// RunMigrations applies the embedded users, resumes and resume_versions schema.
// A nil database is a no-op so in-memory deployments can call it unconditionally.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	if database == nil {
		return nil
	}
	if err := setupGoose(); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, database, migrationsDir); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// RollbackMigration reverts the most recent migration.
func RollbackMigration(ctx context.Context, database *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}
	if err := goose.DownContext(ctx, database, migrationsDir); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// MigrationStatus logs the applied state of every embedded migration.
func MigrationStatus(ctx context.Context, database *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}
	return goose.StatusContext(ctx, database, migrationsDir)
}
