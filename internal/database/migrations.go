package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

func setup(dialect string) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

// RunMigrations executes all pending database migrations
func RunMigrations(db *sql.DB, dialect string, logger *zap.Logger) error {
	if err := setup(dialect); err != nil {
		return err
	}

	logger.Info("Checking for pending migrations...", zap.String("dialect", dialect))

	if err := goose.Up(db, migrationsDir); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Migrations completed successfully")
	return nil
}

// RollbackMigration rolls back the most recent migration
func RollbackMigration(db *sql.DB, dialect string) error {
	if err := setup(dialect); err != nil {
		return err
	}
	return goose.Down(db, migrationsDir)
}

// ResetMigrations rolls back every applied migration
func ResetMigrations(db *sql.DB, dialect string) error {
	if err := setup(dialect); err != nil {
		return err
	}
	return goose.Reset(db, migrationsDir)
}

// GetMigrationStatus prints the current migration status
func GetMigrationStatus(db *sql.DB, dialect string) error {
	if err := setup(dialect); err != nil {
		return err
	}
	return goose.Status(db, migrationsDir)
}

// MigrationVersion returns the currently applied schema version
func MigrationVersion(db *sql.DB, dialect string) (int64, error) {
	if err := setup(dialect); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(db)
}
