package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var embedMigrations embed.FS

// gooseDialect maps a Dialect to goose's dialect name and migration directory.
func gooseDialect(d Dialect) (string, string, error) {
	switch d {
	case DialectSQLite:
		return "sqlite3", "migrations/sqlite", nil
	case DialectPostgres:
		return "postgres", "migrations/postgres", nil
	default:
		return "", "", fmt.Errorf("no migrations for dialect %q", d)
	}
}

// RunMigrations executes all pending database migrations
func RunMigrations(db *sql.DB, dialect Dialect, logger *zap.Logger) error {
	name, dir, err := gooseDialect(dialect)
	if err != nil {
		return err
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(name); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	logger.Info("Checking for pending migrations...", zap.String("dir", dir))

	if err := goose.Up(db, dir); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Migrations completed successfully")
	return nil
}

// MigrationVersion returns the version of the last applied migration.
func MigrationVersion(db *sql.DB, dialect Dialect) (int64, error) {
	name, _, err := gooseDialect(dialect)
	if err != nil {
		return 0, err
	}

	if err := goose.SetDialect(name); err != nil {
		return 0, fmt.Errorf("failed to set goose dialect: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, nil
}
