// Package database provides session history storage: database setup, models,
// and the Store data access layer with SQLite and Redis implementations.
package database

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/mirukang/fortunecast/migrations"

	_ "modernc.org/sqlite" //revive:disable:blank-imports
)

// NewDB opens the SQLite history database at dbPath and brings its schema up
// to date from the embedded migrations.
func NewDB(dbPath string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// SQLite serializes writes; a single connection avoids lock contention.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := migrateSchema(db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("Error closing history database after migration failure", "error", closeErr)
		}
		return nil, err
	}

	slog.Info("History database ready", "path", dbPath)
	return db, nil
}

// CloseDB closes the history database connection pool.
func CloseDB(db *sqlx.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		slog.Error("Error closing history database", "error", err)
		return
	}
	slog.Info("History database closed.")
}

// migrateSchema applies any pending embedded migrations to the connected
// database. An already-current schema is not an error.
func migrateSchema(db *sqlx.DB) error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	target, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to prepare migration target: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "sqlite3", target)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	switch err := migrator.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		slog.Info("History schema already up to date.")
	case err != nil:
		return fmt.Errorf("failed to apply migrations: %w", err)
	default:
		slog.Info("History schema migrations applied.")
	}

	return nil
}
