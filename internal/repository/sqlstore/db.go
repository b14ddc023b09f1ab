// Package sqlstore persists conversion history through database/sql drivers
// for PostgreSQL (pgx) and SQLite (modernc).
package sqlstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"docproc/db/migrations"
	"docproc/internal/config"
)

// NewDB opens the history database for cfg.Driver ("pgx" or "sqlite").
func NewDB(cfg *config.HistoryConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.Driver, err)
	}
	if cfg.MaxOpen > 0 {
		db.SetMaxOpenConns(cfg.MaxOpen)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	if cfg.Driver == "sqlite" {
		// SQLite allows one writer; serialize through a single connection.
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// MigrationURL maps the history DSN onto a golang-migrate database URL.
func MigrationURL(cfg *config.HistoryConfig) (string, error) {
	switch cfg.Driver {
	case "pgx":
		return cfg.DSN, nil
	case "sqlite":
		if strings.HasPrefix(cfg.DSN, "sqlite://") {
			return cfg.DSN, nil
		}
		return "sqlite://" + strings.TrimPrefix(cfg.DSN, "file:"), nil
	default:
		return "", fmt.Errorf("history driver %q has no migrations", cfg.Driver)
	}
}

// NewMigrator returns a migrate instance reading the embedded migrations.
// Callers must Close it.
func NewMigrator(cfg *config.HistoryConfig) (*migrate.Migrate, error) {
	url, err := MigrationURL(cfg)
	if err != nil {
		return nil, err
	}
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("loading embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}

// Migrate applies all pending migrations.
func Migrate(cfg *config.HistoryConfig) error {
	m, err := NewMigrator(cfg)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}
