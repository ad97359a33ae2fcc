// Package migration applies the embedded schema with golang-migrate.
package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"smartsupply/migrations"
	"smartsupply/pkg/logger"
)

// Migrator handles database migrations.
type Migrator struct {
	migrate *migrate.Migrate
}

// DatabaseURL rewrites a postgres:// DSN to the pgx5:// scheme the driver registers.
func DatabaseURL(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

// New creates a Migrator over the embedded migrations.
func New(dsn string) (*Migrator, error) {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, DatabaseURL(dsn))
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return &Migrator{migrate: m}, nil
}

// Up runs all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	err := m.migrate.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info(ctx, "no migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration up: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	logger.Info(ctx, "migrations completed", "version", version, "dirty", dirty)
	return nil
}

// Down rolls back all migrations.
func (m *Migrator) Down(ctx context.Context) error {
	err := m.migrate.Down()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info(ctx, "no migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration down: %w", err)
	}
	logger.Info(ctx, "all migrations rolled back")
	return nil
}

// Steps applies n migrations (positive = up, negative = down).
func (m *Migrator) Steps(ctx context.Context, n int) error {
	if err := m.migrate.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration steps: %w", err)
	}
	logger.Info(ctx, "migration steps applied", "steps", n)
	return nil
}

// Version returns the current version. A fresh database reports 0.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("migration version: %w", err)
	}
	return version, dirty, nil
}

// Close releases the source and database handles.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.migrate.Close()
	return errors.Join(srcErr, dbErr)
}
