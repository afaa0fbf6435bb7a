package db

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationRunner handles database migrations.
type MigrationRunner struct {
	db      *sql.DB
	migrate *migrate.Migrate
}

// NewMigrationRunner creates a migration runner over the embedded
// migration files.
func NewMigrationRunner(db *sql.DB) (*MigrationRunner, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("create postgres driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("create source driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}

	return &MigrationRunner{db: db, migrate: m}, nil
}

// Up runs all pending migrations.
func (mr *MigrationRunner) Up() error {
	err := mr.migrate.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed: %w", err)
	}
	if err == migrate.ErrNoChange {
		return nil
	}

	version, dirty, err := mr.migrate.Version()
	if err != nil {
		return fmt.Errorf("get migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in dirty state at version %d", version)
	}
	return nil
}

// Down rolls back one migration.
func (mr *MigrationRunner) Down() error {
	if err := mr.migrate.Steps(-1); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	return nil
}
