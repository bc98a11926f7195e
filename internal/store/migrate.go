package store

import (
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrate applies pending migrations from sourceDir (e.g. "file://db/migrations").
func (s *Store) Migrate(sourceDir string) error {
	driver, err := postgres.WithInstance(s.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("starting postgres migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(sourceDir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("initializing migrations: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("applying migrations: %w", err)
	}

	s.logger.Info("Migrations applied successfully")
	return nil
}
