package db

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/gorm"
)

// Migrate runs the versioned SQL migrations when migrationURL is set,
// otherwise falls back to gorm AutoMigrate over models.
func Migrate(database *gorm.DB, s Settings, migrationURL string, models ...any) error {
	if migrationURL == "" {
		return database.AutoMigrate(models...)
	}

	m, err := migrate.New(migrationURL, s.URL())
	if err != nil {
		return fmt.Errorf("db: create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("db: migrate up: %w", err)
	}
	return nil
}
