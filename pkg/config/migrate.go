package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	log "github.com/sirupsen/logrus"
)

func newMigrate(dir string) (*migrate.Migrate, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	db, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}
	if dir == "" {
		dir = "migrations"
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+filepath.ToSlash(dir), "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// ExecuteMigrations runs all pending migrations found in dir.
func ExecuteMigrations(dir string) {
	m, err := newMigrate(dir)
	if err != nil {
		log.Fatal(err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal("Failed to run migrations: ", err)
	}

	version, dirty, _ := m.Version()
	log.WithFields(log.Fields{
		"version": version,
		"dirty":   dirty,
	}).Info("Database migrations completed successfully")
}

// RollbackMigration rolls back the last migration
func RollbackMigration(dir string) {
	m, err := newMigrate(dir)
	if err != nil {
		log.Fatal(err)
	}
	if err := m.Steps(-1); err != nil {
		log.Fatal("Failed to rollback migration: ", err)
	}
	log.Info("Migration rolled back successfully")
}
