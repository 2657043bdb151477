// Package migration applies the schema for the daily_weather table from
// embedded SQL files, keyed by database type.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	"github.com/wmutunga/zephyr/pkg/util/logger"
)

const migrationsTable = "zephyr_schema_migrations"

// Migrator runs schema migrations against an open connection.
type Migrator interface {
	Up(ctx context.Context, migrationFS fs.FS, path string) error
}

type migratorImpl struct {
	db     *gorm.DB
	dbType string
}

func NewMigrator(db *gorm.DB, dbType string) Migrator {
	return &migratorImpl{db: db, dbType: dbType}
}

func (m *migratorImpl) databaseDriver(sqlDB *sql.DB) (database.Driver, error) {
	switch m.dbType {
	case "postgres":
		return postgres.WithInstance(sqlDB, &postgres.Config{MigrationsTable: migrationsTable})
	case "mysql":
		return mysql.WithInstance(sqlDB, &mysql.Config{MigrationsTable: migrationsTable})
	case "sqlite":
		return sqlite3.WithInstance(sqlDB, &sqlite3.Config{MigrationsTable: migrationsTable})
	default:
		return nil, fmt.Errorf("unsupported database type for migration: %s", m.dbType)
	}
}

func (m *migratorImpl) Up(ctx context.Context, migrationFS fs.FS, path string) error {
	logger.Infof("migration: applying schema (type=%s, path=%s)", m.dbType, path)

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sourceDriver, err := iofs.New(migrationFS, path)
	if err != nil {
		return fmt.Errorf("failed to create iofs source driver for path %s: %w", path, err)
	}

	dbDriver, err := m.databaseDriver(sqlDB)
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	mInstance, err := migrate.NewWithInstance("iofs", sourceDriver, m.dbType, dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer mInstance.Close()

	if err := mInstance.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed (type=%s, path=%s): %w", m.dbType, path, err)
	}

	logger.Infof("migration: schema up to date")
	return nil
}
