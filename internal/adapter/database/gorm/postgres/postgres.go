// Package postgres registers the PostgreSQL dialector with the GORM
// adapter registry.
package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	dbconfig "github.com/wmutunga/zephyr/internal/adapter/database/config"
	gormadapter "github.com/wmutunga/zephyr/internal/adapter/database/gorm"
)

func init() {
	gormadapter.RegisterDialector("postgres", newDialector)
}

func newDialector(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
	if cfg.Host == "" || cfg.Database == "" {
		return nil, fmt.Errorf("postgres configuration requires host and database")
	}
	sslmode := cfg.Sslmode
	if sslmode == "" {
		sslmode = "disable"
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, sslmode)
	return postgres.Open(dsn), nil
}
