// Package mysql registers the MySQL dialector with the GORM adapter
// registry.
package mysql

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	dbconfig "github.com/wmutunga/zephyr/internal/adapter/database/config"
	gormadapter "github.com/wmutunga/zephyr/internal/adapter/database/gorm"
)

func init() {
	gormadapter.RegisterDialector("mysql", newDialector)
}

func newDialector(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
	if cfg.Host == "" || cfg.Database == "" {
		return nil, fmt.Errorf("mysql configuration requires host and database")
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
	return mysql.Open(dsn), nil
}
