// Package sqlite registers the SQLite dialector with the GORM adapter
// registry. The Database field of the configuration is the file path.
package sqlite

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dbconfig "github.com/wmutunga/zephyr/internal/adapter/database/config"
	gormadapter "github.com/wmutunga/zephyr/internal/adapter/database/gorm"
)

func init() {
	gormadapter.RegisterDialector("sqlite", newDialector)
}

func newDialector(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
	if cfg.Database == "" {
		return nil, fmt.Errorf("sqlite configuration requires a database file path")
	}
	return sqlite.Open(cfg.Database), nil
}
