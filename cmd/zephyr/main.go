package main

import (
	"context"
	"embed"
	"os"
	"os/signal"
	"syscall"

	"github.com/wmutunga/zephyr/internal/app"
	"github.com/wmutunga/zephyr/internal/config"
	"github.com/wmutunga/zephyr/pkg/util/logger"

	// Register the GORM dialectors for the supported database types.
	_ "github.com/wmutunga/zephyr/internal/adapter/database/gorm/mysql"
	_ "github.com/wmutunga/zephyr/internal/adapter/database/gorm/postgres"
	_ "github.com/wmutunga/zephyr/internal/adapter/database/gorm/sqlite"
)

// embeddedConfig embeds the application's YAML configuration file.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

// migrationsFS bundles the per-database schema migration scripts into the
// binary.
//
//go:embed all:resources/migrations
var migrationsFS embed.FS

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal %v, cancelling run.", sig)
		cancel()
	}()

	envFilePath := os.Getenv("ENV_FILE_PATH")

	app.RunApplication(ctx, envFilePath, config.EmbeddedConfig(embeddedConfig), migrationsFS)
}
