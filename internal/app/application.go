// Package app assembles the pipeline with uber-fx: configuration, API
// clients, the target database connection, the pipeline stages and the
// run-then-shutdown lifecycle.
package app

import (
	"context"
	"embed"
	"io/fs"

	"go.uber.org/fx"
	"gorm.io/gorm"

	dbconfig "github.com/wmutunga/zephyr/internal/adapter/database/config"
	gormadapter "github.com/wmutunga/zephyr/internal/adapter/database/gorm"
	storageadapter "github.com/wmutunga/zephyr/internal/adapter/storage"
	"github.com/wmutunga/zephyr/internal/adapter/storage/local"
	"github.com/wmutunga/zephyr/internal/config"
	"github.com/wmutunga/zephyr/internal/job"
	"github.com/wmutunga/zephyr/internal/metrics"
	"github.com/wmutunga/zephyr/internal/migration"
	"github.com/wmutunga/zephyr/internal/openaq"
	"github.com/wmutunga/zephyr/internal/openmeteo"
	"github.com/wmutunga/zephyr/internal/repository"
	"github.com/wmutunga/zephyr/internal/step/processor"
	"github.com/wmutunga/zephyr/internal/step/reader"
	"github.com/wmutunga/zephyr/internal/step/writer"
	"github.com/wmutunga/zephyr/pkg/util/logger"
)

// RunApplication loads the configuration, builds the fx application and
// runs one pipeline run. It blocks until the run finishes or appCtx is
// cancelled.
func RunApplication(appCtx context.Context, envFilePath string, embeddedConfig config.EmbeddedConfig, migrationsFS embed.FS) {
	cfg, err := config.Load(envFilePath, embeddedConfig)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	fxApp := fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		fx.Supply(fx.Annotate(appCtx, fx.As(new(context.Context)))),
		fx.Provide(
			newRecorder,
			newTargetDatabaseConfig,
			newDatabase,
			newRepository,
			newMigrator,
			newStorageProvider,
			newOpenAQClient,
			newOpenMeteoClient,
			newSensorDirectoryReader,
			newObservationReader,
			newForecastReader,
			newWeatherMergeProcessor,
			newRecordReconciler,
			newCleanedTableWriter,
			newParquetExportWriter,
			newPipelineJob(migrationsFS),
		),
		fx.Invoke(startPipeline),
	)

	fxApp.Run()
	if err := fxApp.Err(); err != nil {
		logger.Fatalf("Application run failed: %v", err)
	}
}

func newRecorder(lc fx.Lifecycle, cfg *config.Config, appCtx context.Context) metrics.Recorder {
	addr := cfg.Zephyr.Pipeline.MetricsListenAddr
	if addr == "" {
		return metrics.Noop{}
	}
	rec := metrics.NewPrometheusRecorder()
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go rec.Serve(appCtx, addr)
			return nil
		},
	})
	return rec
}

func newTargetDatabaseConfig(cfg *config.Config) (dbconfig.DatabaseConfig, error) {
	return cfg.TargetDatabase()
}

func newDatabase(lc fx.Lifecycle, dbCfg dbconfig.DatabaseConfig) (*gorm.DB, error) {
	db, err := gormadapter.Open(dbCfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return db, nil
}

func newRepository(db *gorm.DB, cfg *config.Config) repository.CleanedRepository {
	return repository.NewCleanedRepository(db, cfg.Zephyr.Pipeline.ChunkSize)
}

func newMigrator(db *gorm.DB, dbCfg dbconfig.DatabaseConfig) migration.Migrator {
	return migration.NewMigrator(db, dbCfg.Type)
}

func newStorageProvider(cfg *config.Config) storageadapter.Provider {
	return local.NewProvider(cfg.Zephyr.StorageConfigs)
}

func newOpenAQClient(cfg *config.Config) *openaq.Client {
	return openaq.NewClient(cfg.Zephyr.OpenAQ)
}

func newOpenMeteoClient(cfg *config.Config) *openmeteo.Client {
	return openmeteo.NewClient(cfg.Zephyr.OpenMeteo)
}

func newSensorDirectoryReader(c *openaq.Client, cfg *config.Config, rec metrics.Recorder) *reader.SensorDirectoryReader {
	return reader.NewSensorDirectoryReader(c, cfg.Zephyr.OpenAQ, rec)
}

func newObservationReader(c *openaq.Client, cfg *config.Config, rec metrics.Recorder) *reader.ObservationReader {
	return reader.NewObservationReader(c, cfg.Zephyr.OpenAQ, rec)
}

func newForecastReader(c *openmeteo.Client, rec metrics.Recorder) *reader.ForecastReader {
	return reader.NewForecastReader(c, rec)
}

func newWeatherMergeProcessor(rec metrics.Recorder) *processor.WeatherMergeProcessor {
	return processor.NewWeatherMergeProcessor(rec)
}

func newRecordReconciler(rec metrics.Recorder) *processor.RecordReconciler {
	return processor.NewRecordReconciler(rec)
}

func newCleanedTableWriter(repo repository.CleanedRepository, rec metrics.Recorder) *writer.CleanedTableWriter {
	return writer.NewCleanedTableWriter(repo, rec)
}

func newParquetExportWriter(cfg *config.Config, provider storageadapter.Provider) *writer.ParquetExportWriter {
	return writer.NewParquetExportWriter(cfg.Zephyr.Pipeline.Export, provider)
}

// newPipelineJob strips the go:embed prefix from the migrations FS and
// scopes the migration path to the configured database type.
func newPipelineJob(migrationsFS embed.FS) func(
	cfg *config.Config,
	dbCfg dbconfig.DatabaseConfig,
	sensors *reader.SensorDirectoryReader,
	observations *reader.ObservationReader,
	forecast *reader.ForecastReader,
	merger *processor.WeatherMergeProcessor,
	reconciler *processor.RecordReconciler,
	tableWriter *writer.CleanedTableWriter,
	exportWriter *writer.ParquetExportWriter,
	migrator migration.Migrator,
	recorder metrics.Recorder,
) (*job.PipelineJob, error) {
	return func(
		cfg *config.Config,
		dbCfg dbconfig.DatabaseConfig,
		sensors *reader.SensorDirectoryReader,
		observations *reader.ObservationReader,
		forecast *reader.ForecastReader,
		merger *processor.WeatherMergeProcessor,
		reconciler *processor.RecordReconciler,
		tableWriter *writer.CleanedTableWriter,
		exportWriter *writer.ParquetExportWriter,
		migrator migration.Migrator,
		recorder metrics.Recorder,
	) (*job.PipelineJob, error) {
		subFS, err := fs.Sub(migrationsFS, "resources/migrations")
		if err != nil {
			return nil, err
		}
		return job.NewPipelineJob(job.PipelineJobParams{
			Config:        cfg,
			Sensors:       sensors,
			Observations:  observations,
			Forecast:      forecast,
			Merger:        merger,
			Reconciler:    reconciler,
			TableWriter:   tableWriter,
			ExportWriter:  exportWriter,
			Migrator:      migrator,
			MigrationFS:   subFS,
			MigrationPath: dbCfg.Type,
			Recorder:      recorder,
		}), nil
	}
}

func startPipeline(lc fx.Lifecycle, shutdowner fx.Shutdowner, pipeline *job.PipelineJob, appCtx context.Context) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Errorf("Panic recovered in pipeline execution: %v", r)
					}
					if err := shutdowner.Shutdown(); err != nil {
						logger.Errorf("Failed to shutdown application: %v", err)
					}
				}()

				count, err := pipeline.Run(appCtx)
				if err != nil {
					logger.Errorf("Pipeline run failed: %v", err)
					return
				}
				logger.Infof("Pipeline run completed: %d records loaded.", count)
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			logger.Infof("Application is shutting down.")
			return nil
		},
	})
}
