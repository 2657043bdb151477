// Package job orchestrates one end-to-end pipeline run: sensor discovery,
// observation and forecast ingestion, alignment, reconciliation, load and
// the optional snapshot export. Stages run sequentially; a failed stage
// aborts the run.
package job

import (
	"context"
	"io/fs"
	"time"

	"github.com/google/uuid"

	"github.com/wmutunga/zephyr/internal/config"
	"github.com/wmutunga/zephyr/internal/domain/entity"
	"github.com/wmutunga/zephyr/internal/metrics"
	"github.com/wmutunga/zephyr/internal/migration"
	"github.com/wmutunga/zephyr/internal/step/processor"
	"github.com/wmutunga/zephyr/internal/step/reader"
	"github.com/wmutunga/zephyr/internal/step/writer"
	"github.com/wmutunga/zephyr/pkg/util/exception"
	"github.com/wmutunga/zephyr/pkg/util/logger"
)

// PipelineJob wires the pipeline stages together.
type PipelineJob struct {
	cfg           *config.Config
	sensors       *reader.SensorDirectoryReader
	observations  *reader.ObservationReader
	forecast      *reader.ForecastReader
	merger        *processor.WeatherMergeProcessor
	reconciler    *processor.RecordReconciler
	tableWriter   *writer.CleanedTableWriter
	exportWriter  *writer.ParquetExportWriter
	migrator      migration.Migrator
	migrationFS   fs.FS
	migrationPath string
	recorder      metrics.Recorder

	now func() time.Time
}

// PipelineJobParams collects the job's collaborators.
type PipelineJobParams struct {
	Config        *config.Config
	Sensors       *reader.SensorDirectoryReader
	Observations  *reader.ObservationReader
	Forecast      *reader.ForecastReader
	Merger        *processor.WeatherMergeProcessor
	Reconciler    *processor.RecordReconciler
	TableWriter   *writer.CleanedTableWriter
	ExportWriter  *writer.ParquetExportWriter
	Migrator      migration.Migrator
	MigrationFS   fs.FS
	MigrationPath string
	Recorder      metrics.Recorder
}

func NewPipelineJob(p PipelineJobParams) *PipelineJob {
	return &PipelineJob{
		cfg:           p.Config,
		sensors:       p.Sensors,
		observations:  p.Observations,
		forecast:      p.Forecast,
		merger:        p.Merger,
		reconciler:    p.Reconciler,
		tableWriter:   p.TableWriter,
		exportWriter:  p.ExportWriter,
		migrator:      p.Migrator,
		migrationFS:   p.MigrationFS,
		migrationPath: p.MigrationPath,
		recorder:      p.Recorder,
		now:           time.Now,
	}
}

// Run executes one pipeline run. Returns the number of records loaded.
func (j *PipelineJob) Run(ctx context.Context) (int, error) {
	runID := uuid.NewString()
	started := j.now()
	logger.Infof("pipeline: run %s started", runID)

	registry := j.cfg.CityRegistry()

	sensors, err := j.timedSensors(ctx, registry)
	if err != nil {
		return 0, exception.NewPipelineError("job", "sensor discovery failed", err, false)
	}
	if len(sensors) == 0 {
		logger.Warnf("pipeline: run %s resolved no fresh sensors", runID)
	}

	to := j.now().UTC().Truncate(time.Hour)
	from := to.Add(-time.Duration(j.cfg.Zephyr.OpenAQ.FetchWindowDays) * 24 * time.Hour)

	observations, err := j.timedObservations(ctx, sensors, from, to)
	if err != nil {
		return 0, exception.NewPipelineError("job", "observation ingestion failed", err, false)
	}

	daily, hourly, err := j.timedForecast(ctx, registry)
	if err != nil {
		return 0, exception.NewPipelineError("job", "forecast ingestion failed", err, false)
	}

	weather := timedStage(j, "align", func() []entity.WeatherRecord {
		return j.merger.Align(daily, hourly, registry)
	})

	cleaned := timedStage(j, "reconcile", func() []entity.CleanedRecord {
		return j.reconciler.Reconcile(observations, weather)
	})

	if err := j.timedMigrate(ctx); err != nil {
		return 0, exception.NewPipelineError("job", "schema migration failed", err, false)
	}

	if err := j.timedLoad(ctx, cleaned); err != nil {
		return 0, exception.NewPipelineError("job", "load failed", err, false)
	}

	// A failed snapshot does not undo a successful load.
	if err := j.timedExport(ctx, cleaned); err != nil {
		logger.Errorf("pipeline: run %s snapshot export failed: %v", runID, err)
	}

	logger.Infof("pipeline: run %s finished with %d records in %s", runID, len(cleaned), j.now().Sub(started).Round(time.Millisecond))
	return len(cleaned), nil
}

func (j *PipelineJob) timedSensors(ctx context.Context, registry entity.CityRegistry) ([]entity.Sensor, error) {
	start := j.now()
	sensors, err := j.sensors.Resolve(ctx, registry)
	j.recorder.ObserveStage("resolve", j.now().Sub(start))
	return sensors, err
}

func (j *PipelineJob) timedObservations(ctx context.Context, sensors []entity.Sensor, from, to time.Time) ([]entity.Observation, error) {
	start := j.now()
	observations, err := j.observations.Fetch(ctx, sensors, from, to)
	j.recorder.ObserveStage("observations", j.now().Sub(start))
	return observations, err
}

func (j *PipelineJob) timedForecast(ctx context.Context, registry entity.CityRegistry) ([]entity.DailyWeather, []entity.HourlyWeather, error) {
	start := j.now()
	daily, hourly, err := j.forecast.Fetch(ctx, registry)
	j.recorder.ObserveStage("forecast", j.now().Sub(start))
	return daily, hourly, err
}

func timedStage[T any](j *PipelineJob, name string, fn func() T) T {
	start := j.now()
	out := fn()
	j.recorder.ObserveStage(name, j.now().Sub(start))
	return out
}

func (j *PipelineJob) timedMigrate(ctx context.Context) error {
	start := j.now()
	err := j.migrator.Up(ctx, j.migrationFS, j.migrationPath)
	j.recorder.ObserveStage("migrate", j.now().Sub(start))
	return err
}

func (j *PipelineJob) timedLoad(ctx context.Context, cleaned []entity.CleanedRecord) error {
	start := j.now()
	err := j.tableWriter.Write(ctx, cleaned)
	j.recorder.ObserveStage("load", j.now().Sub(start))
	return err
}

func (j *PipelineJob) timedExport(ctx context.Context, cleaned []entity.CleanedRecord) error {
	start := j.now()
	err := j.exportWriter.Export(ctx, cleaned)
	j.recorder.ObserveStage("export", j.now().Sub(start))
	return err
}
