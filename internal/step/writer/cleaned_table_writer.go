// Package writer holds the load-side steps of the pipeline: the database
// writer that replaces the daily_weather table contents and the optional
// Parquet snapshot export.
package writer

import (
	"context"

	"github.com/wmutunga/zephyr/internal/domain/entity"
	"github.com/wmutunga/zephyr/internal/metrics"
	"github.com/wmutunga/zephyr/internal/repository"
	"github.com/wmutunga/zephyr/pkg/util/logger"
)

// CleanedTableWriter loads reconciled records into the daily_weather table.
// Each run replaces the previous table contents so the table always reflects
// exactly one pipeline run.
type CleanedTableWriter struct {
	repo     repository.CleanedRepository
	recorder metrics.Recorder
}

func NewCleanedTableWriter(repo repository.CleanedRepository, recorder metrics.Recorder) *CleanedTableWriter {
	return &CleanedTableWriter{repo: repo, recorder: recorder}
}

// Write resets the table and bulk-inserts the records. The reset happens
// even for an empty input so a run that produced no rows leaves an empty
// table rather than stale data.
func (w *CleanedTableWriter) Write(ctx context.Context, records []entity.CleanedRecord) error {
	if err := w.repo.Reset(ctx); err != nil {
		return err
	}
	if err := w.repo.BulkInsert(ctx, records); err != nil {
		return err
	}
	w.recorder.AddRows("load", len(records))

	count, err := w.repo.Count(ctx)
	if err != nil {
		logger.Warnf("load: row count verification failed: %v", err)
		return nil
	}
	if count != int64(len(records)) {
		logger.Warnf("load: %s holds %d rows after writing %d records (conflicting keys skipped)",
			entity.CleanedRecord{}.TableName(), count, len(records))
		return nil
	}
	logger.Infof("load: wrote %d records to %s", len(records), entity.CleanedRecord{}.TableName())
	return nil
}
