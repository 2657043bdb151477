package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wmutunga/zephyr/internal/domain/entity"
	"github.com/wmutunga/zephyr/pkg/util/exception"
	"github.com/wmutunga/zephyr/pkg/util/logger"
)

// CleanedRepository persists reconciled rows into the daily_weather table.
type CleanedRepository interface {
	// Reset deletes all rows so each run replaces the previous table contents.
	Reset(ctx context.Context) error
	// BulkInsert writes the records in chunks inside a single transaction.
	BulkInsert(ctx context.Context, records []entity.CleanedRecord) error
	Count(ctx context.Context) (int64, error)
	Close() error
}

type gormCleanedRepository struct {
	db        *gorm.DB
	chunkSize int
}

// NewCleanedRepository wraps an open GORM connection. chunkSize bounds the
// number of rows per INSERT statement.
func NewCleanedRepository(db *gorm.DB, chunkSize int) CleanedRepository {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	return &gormCleanedRepository{db: db, chunkSize: chunkSize}
}

func (r *gormCleanedRepository) Reset(ctx context.Context) error {
	const op = "CleanedRepository.Reset"
	result := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&entity.CleanedRecord{})
	if result.Error != nil {
		return exception.NewPipelineError("repository", op+": table reset failed", result.Error, false)
	}
	logger.Infof("%s: cleared %d existing rows from %s", op, result.RowsAffected, entity.CleanedRecord{}.TableName())
	return nil
}

func (r *gormCleanedRepository) BulkInsert(ctx context.Context, records []entity.CleanedRecord) error {
	const op = "CleanedRepository.BulkInsert"
	if len(records) == 0 {
		logger.Warnf("%s: no records to insert", op)
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(records, r.chunkSize).Error
	})
	if err != nil {
		return exception.NewPipelineError("repository", fmt.Sprintf("%s: bulk insert of %d records failed", op, len(records)), err, false)
	}
	logger.Infof("%s: inserted %d records in chunks of %d", op, len(records), r.chunkSize)
	return nil
}

func (r *gormCleanedRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.CleanedRecord{}).Count(&count).Error; err != nil {
		return 0, exception.NewPipelineError("repository", "CleanedRepository.Count: count query failed", err, false)
	}
	return count, nil
}

func (r *gormCleanedRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
