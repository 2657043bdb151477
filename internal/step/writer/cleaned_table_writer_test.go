package writer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wmutunga/zephyr/internal/domain/entity"
	"github.com/wmutunga/zephyr/internal/metrics"
	"github.com/wmutunga/zephyr/internal/step/writer"
)

type fakeRepository struct {
	calls     []string
	resetErr  error
	insertErr error
	countErr  error
	inserted  []entity.CleanedRecord
}

func (f *fakeRepository) Reset(ctx context.Context) error {
	f.calls = append(f.calls, "reset")
	return f.resetErr
}

func (f *fakeRepository) BulkInsert(ctx context.Context, records []entity.CleanedRecord) error {
	f.calls = append(f.calls, "insert")
	f.inserted = records
	return f.insertErr
}

func (f *fakeRepository) Count(ctx context.Context) (int64, error) {
	f.calls = append(f.calls, "count")
	return int64(len(f.inserted)), f.countErr
}

func (f *fakeRepository) Close() error { return nil }

func cleanedRecords(n int) []entity.CleanedRecord {
	hour := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	out := make([]entity.CleanedRecord, n)
	for i := range out {
		out[i] = entity.CleanedRecord{
			UniqueID:        string(rune('a'+i)) + "1b2c3d4e5f6",
			City:            "Chicago",
			ParameterName:   "pm25",
			DatetimeFromUTC: hour.Add(time.Duration(i) * time.Hour),
		}
	}
	return out
}

func TestCleanedTableWriter_ResetPrecedesInsert(t *testing.T) {
	repo := &fakeRepository{}
	w := writer.NewCleanedTableWriter(repo, metrics.Noop{})

	records := cleanedRecords(3)
	require.NoError(t, w.Write(context.Background(), records))

	// The row count is verified against the table after the insert.
	assert.Equal(t, []string{"reset", "insert", "count"}, repo.calls)
	assert.Equal(t, records, repo.inserted)
}

func TestCleanedTableWriter_EmptyInputStillResets(t *testing.T) {
	repo := &fakeRepository{}
	w := writer.NewCleanedTableWriter(repo, metrics.Noop{})

	require.NoError(t, w.Write(context.Background(), nil))

	// A run with no rows must still leave an empty table, not stale data.
	assert.Equal(t, []string{"reset", "insert", "count"}, repo.calls)
	assert.Empty(t, repo.inserted)
}

func TestCleanedTableWriter_ResetFailureSkipsInsert(t *testing.T) {
	repo := &fakeRepository{resetErr: errors.New("deadlock detected")}
	w := writer.NewCleanedTableWriter(repo, metrics.Noop{})

	err := w.Write(context.Background(), cleanedRecords(1))
	require.Error(t, err)
	assert.Equal(t, []string{"reset"}, repo.calls)
}

func TestCleanedTableWriter_CountFailureIsNotFatal(t *testing.T) {
	repo := &fakeRepository{countErr: errors.New("connection lost")}
	w := writer.NewCleanedTableWriter(repo, metrics.Noop{})

	// The load already succeeded; the verification query is informational.
	require.NoError(t, w.Write(context.Background(), cleanedRecords(2)))
	assert.Equal(t, []string{"reset", "insert", "count"}, repo.calls)
}

func TestCleanedTableWriter_InsertFailurePropagates(t *testing.T) {
	repo := &fakeRepository{insertErr: errors.New("table is full")}
	w := writer.NewCleanedTableWriter(repo, metrics.Noop{})

	err := w.Write(context.Background(), cleanedRecords(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, repo.insertErr)
}
