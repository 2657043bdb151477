package job_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wmutunga/zephyr/internal/config"
	"github.com/wmutunga/zephyr/internal/domain/entity"
	"github.com/wmutunga/zephyr/internal/job"
	"github.com/wmutunga/zephyr/internal/metrics"
	"github.com/wmutunga/zephyr/internal/openaq"
	"github.com/wmutunga/zephyr/internal/openmeteo"
	"github.com/wmutunga/zephyr/internal/step/processor"
	"github.com/wmutunga/zephyr/internal/step/reader"
	"github.com/wmutunga/zephyr/internal/step/writer"
)

// callLog records the cross-component call order of one run.
type callLog struct {
	calls []string
}

type fakeMigrator struct {
	log  *callLog
	path string
	err  error
}

func (m *fakeMigrator) Up(ctx context.Context, migrationFS fs.FS, path string) error {
	m.log.calls = append(m.log.calls, "migrate")
	m.path = path
	return m.err
}

type fakeRepo struct {
	log      *callLog
	inserted []entity.CleanedRecord
	resetErr error
}

func (f *fakeRepo) Reset(ctx context.Context) error {
	f.log.calls = append(f.log.calls, "reset")
	return f.resetErr
}

func (f *fakeRepo) BulkInsert(ctx context.Context, records []entity.CleanedRecord) error {
	f.log.calls = append(f.log.calls, "insert")
	f.inserted = records
	return nil
}

func (f *fakeRepo) Count(ctx context.Context) (int64, error) {
	f.log.calls = append(f.log.calls, "count")
	return int64(len(f.inserted)), nil
}

func (f *fakeRepo) Close() error { return nil }

// newOpenAQServer serves one fresh sensor near the registry city and one
// hourly pm25 observation at the given hour.
func newOpenAQServer(t *testing.T, hour time.Time) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/locations", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"results": [{
			"id": 7, "name": "Near North Side", "timezone": "America/Chicago",
			"coordinates": {"latitude": 41.9, "longitude": -87.63},
			"datetimeLast": {"utc": %q},
			"sensors": [{"id": 101}]
		}]}`, time.Now().UTC().Format(time.RFC3339))
	})
	mux.HandleFunc("/sensors/101/hours", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-ratelimit-used", "1")
		w.Header().Set("x-ratelimit-remaining", "50")
		w.Header().Set("x-ratelimit-reset", "60")
		fmt.Fprintf(w, `{"results": [{
			"value": 10.0,
			"parameter": {"name": "pm25", "units": "µg/m³"},
			"period": {
				"datetimeFrom": {"utc": %q},
				"datetimeTo": {"utc": %q}
			},
			"summary": {"avg": 9.0}
		}]}`, hour.Format(time.RFC3339), hour.Add(time.Hour).Format(time.RFC3339))
	})
	return httptest.NewServer(mux)
}

// newOpenMeteoServer serves one hourly step at the given hour and one daily
// step for its date, with every catalog variable present.
func newOpenMeteoServer(t *testing.T, hour time.Time) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hourly := map[string]interface{}{"time": []int64{hour.Unix()}}
		for i, name := range openmeteo.HourlyVariables {
			hourly[name] = []float64{float64(i) + 0.5}
		}
		day := hour.Truncate(24 * time.Hour)
		daily := map[string]interface{}{
			"time":                      []int64{day.Unix()},
			"temperature_2m_mean":       []float64{2.5},
			"apparent_temperature_mean": []float64{1.0},
			"sunset":                    []int64{day.Add(22 * time.Hour).Unix()},
			"sunrise":                   []int64{day.Add(13 * time.Hour).Unix()},
			"weather_code":              []float64{3.0},
		}
		require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
			"hourly": hourly,
			"daily":  daily,
		}))
	}))
}

func newTestConfig(aqURL, meteoURL string) *config.Config {
	cfg := config.NewConfig()
	cfg.Zephyr.OpenAQ.BaseURL = aqURL
	cfg.Zephyr.OpenAQ.APIKey = "test-key"
	cfg.Zephyr.OpenAQ.Quota.ThrottleFloorSeconds = 0
	cfg.Zephyr.OpenMeteo.BaseURL = meteoURL
	cfg.Zephyr.OpenMeteo.Retry.MaxAttempts = 1
	cfg.Zephyr.Pipeline.Cities = []entity.City{
		{Name: "Chicago", Latitude: 41.8781, Longitude: -87.6298, Timezone: "America/Chicago"},
	}
	cfg.Zephyr.Pipeline.Export.Enabled = false
	return cfg
}

func newTestJob(t *testing.T, hour time.Time, log *callLog, repo *fakeRepo, migrator *fakeMigrator) *job.PipelineJob {
	t.Helper()
	aq := newOpenAQServer(t, hour)
	t.Cleanup(aq.Close)
	meteo := newOpenMeteoServer(t, hour)
	t.Cleanup(meteo.Close)

	cfg := newTestConfig(aq.URL, meteo.URL)
	aqClient := openaq.NewClient(cfg.Zephyr.OpenAQ)
	meteoClient := openmeteo.NewClient(cfg.Zephyr.OpenMeteo)
	recorder := metrics.Noop{}

	return job.NewPipelineJob(job.PipelineJobParams{
		Config:        cfg,
		Sensors:       reader.NewSensorDirectoryReader(aqClient, cfg.Zephyr.OpenAQ, recorder),
		Observations:  reader.NewObservationReader(aqClient, cfg.Zephyr.OpenAQ, recorder),
		Forecast:      reader.NewForecastReader(meteoClient, recorder),
		Merger:        processor.NewWeatherMergeProcessor(recorder),
		Reconciler:    processor.NewRecordReconciler(recorder),
		TableWriter:   writer.NewCleanedTableWriter(repo, recorder),
		ExportWriter:  writer.NewParquetExportWriter(cfg.Zephyr.Pipeline.Export, nil),
		Migrator:      migrator,
		MigrationFS:   fstest.MapFS{},
		MigrationPath: "postgres",
		Recorder:      recorder,
	})
}

func TestPipelineJob_EndToEndRun(t *testing.T) {
	// Two hours back keeps the observation inside the fetch window even at an
	// hour boundary.
	hour := time.Now().UTC().Truncate(time.Hour).Add(-2 * time.Hour)
	log := &callLog{}
	repo := &fakeRepo{log: log}
	migrator := &fakeMigrator{log: log}

	n, err := newTestJob(t, hour, log, repo, migrator).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Migration runs before the table is touched.
	assert.Equal(t, []string{"migrate", "reset", "insert", "count"}, log.calls)
	assert.Equal(t, "postgres", migrator.path)

	require.Len(t, repo.inserted, 1)
	rec := repo.inserted[0]
	assert.Equal(t, "Chicago", rec.City)
	assert.Equal(t, "pm25", rec.ParameterName)
	assert.Equal(t, 10.0, rec.Value)
	assert.Equal(t, 9.0, rec.SummaryAvg)
	assert.True(t, rec.DatetimeFromUTC.Equal(hour))
	// Weather context comes from the hourly series.
	assert.Equal(t, 0.5, rec.Temperature2M)
	require.NotNil(t, rec.Temperature2MMean)
	assert.Equal(t, 2.5, *rec.Temperature2MMean)
	assert.Len(t, rec.UniqueID, 12)
}

func TestPipelineJob_MigrationFailureAbortsBeforeLoad(t *testing.T) {
	hour := time.Now().UTC().Truncate(time.Hour).Add(-2 * time.Hour)
	log := &callLog{}
	repo := &fakeRepo{log: log}
	migrator := &fakeMigrator{log: log, err: errors.New("dirty migration state")}

	_, err := newTestJob(t, hour, log, repo, migrator).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema migration failed")
	assert.Equal(t, []string{"migrate"}, log.calls)
	assert.Empty(t, repo.inserted)
}

func TestPipelineJob_LoadFailureIsFatal(t *testing.T) {
	hour := time.Now().UTC().Truncate(time.Hour).Add(-2 * time.Hour)
	log := &callLog{}
	repo := &fakeRepo{log: log, resetErr: errors.New("permission denied")}
	migrator := &fakeMigrator{log: log}

	_, err := newTestJob(t, hour, log, repo, migrator).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load failed")
}
