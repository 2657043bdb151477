package reader

import (
	"context"
	"time"

	"github.com/wmutunga/zephyr/internal/config"
	"github.com/wmutunga/zephyr/internal/domain/entity"
	"github.com/wmutunga/zephyr/internal/metrics"
	"github.com/wmutunga/zephyr/internal/openaq"
	"github.com/wmutunga/zephyr/pkg/util/logger"
)

// timeSeriesAPI is the slice of the OpenAQ client the fetcher needs.
type timeSeriesAPI interface {
	SensorHours(ctx context.Context, sensorID int64, from, to time.Time, page int) ([]openaq.HourlyMeasurement, openaq.Quota, error)
}

// ObservationReader retrieves all hourly observation pages for a set of
// sensors within a date range, honoring the remote usage quota. Execution is
// strictly sequential: the quota is a single shared budget and is simplest to
// respect under one request at a time.
type ObservationReader struct {
	api      timeSeriesAPI
	cfg      config.OpenAQConfig
	recorder metrics.Recorder
	// sleep is injectable for tests; defaults to a context-aware sleep.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewObservationReader creates a fetcher over the given OpenAQ client.
func NewObservationReader(api timeSeriesAPI, cfg config.OpenAQConfig, recorder metrics.Recorder) *ObservationReader {
	return &ObservationReader{
		api:      api,
		cfg:      cfg,
		recorder: recorder,
		sleep:    sleepCtx,
	}
}

// Fetch pages through the time-series endpoint for every sensor over
// [from, to]. Pagination for a sensor ends when a page comes back empty.
// After every page the response's quota signals decide the sleep before the
// next request. A transport, decode or status failure on one sensor logs and
// abandons that sensor's loop; partial results are always returned.
func (r *ObservationReader) Fetch(ctx context.Context, sensors []entity.Sensor, from, to time.Time) ([]entity.Observation, error) {
	var observations []entity.Observation

	for _, sensor := range sensors {
		n, err := r.fetchSensor(ctx, sensor, from, to, &observations)
		if err != nil {
			if ctx.Err() != nil {
				return observations, ctx.Err()
			}
			logger.Errorf("fetcher: abandoning sensor %d (%q): %v", sensor.SensorID, sensor.City, err)
			continue
		}
		logger.Debugf("fetcher: sensor %d yielded %d observations", sensor.SensorID, n)
	}

	logger.Infof("fetcher: gathered %d observations from %d sensors", len(observations), len(sensors))
	r.recorder.AddRows("fetch", len(observations))
	return observations, nil
}

func (r *ObservationReader) fetchSensor(ctx context.Context, sensor entity.Sensor, from, to time.Time, out *[]entity.Observation) (int, error) {
	count := 0
	for page := 1; ; page++ {
		r.recorder.IncProviderRequest("openaq")
		results, quota, err := r.api.SensorHours(ctx, sensor.SensorID, from, to, page)
		if err != nil {
			return count, err
		}
		r.recorder.IncPageFetched()

		if len(results) == 0 {
			return count, nil
		}
		for _, m := range results {
			*out = append(*out, mergeObservation(m, sensor))
			count++
		}

		delay := quota.NextDelay(r.cfg.Quota)
		if quota.Remaining <= r.cfg.Quota.MinRemaining || quota.Used >= r.cfg.Quota.MaxUsed {
			logger.Warnf("fetcher: quota near exhaustion (used=%d remaining=%d), waiting %v", quota.Used, quota.Remaining, delay)
			r.recorder.IncQuotaWait(delay)
		}
		if err := r.sleep(ctx, delay); err != nil {
			return count, err
		}

		// A short page means the next one would be empty anyway.
		if len(results) < r.cfg.PageLimit {
			return count, nil
		}
	}
}

// mergeObservation joins one provider record with its sensor's metadata.
// Record fields win on key collision; the sensor only contributes the city
// label, station name and coordinates.
func mergeObservation(m openaq.HourlyMeasurement, sensor entity.Sensor) entity.Observation {
	return entity.Observation{
		SensorID:        sensor.SensorID,
		ParameterName:   m.Parameter.Name,
		ParameterUnits:  m.Parameter.Units,
		Value:           m.Value,
		SummaryAvg:      m.Summary.Avg,
		DatetimeFromUTC: m.Period.DatetimeFrom.UTC,
		DatetimeToUTC:   m.Period.DatetimeTo.UTC,
		City:            sensor.City,
		StationName:     sensor.StationName,
		Latitude:        sensor.Latitude,
		Longitude:       sensor.Longitude,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
