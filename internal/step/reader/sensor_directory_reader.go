// Package reader implements the pipeline's ingest steps: sensor discovery,
// rate-limited observation fetching and weather series fetching.
package reader

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/wmutunga/zephyr/internal/config"
	"github.com/wmutunga/zephyr/internal/domain/entity"
	"github.com/wmutunga/zephyr/internal/metrics"
	"github.com/wmutunga/zephyr/internal/openaq"
	"github.com/wmutunga/zephyr/pkg/util/logger"
)

// directoryAPI is the slice of the OpenAQ client the resolver needs.
type directoryAPI interface {
	Locations(ctx context.Context, lat, lon float64) ([]openaq.Location, error)
}

// SensorDirectoryReader discovers the active sensors near each registry
// city. A failing city logs and contributes zero sensors; the aggregate
// result is whatever cities succeeded.
type SensorDirectoryReader struct {
	api      directoryAPI
	cfg      config.OpenAQConfig
	recorder metrics.Recorder
	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// NewSensorDirectoryReader creates a resolver over the given OpenAQ client.
func NewSensorDirectoryReader(api directoryAPI, cfg config.OpenAQConfig, recorder metrics.Recorder) *SensorDirectoryReader {
	return &SensorDirectoryReader{
		api:      api,
		cfg:      cfg,
		recorder: recorder,
		now:      time.Now,
	}
}

// Resolve discovers sensors for every city in the registry and filters them
// to those whose last reading lies within the trailing freshness window.
// Stale sensors are dropped before any time-series fetch is attempted, which
// bounds wasted quota. The returned error aggregates per-city soft failures
// and is informational; the sensor slice is always usable.
func (r *SensorDirectoryReader) Resolve(ctx context.Context, registry entity.CityRegistry) ([]entity.Sensor, error) {
	var (
		sensors []entity.Sensor
		soft    error
	)
	for _, city := range registry {
		select {
		case <-ctx.Done():
			return sensors, ctx.Err()
		default:
		}

		r.recorder.IncProviderRequest("openaq")
		locations, err := r.api.Locations(ctx, city.Latitude, city.Longitude)
		if err != nil {
			logger.Errorf("resolver: location search failed for city %q: %v", city.Name, err)
			soft = multierror.Append(soft, err)
			continue
		}
		found := 0
		for _, loc := range locations {
			for _, ref := range loc.Sensors {
				sensors = append(sensors, sensorFromLocation(loc, ref, city.Name))
				found++
			}
		}
		logger.Infof("resolver: city %q yielded %d sensors from %d locations", city.Name, found, len(locations))
	}

	window := time.Duration(r.cfg.FreshnessWindowDays) * 24 * time.Hour
	now := r.now().UTC()
	fresh := sensors[:0]
	for _, s := range sensors {
		if s.SeenWithin(now, window) {
			fresh = append(fresh, s)
		}
	}
	logger.Infof("resolver: %d of %d sensors are fresh within %d days", len(fresh), len(sensors), r.cfg.FreshnessWindowDays)
	return fresh, soft
}

// sensorFromLocation flattens one nested sensor entry. Each sensor inherits
// its parent location's coordinates, seen timestamps, station name and
// timezone; the city label is the caller's registry name, not the provider's
// own city field. Missing provider fields default to empty-equivalent values
// so row shape stays consistent.
func sensorFromLocation(loc openaq.Location, ref openaq.SensorRef, cityName string) entity.Sensor {
	s := entity.Sensor{
		SensorID:    ref.ID,
		City:        cityName,
		StationName: loc.Name,
		Timezone:    loc.Timezone,
	}
	if loc.Coordinates != nil {
		s.Latitude = loc.Coordinates.Latitude
		s.Longitude = loc.Coordinates.Longitude
	}
	if loc.DatetimeFirst != nil {
		s.FirstSeenUTC = parseUTC(loc.DatetimeFirst.UTC)
	}
	if loc.DatetimeLast != nil {
		s.LastSeenUTC = parseUTC(loc.DatetimeLast.UTC)
	}
	return s
}

// parseUTC parses an RFC 3339 timestamp, returning the zero time on failure.
func parseUTC(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
