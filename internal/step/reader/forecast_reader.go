package reader

import (
	"context"

	"github.com/wmutunga/zephyr/internal/domain/entity"
	"github.com/wmutunga/zephyr/internal/metrics"
	"github.com/wmutunga/zephyr/pkg/util/logger"
)

// forecastAPI is the slice of the Open-Meteo client the reader needs.
type forecastAPI interface {
	FetchAll(ctx context.Context, registry entity.CityRegistry) ([]entity.DailyWeather, []entity.HourlyWeather, error)
}

// ForecastReader retrieves the daily and hourly weather series for the city
// registry. The quota model of the air-quality provider does not apply here;
// resilience lives in the client's caching and retrying transport.
type ForecastReader struct {
	api      forecastAPI
	recorder metrics.Recorder
}

// NewForecastReader creates a weather series reader over the given client.
func NewForecastReader(api forecastAPI, recorder metrics.Recorder) *ForecastReader {
	return &ForecastReader{api: api, recorder: recorder}
}

// Fetch returns the daily and hourly series for every registry city. City
// label attachment happens inside the client before concatenation. Per-city
// failures were already logged by the client; they surface here only as a
// warning so the run continues with whatever was gathered.
func (r *ForecastReader) Fetch(ctx context.Context, registry entity.CityRegistry) ([]entity.DailyWeather, []entity.HourlyWeather, error) {
	r.recorder.IncProviderRequest("openmeteo")
	daily, hourly, err := r.api.FetchAll(ctx, registry)
	if err != nil {
		if ctx.Err() != nil {
			return daily, hourly, err
		}
		logger.Warnf("forecast: partial weather fetch: %v", err)
	}
	r.recorder.AddRows("weather_daily", len(daily))
	r.recorder.AddRows("weather_hourly", len(hourly))
	return daily, hourly, nil
}
