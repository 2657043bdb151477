// Package openmeteo implements the Open-Meteo forecast client. Each city is
// fetched with a fixed catalog of hourly and daily variables through a
// caching, retrying transport; series are decoded by variable name and
// validated against the request, never by position.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/wmutunga/zephyr/internal/config"
	"github.com/wmutunga/zephyr/internal/domain/entity"
	"github.com/wmutunga/zephyr/pkg/util/exception"
	"github.com/wmutunga/zephyr/pkg/util/logger"
)

const moduleName = "openmeteo"

// Client is the Open-Meteo forecast client.
type Client struct {
	cfg       config.OpenMeteoConfig
	transport *transport
}

// NewClient creates an Open-Meteo client from the loaded configuration.
func NewClient(cfg config.OpenMeteoConfig) *Client {
	return &Client{cfg: cfg, transport: newTransport(cfg)}
}

// FetchAll fetches the daily and hourly series for every registry city,
// sequentially, one request per city. A failing city is logged and skipped;
// the aggregate per-city error is returned alongside whatever was gathered so
// the caller can surface it without aborting the run.
func (c *Client) FetchAll(ctx context.Context, registry entity.CityRegistry) ([]entity.DailyWeather, []entity.HourlyWeather, error) {
	var (
		daily  []entity.DailyWeather
		hourly []entity.HourlyWeather
		soft   error
	)
	for _, city := range registry {
		d, h, err := c.fetchCity(ctx, city)
		if err != nil {
			if ctx.Err() != nil {
				return daily, hourly, ctx.Err()
			}
			logger.Errorf("openmeteo: skipping city %q: %v", city.Name, err)
			soft = multierror.Append(soft, fmt.Errorf("city %q: %w", city.Name, err))
			continue
		}
		daily = append(daily, d...)
		hourly = append(hourly, h...)
		logger.Infof("openmeteo: fetched %d hourly and %d daily rows for %q", len(h), len(d), city.Name)
	}
	return daily, hourly, soft
}

func (c *Client) fetchCity(ctx context.Context, city entity.City) ([]entity.DailyWeather, []entity.HourlyWeather, error) {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%g", city.Latitude))
	values.Set("longitude", fmt.Sprintf("%g", city.Longitude))
	values.Set("hourly", strings.Join(HourlyVariables, ","))
	values.Set("daily", strings.Join(DailyVariables, ","))
	values.Set("timezone", city.Timezone)
	values.Set("past_days", fmt.Sprintf("%d", c.cfg.PastDays))
	values.Set("forecast_days", fmt.Sprintf("%d", c.cfg.ForecastDays))
	values.Set("timeformat", "unixtime")

	endpoint := fmt.Sprintf("%s/forecast?%s", c.cfg.BaseURL, values.Encode())
	body, err := c.transport.get(ctx, endpoint)
	if err != nil {
		return nil, nil, err
	}

	var payload struct {
		Hourly map[string]json.RawMessage `json:"hourly"`
		Daily  map[string]json.RawMessage `json:"daily"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, nil, exception.NewPipelineError(moduleName, "failed to decode forecast response", err, false)
	}

	hourly, err := decodeHourly(payload.Hourly, city.Name)
	if err != nil {
		return nil, nil, err
	}
	daily, err := decodeDaily(payload.Daily, city.Name)
	if err != nil {
		return nil, nil, err
	}
	return daily, hourly, nil
}

// decodeHourly resolves every requested hourly variable by name and verifies
// it is present with the same length as the time axis. A missing variable or
// a length mismatch is a hard, descriptive error: silently misassigned
// columns are worse than no data.
func decodeHourly(block map[string]json.RawMessage, cityName string) ([]entity.HourlyWeather, error) {
	times, err := timeAxis(block, "hourly")
	if err != nil {
		return nil, err
	}
	series := make(map[string][]float64, len(HourlyVariables))
	for _, name := range HourlyVariables {
		s, err := floatSeries(block, "hourly", name, len(times))
		if err != nil {
			return nil, err
		}
		series[name] = s
	}

	rows := make([]entity.HourlyWeather, len(times))
	for i, ts := range times {
		rows[i] = entity.HourlyWeather{
			City:                cityName,
			DatetimeUTC:         time.Unix(ts, 0).UTC(),
			Temperature2M:       series["temperature_2m"][i],
			ApparentTemperature: series["apparent_temperature"][i],
			DewPoint2M:          series["dew_point_2m"][i],
			RelativeHumidity2M:  series["relative_humidity_2m"][i],
			Precipitation:       series["precipitation"][i],
			WindSpeed10M:        series["wind_speed_10m"][i],
			WindDirection10M:    series["wind_direction_10m"][i],
			WindGusts10M:        series["wind_gusts_10m"][i],
			CloudCover:          series["cloud_cover"][i],
			ShortwaveRadiation:  series["shortwave_radiation"][i],
			SnowDepth:           series["snow_depth"][i],
			SurfacePressure:     series["surface_pressure"][i],
			PressureMSL:         series["pressure_msl"][i],
			UVIndex:             series["uv_index"][i],
		}
	}
	return rows, nil
}

func decodeDaily(block map[string]json.RawMessage, cityName string) ([]entity.DailyWeather, error) {
	times, err := timeAxis(block, "daily")
	if err != nil {
		return nil, err
	}
	tempMean, err := floatSeries(block, "daily", "temperature_2m_mean", len(times))
	if err != nil {
		return nil, err
	}
	appMean, err := floatSeries(block, "daily", "apparent_temperature_mean", len(times))
	if err != nil {
		return nil, err
	}
	sunset, err := intSeries(block, "daily", "sunset", len(times))
	if err != nil {
		return nil, err
	}
	sunrise, err := intSeries(block, "daily", "sunrise", len(times))
	if err != nil {
		return nil, err
	}
	code, err := floatSeries(block, "daily", "weather_code", len(times))
	if err != nil {
		return nil, err
	}

	rows := make([]entity.DailyWeather, len(times))
	for i, ts := range times {
		rows[i] = entity.DailyWeather{
			City:                    cityName,
			Date:                    time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Temperature2MMean:       tempMean[i],
			ApparentTemperatureMean: appMean[i],
			SunsetEpoch:             sunset[i],
			SunriseEpoch:            sunrise[i],
			WeatherCode:             code[i],
		}
	}
	return rows, nil
}

func timeAxis(block map[string]json.RawMessage, section string) ([]int64, error) {
	raw, ok := block["time"]
	if !ok {
		return nil, exception.NewPipelineError(moduleName,
			fmt.Sprintf("%s response has no time axis", section), nil, false)
	}
	var times []int64
	if err := json.Unmarshal(raw, &times); err != nil {
		return nil, exception.NewPipelineError(moduleName,
			fmt.Sprintf("failed to decode %s time axis", section), err, false)
	}
	return times, nil
}

func floatSeries(block map[string]json.RawMessage, section, name string, wantLen int) ([]float64, error) {
	raw, ok := block[name]
	if !ok {
		return nil, exception.NewPipelineError(moduleName,
			fmt.Sprintf("%s response is missing requested variable %q", section, name), nil, false)
	}
	var nullable []*float64
	if err := json.Unmarshal(raw, &nullable); err != nil {
		return nil, exception.NewPipelineError(moduleName,
			fmt.Sprintf("failed to decode %s variable %q", section, name), err, false)
	}
	if len(nullable) != wantLen {
		return nil, exception.NewPipelineError(moduleName,
			fmt.Sprintf("%s variable %q has %d values, want %d", section, name, len(nullable), wantLen), nil, false)
	}
	out := make([]float64, wantLen)
	for i, v := range nullable {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	return out, nil
}

func intSeries(block map[string]json.RawMessage, section, name string, wantLen int) ([]int64, error) {
	raw, ok := block[name]
	if !ok {
		return nil, exception.NewPipelineError(moduleName,
			fmt.Sprintf("%s response is missing requested variable %q", section, name), nil, false)
	}
	var out []int64
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, exception.NewPipelineError(moduleName,
			fmt.Sprintf("failed to decode %s variable %q", section, name), err, false)
	}
	if len(out) != wantLen {
		return nil, exception.NewPipelineError(moduleName,
			fmt.Sprintf("%s variable %q has %d values, want %d", section, name, len(out), wantLen), nil, false)
	}
	return out, nil
}
