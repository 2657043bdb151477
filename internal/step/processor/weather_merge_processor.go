// Package processor implements the pipeline's transform steps: weather time
// alignment and the final record reconciliation.
package processor

import (
	"time"

	"github.com/wmutunga/zephyr/internal/domain/entity"
	"github.com/wmutunga/zephyr/internal/metrics"
	"github.com/wmutunga/zephyr/pkg/util/logger"
)

// WeatherMergeProcessor reconciles the hourly and daily weather series onto
// a single per-city hourly table.
type WeatherMergeProcessor struct {
	recorder metrics.Recorder
}

// NewWeatherMergeProcessor creates a merge engine.
func NewWeatherMergeProcessor(recorder metrics.Recorder) *WeatherMergeProcessor {
	return &WeatherMergeProcessor{recorder: recorder}
}

type dailyKey struct {
	city string
	date time.Time
}

// Align left-joins the hourly series onto the daily series on (date, city):
// every hourly row survives even when no daily aggregate exists for that
// date and city, with the daily fields left nil. Sunrise and sunset epochs
// are converted to UTC instants and then reprojected into each row's
// city-specific local zone from the registry; the conversion is per-row
// because the registry's cities span multiple zones. Row order follows the
// hourly input, which is deterministic under sequential fetching.
func (p *WeatherMergeProcessor) Align(daily []entity.DailyWeather, hourly []entity.HourlyWeather, registry entity.CityRegistry) []entity.WeatherRecord {
	dailyIndex := make(map[dailyKey]entity.DailyWeather, len(daily))
	for _, d := range daily {
		dailyIndex[dailyKey{city: d.City, date: d.Date}] = d
	}

	zones := p.loadZones(registry)

	records := make([]entity.WeatherRecord, 0, len(hourly))
	for _, h := range hourly {
		rec := entity.WeatherRecord{
			City:                h.City,
			DatetimeUTC:         h.DatetimeUTC,
			Temperature2M:       h.Temperature2M,
			ApparentTemperature: h.ApparentTemperature,
			DewPoint2M:          h.DewPoint2M,
			RelativeHumidity2M:  h.RelativeHumidity2M,
			Precipitation:       h.Precipitation,
			WindSpeed10M:        h.WindSpeed10M,
			WindDirection10M:    h.WindDirection10M,
			WindGusts10M:        h.WindGusts10M,
			CloudCover:          h.CloudCover,
			ShortwaveRadiation:  h.ShortwaveRadiation,
			SnowDepth:           h.SnowDepth,
			SurfacePressure:     h.SurfacePressure,
			PressureMSL:         h.PressureMSL,
			UVIndex:             h.UVIndex,
		}

		date := h.DatetimeUTC.Truncate(24 * time.Hour)
		if d, ok := dailyIndex[dailyKey{city: h.City, date: date}]; ok {
			tempMean := d.Temperature2MMean
			appMean := d.ApparentTemperatureMean
			code := d.WeatherCode
			rec.Temperature2MMean = &tempMean
			rec.ApparentTemperatureMean = &appMean
			rec.WeatherCode = &code

			if loc, ok := zones[h.City]; ok {
				sunrise := time.Unix(d.SunriseEpoch, 0).UTC().In(loc)
				sunset := time.Unix(d.SunsetEpoch, 0).UTC().In(loc)
				rec.SunriseLocal = &sunrise
				rec.SunsetLocal = &sunset
			}
		}

		records = append(records, rec)
	}

	p.recorder.AddRows("align", len(records))
	return records
}

// loadZones resolves each registry city's timezone once per run. A city with
// an unloadable zone keeps its daily fields but loses the local sunrise and
// sunset columns.
func (p *WeatherMergeProcessor) loadZones(registry entity.CityRegistry) map[string]*time.Location {
	zones := make(map[string]*time.Location, len(registry))
	for _, c := range registry {
		loc, err := c.Location()
		if err != nil {
			logger.Warnf("merge: cannot load timezone %q for city %q: %v", c.Timezone, c.Name, err)
			continue
		}
		zones[c.Name] = loc
	}
	return zones
}
