package processor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wmutunga/zephyr/internal/domain/entity"
	"github.com/wmutunga/zephyr/internal/metrics"
)

func mergeRegistry() entity.CityRegistry {
	return entity.CityRegistry{
		{Name: "Chicago", Latitude: 41.8781, Longitude: -87.6298, Timezone: "America/Chicago"},
		{Name: "Houston", Latitude: 29.7604, Longitude: -95.3698, Timezone: "America/Chicago"},
	}
}

func TestAlign_LeftJoinKeepsUnmatchedHourlyRows(t *testing.T) {
	p := NewWeatherMergeProcessor(metrics.Noop{})

	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	hourly := []entity.HourlyWeather{
		{City: "Chicago", DatetimeUTC: jan1.Add(6 * time.Hour), Temperature2M: -3.5},
		{City: "Chicago", DatetimeUTC: jan1.Add(30 * time.Hour), Temperature2M: -1.0}, // Jan 2, no daily row
		{City: "Houston", DatetimeUTC: jan1.Add(6 * time.Hour), Temperature2M: 12.0},  // other city, same date
	}
	daily := []entity.DailyWeather{
		{City: "Chicago", Date: jan1, Temperature2MMean: -2.2, ApparentTemperatureMean: -6.1, WeatherCode: 3,
			SunriseEpoch: 1704110400, SunsetEpoch: 1704143700},
	}

	records := p.Align(daily, hourly, mergeRegistry())
	require.Len(t, records, 3)

	// Matched row carries the daily aggregates.
	require.NotNil(t, records[0].Temperature2MMean)
	assert.Equal(t, -2.2, *records[0].Temperature2MMean)
	require.NotNil(t, records[0].WeatherCode)
	assert.Equal(t, 3.0, *records[0].WeatherCode)

	// Unmatched date survives with nil daily fields.
	assert.Nil(t, records[1].Temperature2MMean)
	assert.Nil(t, records[1].SunriseLocal)
	assert.Equal(t, -1.0, records[1].Temperature2M)

	// The daily row belongs to Chicago, not Houston: the join key includes
	// the city, so Houston's hour must not pick it up.
	assert.Nil(t, records[2].Temperature2MMean)
}

func TestAlign_SunriseSunsetConvertToCityLocalZone(t *testing.T) {
	p := NewWeatherMergeProcessor(metrics.Noop{})

	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	hourly := []entity.HourlyWeather{{City: "Chicago", DatetimeUTC: jan1.Add(12 * time.Hour)}}
	daily := []entity.DailyWeather{{City: "Chicago", Date: jan1, SunriseEpoch: 1704110400, SunsetEpoch: 1704143700}}

	records := p.Align(daily, hourly, mergeRegistry())
	require.Len(t, records, 1)
	require.NotNil(t, records[0].SunriseLocal)

	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	// 1704110400 = 2024-01-01 12:00:00 UTC = 06:00:00 CST.
	sunrise := *records[0].SunriseLocal
	assert.Equal(t, chicago.String(), sunrise.Location().String())
	assert.Equal(t, 6, sunrise.Hour())
	assert.True(t, sunrise.Equal(time.Unix(1704110400, 0)))
}

func TestAlign_RowOrderFollowsHourlyInput(t *testing.T) {
	p := NewWeatherMergeProcessor(metrics.Noop{})

	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	hourly := []entity.HourlyWeather{
		{City: "Houston", DatetimeUTC: jan1.Add(2 * time.Hour)},
		{City: "Chicago", DatetimeUTC: jan1.Add(1 * time.Hour)},
		{City: "Chicago", DatetimeUTC: jan1.Add(2 * time.Hour)},
	}

	records := p.Align(nil, hourly, mergeRegistry())
	require.Len(t, records, 3)
	assert.Equal(t, "Houston", records[0].City)
	assert.Equal(t, jan1.Add(1*time.Hour), records[1].DatetimeUTC)
	assert.Equal(t, jan1.Add(2*time.Hour), records[2].DatetimeUTC)
}
