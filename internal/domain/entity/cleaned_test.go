package entity_test

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wmutunga/zephyr/internal/domain/entity"
)

func TestCleanedRecordTableName(t *testing.T) {
	assert.Equal(t, "daily_weather", entity.CleanedRecord{}.TableName())
}

func TestCleanedColumns_LexicalOrderAndNullableSet(t *testing.T) {
	cols := entity.CleanedColumns()
	require.Len(t, cols, 32)

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	assert.True(t, sort.StringsAreSorted(names), "columns must be in lexical order")

	nullable := map[string]bool{}
	for _, c := range cols {
		if c.Nullable {
			nullable[c.Name] = true
		}
	}
	// Exactly the daily-side columns are nullable.
	assert.Equal(t, map[string]bool{
		"apparent_temperature_mean": true,
		"sunrise_local":             true,
		"sunset_local":              true,
		"temperature_2m_mean":       true,
		"weather_code":              true,
	}, nullable)
}

func TestToArchive(t *testing.T) {
	from := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	mean := 4.2
	sunrise := time.Date(2024, 1, 1, 6, 15, 0, 0, time.UTC)

	rec := entity.CleanedRecord{
		UniqueID:          "a1b2c3d4e5f6",
		City:              "Chicago",
		ParameterName:     "pm25",
		Value:             11.0,
		DatetimeFromUTC:   from,
		DatetimeToUTC:     from.Add(time.Hour),
		Temperature2MMean: &mean,
		SunriseLocal:      &sunrise,
		GenTimestamp:      from.Add(2 * time.Hour),
	}

	a := rec.ToArchive()
	assert.Equal(t, "a1b2c3d4e5f6", a.UniqueID)
	assert.Equal(t, from.UnixMilli(), a.DatetimeFromUTC)
	assert.Equal(t, from.Add(time.Hour).UnixMilli(), a.DatetimeToUTC)
	require.NotNil(t, a.Temperature2MMean)
	assert.Equal(t, 4.2, *a.Temperature2MMean)
	require.NotNil(t, a.SunriseLocal)
	assert.Equal(t, sunrise.UnixMilli(), *a.SunriseLocal)
	// Absent daily-side fields stay absent.
	assert.Nil(t, a.WeatherCode)
	assert.Nil(t, a.SunsetLocal)
}

func TestSensorSeenWithin(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	window := 48 * time.Hour

	seen := func(last time.Time) bool {
		return entity.Sensor{SensorID: 1, LastSeenUTC: last}.SeenWithin(now, window)
	}

	assert.True(t, seen(now))                               // boundary: exactly now
	assert.True(t, seen(now.Add(-window)))                  // boundary: window edge is inclusive
	assert.True(t, seen(now.Add(-24*time.Hour)))            // inside the window
	assert.False(t, seen(now.Add(-window-time.Second)))     // just outside
	assert.False(t, seen(now.Add(time.Minute)))             // future readings do not count
	assert.False(t, seen(time.Time{}))                      // provider omitted the field
}

func TestDefaultCityRegistry(t *testing.T) {
	cities := entity.DefaultCityRegistry()
	require.Len(t, cities, 4)

	zones := map[string]string{}
	for _, c := range cities {
		zones[c.Name] = c.Timezone
	}
	assert.Equal(t, "America/Los_Angeles", zones["Los Angeles"])
	assert.Equal(t, "America/New_York", zones["New York"])
	// Houston shares Chicago's zone.
	assert.Equal(t, "America/Chicago", zones["Houston"])
	assert.Equal(t, "America/Chicago", zones["Chicago"])
}
