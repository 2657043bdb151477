package openmeteo_test

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wmutunga/zephyr/internal/config"
	"github.com/wmutunga/zephyr/internal/domain/entity"
	"github.com/wmutunga/zephyr/internal/openmeteo"
)

func testOpenMeteoConfig(baseURL string) config.OpenMeteoConfig {
	return config.OpenMeteoConfig{
		BaseURL:            baseURL,
		PastDays:           2,
		ForecastDays:       1,
		CacheExpiryMinutes: 15,
		Retry: config.RetryConfig{
			MaxAttempts:       1,
			InitialIntervalMs: 1,
			MaxIntervalMs:     10,
			Factor:            2.0,
		},
	}
}

func testRegistry() entity.CityRegistry {
	return entity.CityRegistry{
		{Name: "Chicago", Latitude: 41.8781, Longitude: -87.6298, Timezone: "America/Chicago"},
	}
}

// validPayload builds a response with two hourly steps and one daily step,
// with a null hole in the precipitation series.
func validPayload() map[string]interface{} {
	hourly := map[string]interface{}{
		"time": []int64{1704103200, 1704106800},
	}
	for _, name := range openmeteo.HourlyVariables {
		hourly[name] = []interface{}{1.5, 2.5}
	}
	hourly["precipitation"] = []interface{}{0.0, nil}

	daily := map[string]interface{}{
		"time":                      []int64{1704085200},
		"temperature_2m_mean":       []interface{}{4.2},
		"apparent_temperature_mean": []interface{}{1.9},
		"sunset":                    []int64{1704150000},
		"sunrise":                   []int64{1704115800},
		"weather_code":              []interface{}{3.0},
	}
	return map[string]interface{}{"hourly": hourly, "daily": daily}
}

func TestFetchAll(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		require.NoError(t, json.NewEncoder(w).Encode(validPayload()))
	}))
	defer server.Close()

	c := openmeteo.NewClient(testOpenMeteoConfig(server.URL))
	daily, hourly, err := c.FetchAll(context.Background(), testRegistry())
	require.NoError(t, err)

	assert.Equal(t, "41.8781", gotQuery["latitude"])
	assert.Equal(t, "-87.6298", gotQuery["longitude"])
	assert.Equal(t, "America/Chicago", gotQuery["timezone"])
	assert.Equal(t, "2", gotQuery["past_days"])
	assert.Equal(t, "1", gotQuery["forecast_days"])
	assert.Equal(t, "unixtime", gotQuery["timeformat"])
	assert.Contains(t, gotQuery["hourly"], "temperature_2m")
	assert.Contains(t, gotQuery["daily"], "sunrise")

	require.Len(t, hourly, 2)
	assert.Equal(t, "Chicago", hourly[0].City)
	assert.Equal(t, time.Unix(1704103200, 0).UTC(), hourly[0].DatetimeUTC)
	assert.Equal(t, 1.5, hourly[0].Temperature2M)
	assert.Equal(t, 0.0, hourly[0].Precipitation)
	// A null series entry decodes to NaN, not zero.
	assert.True(t, math.IsNaN(hourly[1].Precipitation))

	require.Len(t, daily, 1)
	assert.Equal(t, "Chicago", daily[0].City)
	assert.Equal(t, time.Unix(1704085200, 0).UTC().Truncate(24*time.Hour), daily[0].Date)
	assert.Equal(t, 4.2, daily[0].Temperature2MMean)
	assert.Equal(t, int64(1704115800), daily[0].SunriseEpoch)
	assert.Equal(t, int64(1704150000), daily[0].SunsetEpoch)
}

func TestFetchAll_MissingVariableFailsCity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := validPayload()
		delete(payload["hourly"].(map[string]interface{}), "uv_index")
		require.NoError(t, json.NewEncoder(w).Encode(payload))
	}))
	defer server.Close()

	c := openmeteo.NewClient(testOpenMeteoConfig(server.URL))
	daily, hourly, err := c.FetchAll(context.Background(), testRegistry())

	// One bad city yields a soft error and no rows, not a panic or a
	// misassigned column.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uv_index")
	assert.Empty(t, daily)
	assert.Empty(t, hourly)
}

func TestFetchAll_LengthMismatchFailsCity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := validPayload()
		payload["hourly"].(map[string]interface{})["cloud_cover"] = []interface{}{1.0}
		require.NoError(t, json.NewEncoder(w).Encode(payload))
	}))
	defer server.Close()

	c := openmeteo.NewClient(testOpenMeteoConfig(server.URL))
	_, _, err := c.FetchAll(context.Background(), testRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cloud_cover")
	assert.Contains(t, err.Error(), "want 2")
}

func TestFetchAll_CachesWithinExpiry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.NoError(t, json.NewEncoder(w).Encode(validPayload()))
	}))
	defer server.Close()

	c := openmeteo.NewClient(testOpenMeteoConfig(server.URL))
	_, _, err := c.FetchAll(context.Background(), testRegistry())
	require.NoError(t, err)
	_, _, err = c.FetchAll(context.Background(), testRegistry())
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func TestFetchAll_RetriesTransientFailure(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		require.NoError(t, json.NewEncoder(w).Encode(validPayload()))
	}))
	defer server.Close()

	cfg := testOpenMeteoConfig(server.URL)
	cfg.Retry.MaxAttempts = 3
	c := openmeteo.NewClient(cfg)

	_, hourly, err := c.FetchAll(context.Background(), testRegistry())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, hourly, 2)
}
