// Package openaq implements the HTTP client for the OpenAQ v3 API: location
// discovery around a coordinate and paginated hourly sensor time series, with
// the provider's per-response usage quota surfaced to the caller.
package openaq

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/wmutunga/zephyr/internal/config"
	"github.com/wmutunga/zephyr/pkg/util/exception"
)

const moduleName = "openaq"

// Coordinates is a provider coordinate pair. It is decoded defensively: a
// missing coordinates object yields zero values so row shape stays
// consistent.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DatetimeRef is the provider's {utc, local} timestamp pair.
type DatetimeRef struct {
	UTC   string `json:"utc"`
	Local string `json:"local"`
}

// SensorRef is the nested sensor entry of a location result.
type SensorRef struct {
	ID int64 `json:"id"`
}

// Location is one result of the location-search endpoint.
type Location struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Timezone      string       `json:"timezone"`
	Coordinates   *Coordinates `json:"coordinates"`
	DatetimeFirst *DatetimeRef `json:"datetimeFirst"`
	DatetimeLast  *DatetimeRef `json:"datetimeLast"`
	Sensors       []SensorRef  `json:"sensors"`
}

// HourlyMeasurement is one result of the sensor time-series endpoint.
type HourlyMeasurement struct {
	Value     float64 `json:"value"`
	Parameter struct {
		Name  string `json:"name"`
		Units string `json:"units"`
	} `json:"parameter"`
	Period struct {
		DatetimeFrom DatetimeRef `json:"datetimeFrom"`
		DatetimeTo   DatetimeRef `json:"datetimeTo"`
	} `json:"period"`
	Summary struct {
		Avg float64 `json:"avg"`
	} `json:"summary"`
}

// Client is the OpenAQ HTTP client. All calls attach the API key header; the
// key's presence is validated at configuration load, before any request.
type Client struct {
	cfg    config.OpenAQConfig
	client *http.Client
}

// NewClient creates an OpenAQ client from the loaded configuration.
func NewClient(cfg config.OpenAQConfig) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Locations queries the location-search endpoint for active measurement
// locations within the configured radius of (lat, lon).
func (c *Client) Locations(ctx context.Context, lat, lon float64) ([]Location, error) {
	values := url.Values{}
	values.Set("coordinates", fmt.Sprintf("%g,%g", lat, lon))
	values.Set("radius", fmt.Sprintf("%d", c.cfg.RadiusMeters))
	values.Set("limit", fmt.Sprintf("%d", c.cfg.PageLimit))
	values.Set("countries_id", fmt.Sprintf("%d", c.cfg.CountriesID))
	values.Set("sort", "desc")

	var payload struct {
		Results []Location `json:"results"`
	}
	if err := c.getJSON(ctx, "/locations", values, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

// SensorHours fetches one page of hourly measurements for a sensor within
// [from, to]. The returned Quota reflects the response's rate-limit headers;
// an empty result slice signals the end of pagination.
func (c *Client) SensorHours(ctx context.Context, sensorID int64, from, to time.Time, page int) ([]HourlyMeasurement, Quota, error) {
	values := url.Values{}
	values.Set("datetime_from", from.UTC().Format(time.RFC3339))
	values.Set("datetime_to", to.UTC().Format(time.RFC3339))
	values.Set("limit", fmt.Sprintf("%d", c.cfg.PageLimit))
	values.Set("page", fmt.Sprintf("%d", page))

	endpoint := fmt.Sprintf("%s/sensors/%d/hours?%s", c.cfg.BaseURL, sensorID, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, Quota{}, exception.NewPipelineError(moduleName, "failed to build time-series request", err, false)
	}
	req.Header.Set("X-API-Key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, Quota{}, exception.NewPipelineError(moduleName, fmt.Sprintf("time-series call failed for sensor %d", sensorID), err, true)
	}
	defer resp.Body.Close()

	quota := ParseQuota(resp.Header, c.cfg.Quota)

	if resp.StatusCode != http.StatusOK {
		return nil, quota, exception.NewPipelineError(moduleName,
			fmt.Sprintf("time-series endpoint returned status %d for sensor %d", resp.StatusCode, sensorID),
			nil, resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests)
	}

	var payload struct {
		Results []HourlyMeasurement `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, quota, exception.NewPipelineError(moduleName, fmt.Sprintf("failed to decode time-series page for sensor %d", sensorID), err, false)
	}
	return payload.Results, quota, nil
}

func (c *Client) getJSON(ctx context.Context, path string, values url.Values, out interface{}) error {
	endpoint := fmt.Sprintf("%s%s?%s", c.cfg.BaseURL, path, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return exception.NewPipelineError(moduleName, "failed to build request", err, false)
	}
	req.Header.Set("X-API-Key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return exception.NewPipelineError(moduleName, fmt.Sprintf("call to %s failed", path), err, true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return exception.NewPipelineError(moduleName,
			fmt.Sprintf("%s returned status %d", path, resp.StatusCode), nil,
			resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return exception.NewPipelineError(moduleName, fmt.Sprintf("failed to decode %s response", path), err, false)
	}
	return nil
}
