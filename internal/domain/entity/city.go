package entity

import "time"

// City is one entry of the static city registry. The registry is immutable
// for a pipeline run and is passed explicitly into every component that needs
// it rather than being redefined per call site.
type City struct {
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Timezone  string  `yaml:"timezone"`
}

// Location returns the *time.Location for the city's IANA timezone name.
func (c City) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// CityRegistry is the fixed set of cities a pipeline run operates on.
type CityRegistry []City

// DefaultCityRegistry returns the built-in US city set tracked by the
// pipeline. Config may override it; this is the fallback.
func DefaultCityRegistry() CityRegistry {
	return CityRegistry{
		{Name: "Los Angeles", Latitude: 34.0522, Longitude: -118.2437, Timezone: "America/Los_Angeles"},
		{Name: "New York", Latitude: 40.7128, Longitude: -74.0060, Timezone: "America/New_York"},
		{Name: "Chicago", Latitude: 41.8781, Longitude: -87.6298, Timezone: "America/Chicago"},
		{Name: "Houston", Latitude: 29.7604, Longitude: -95.3698, Timezone: "America/Chicago"},
	}
}
