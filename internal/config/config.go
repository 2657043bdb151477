// Package config provides structures and loading utilities for the Zephyr
// pipeline configuration. Configuration comes from an embedded YAML file with
// environment variable placeholders expanded at load time, optionally layered
// over a .env file.
package config

import "github.com/wmutunga/zephyr/internal/domain/entity"

// EmbeddedConfig holds the raw bytes of the embedded configuration file,
// typically supplied from main.go via go:embed.
type EmbeddedConfig []byte

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the logging level (e.g. "INFO", "DEBUG").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// QuotaConfig holds the OpenAQ usage-quota policy. The remote reports
// used/remaining/reset per response; when it omits them the conservative
// defaults below apply.
type QuotaConfig struct {
	// MaxUsed is the used-count at or above which the fetcher waits for the
	// reported reset interval before the next request.
	MaxUsed int `yaml:"max_used"`
	// MinRemaining is the remaining-count at or below which the fetcher waits
	// for the reported reset interval.
	MinRemaining int `yaml:"min_remaining"`
	// ThrottleFloorSeconds is the fixed sleep between pages when quota
	// headroom exists, to avoid bursty request patterns.
	ThrottleFloorSeconds int `yaml:"throttle_floor_seconds"`
	// DefaultUsed / DefaultRemaining / DefaultResetSeconds apply when the
	// remote omits the corresponding header.
	DefaultUsed         int `yaml:"default_used"`
	DefaultRemaining    int `yaml:"default_remaining"`
	DefaultResetSeconds int `yaml:"default_reset_seconds"`
}

// OpenAQConfig holds settings for the OpenAQ air-quality provider.
type OpenAQConfig struct {
	BaseURL string `yaml:"base_url"`
	// APIKey authenticates the X-API-Key request header. Its absence is a
	// fatal configuration error, not a silent empty-data outcome.
	APIKey string `yaml:"api_key"`
	// RadiusMeters is the location-search radius around each city.
	RadiusMeters int `yaml:"radius_meters"`
	// PageLimit is the page size for both location search and time series.
	PageLimit int `yaml:"page_limit"`
	// CountriesID restricts location search to one provider country id.
	CountriesID int `yaml:"countries_id"`
	// FreshnessWindowDays is the trailing window a sensor's last reading must
	// fall into to be considered active.
	FreshnessWindowDays int `yaml:"freshness_window_days"`
	// FetchWindowDays is the trailing window of hourly observations fetched
	// per sensor.
	FetchWindowDays int         `yaml:"fetch_window_days"`
	Quota           QuotaConfig `yaml:"quota"`
}

// RetryConfig holds the exponential backoff settings of the Open-Meteo
// transport.
type RetryConfig struct {
	MaxAttempts         int     `yaml:"max_attempts"`
	InitialIntervalMs   int     `yaml:"initial_interval_ms"`
	MaxIntervalMs       int     `yaml:"max_interval_ms"`
	Factor              float64 `yaml:"factor"`
	CircuitMaxRequests  int     `yaml:"circuit_max_requests"`
	CircuitIntervalSec  int     `yaml:"circuit_interval_seconds"`
	CircuitTimeoutSec   int     `yaml:"circuit_timeout_seconds"`
}

// OpenMeteoConfig holds settings for the Open-Meteo weather provider.
type OpenMeteoConfig struct {
	BaseURL string `yaml:"base_url"`
	// PastDays / ForecastDays bound the trailing window plus short forecast
	// horizon requested per city.
	PastDays     int `yaml:"past_days"`
	ForecastDays int `yaml:"forecast_days"`
	// CacheExpiryMinutes is how long identical responses are served from the
	// transport cache without a network call.
	CacheExpiryMinutes int         `yaml:"cache_expiry_minutes"`
	Retry              RetryConfig `yaml:"retry"`
}

// ExportConfig holds settings for the optional Parquet snapshot export.
type ExportConfig struct {
	Enabled bool `yaml:"enabled"`
	// StorageRef names the storage connection to write through.
	StorageRef string `yaml:"storage_ref"`
	// OutputBaseDir is the base directory inside the storage target.
	OutputBaseDir string `yaml:"output_base_dir"`
	// Compression is the Parquet compression codec ("SNAPPY", "GZIP", "NONE").
	Compression string `yaml:"compression"`
}

// PipelineConfig holds settings of the pipeline run itself.
type PipelineConfig struct {
	// TargetDBName names the database connection the cleaned table loads into.
	TargetDBName string `yaml:"target_db_name"`
	// ChunkSize is the bulk-insert chunk size for the load step.
	ChunkSize int `yaml:"chunk_size"`
	// MetricsListenAddr, when non-empty, exposes Prometheus metrics on that
	// address for the duration of the run.
	MetricsListenAddr string `yaml:"metrics_listen_addr"`
	// Cities overrides the built-in city registry when non-empty.
	Cities []entity.City `yaml:"cities"`
	Export ExportConfig  `yaml:"export"`
}

// ZephyrConfig holds all configuration under the "zephyr" top-level key.
type ZephyrConfig struct {
	System    SystemConfig    `yaml:"system"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	OpenAQ    OpenAQConfig    `yaml:"openaq"`
	OpenMeteo OpenMeteoConfig `yaml:"openmeteo"`
	// AdaptorConfigs holds named database connection configurations.
	AdaptorConfigs map[string]interface{} `yaml:"database"`
	// StorageConfigs holds named storage connection configurations.
	StorageConfigs map[string]interface{} `yaml:"storage"`
}

// Config is the root configuration structure.
type Config struct {
	Zephyr ZephyrConfig `yaml:"zephyr"`
}

// CityRegistry returns the configured city registry, falling back to the
// built-in set when the configuration names none.
func (c *Config) CityRegistry() entity.CityRegistry {
	if len(c.Zephyr.Pipeline.Cities) > 0 {
		return entity.CityRegistry(c.Zephyr.Pipeline.Cities)
	}
	return entity.DefaultCityRegistry()
}

// NewConfig returns a Config populated with defaults. Values from the
// embedded YAML and the environment are layered on top by the loader.
func NewConfig() *Config {
	return &Config{
		Zephyr: ZephyrConfig{
			System: SystemConfig{
				Logging: LoggingConfig{Level: "INFO"},
			},
			Pipeline: PipelineConfig{
				TargetDBName: "warehouse",
				ChunkSize:    500,
				Export: ExportConfig{
					StorageRef:    "artifacts",
					OutputBaseDir: "zephyr/daily_weather",
					Compression:   "SNAPPY",
				},
			},
			OpenAQ: OpenAQConfig{
				BaseURL:             "https://api.openaq.org/v3",
				RadiusMeters:        5000,
				PageLimit:           100,
				CountriesID:         155,
				FreshnessWindowDays: 2,
				FetchWindowDays:     2,
				Quota: QuotaConfig{
					MaxUsed:              50,
					MinRemaining:         10,
					ThrottleFloorSeconds: 1,
					DefaultUsed:          50,
					DefaultRemaining:     1,
					DefaultResetSeconds:  60,
				},
			},
			OpenMeteo: OpenMeteoConfig{
				BaseURL:            "https://api.open-meteo.com/v1",
				PastDays:           2,
				ForecastDays:       1,
				CacheExpiryMinutes: 60,
				Retry: RetryConfig{
					MaxAttempts:        5,
					InitialIntervalMs:  200,
					MaxIntervalMs:      5000,
					Factor:             2.0,
					CircuitMaxRequests: 5,
					CircuitIntervalSec: 60,
					CircuitTimeoutSec:  120,
				},
			},
		},
	}
}
