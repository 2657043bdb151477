package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wmutunga/zephyr/internal/config"
)

const testYAML = `
zephyr:
  system:
    logging:
      level: DEBUG
  pipeline:
    target_db_name: zephyr
    chunk_size: 250
    export:
      enabled: false
  openaq:
    api_key: ${OPENAQ_API_KEY}
    page_limit: 50
  database:
    zephyr:
      type: postgres
      host: ${ZEPHYR_DB_HOST}
      port: 5432
      database: zephyr
      user: zephyr
      password: ${ZEPHYR_DB_PASSWORD}
`

func TestLoad_ExpandsEnvironmentAndLayersOverDefaults(t *testing.T) {
	t.Setenv("OPENAQ_API_KEY", "test-key-123")
	t.Setenv("ZEPHYR_DB_HOST", "db.internal")
	t.Setenv("ZEPHYR_DB_PASSWORD", "s3cret")

	cfg, err := config.Load("", config.EmbeddedConfig(testYAML))
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Zephyr.System.Logging.Level)
	assert.Equal(t, "test-key-123", cfg.Zephyr.OpenAQ.APIKey)
	assert.Equal(t, 50, cfg.Zephyr.OpenAQ.PageLimit)
	// Values the YAML does not mention keep their defaults.
	assert.Equal(t, "https://api.openaq.org/v3", cfg.Zephyr.OpenAQ.BaseURL)
	assert.Equal(t, 10, cfg.Zephyr.OpenAQ.Quota.MinRemaining)
	assert.Equal(t, 250, cfg.Zephyr.Pipeline.ChunkSize)

	db, err := cfg.TargetDatabase()
	require.NoError(t, err)
	assert.Equal(t, "postgres", db.Type)
	assert.Equal(t, "db.internal", db.Host)
	assert.Equal(t, "s3cret", db.Password)
	assert.Equal(t, 5432, db.Port)
}

func TestLoad_MissingAPIKeyIsFatal(t *testing.T) {
	t.Setenv("OPENAQ_API_KEY", "")
	t.Setenv("ZEPHYR_DB_HOST", "db.internal")
	t.Setenv("ZEPHYR_DB_PASSWORD", "s3cret")

	_, err := config.Load("", config.EmbeddedConfig(testYAML))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openaq.api_key")
}

func TestLoad_MissingTargetDatabaseIsFatal(t *testing.T) {
	t.Setenv("OPENAQ_API_KEY", "test-key-123")

	const yamlWithoutTarget = `
zephyr:
  pipeline:
    target_db_name: zephyr
  openaq:
    api_key: ${OPENAQ_API_KEY}
  database:
    other:
      type: sqlite
      database: /tmp/other.db
`
	_, err := config.Load("", config.EmbeddedConfig(yamlWithoutTarget))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database configuration 'zephyr' not found")
}

func TestLoad_SQLiteRequiresFilePath(t *testing.T) {
	t.Setenv("OPENAQ_API_KEY", "test-key-123")

	const sqliteYAML = `
zephyr:
  pipeline:
    target_db_name: zephyr
  openaq:
    api_key: ${OPENAQ_API_KEY}
  database:
    zephyr:
      type: sqlite
`
	_, err := config.Load("", config.EmbeddedConfig(sqliteYAML))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite requires a database file path")
}

func TestLoad_MissingPasswordIsFatal(t *testing.T) {
	t.Setenv("OPENAQ_API_KEY", "test-key-123")
	t.Setenv("ZEPHYR_DB_HOST", "db.internal")
	t.Setenv("ZEPHYR_DB_PASSWORD", "")

	_, err := config.Load("", config.EmbeddedConfig(testYAML))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password is not set")
}

func TestLoad_ExportRequiresKnownStorageRef(t *testing.T) {
	t.Setenv("OPENAQ_API_KEY", "test-key-123")

	const exportYAML = `
zephyr:
  pipeline:
    target_db_name: zephyr
    export:
      enabled: true
      storage_ref: artifacts
  openaq:
    api_key: ${OPENAQ_API_KEY}
  database:
    zephyr:
      type: sqlite
      database: /tmp/zephyr.db
`
	_, err := config.Load("", config.EmbeddedConfig(exportYAML))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage configuration 'artifacts' not found")
}

func TestCityRegistry_FallsBackToBuiltinSet(t *testing.T) {
	cfg := config.NewConfig()
	cities := cfg.CityRegistry()
	require.Len(t, cities, 4)

	names := make([]string, 0, len(cities))
	for _, c := range cities {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"Los Angeles", "New York", "Chicago", "Houston"}, names)
}
