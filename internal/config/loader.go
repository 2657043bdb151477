package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	dbconfig "github.com/wmutunga/zephyr/internal/adapter/database/config"
	"github.com/wmutunga/zephyr/pkg/util/exception"
	"github.com/wmutunga/zephyr/pkg/util/logger"
)

// Load loads configuration from the embedded YAML and the process
// environment. The .env file at envFilePath is loaded first (when present),
// then ${VAR} placeholders inside the embedded YAML are expanded, the result
// is unmarshalled over the defaults from NewConfig, and finally the loaded
// configuration is validated. Validation failures are fatal by contract:
// missing credentials must surface before any network activity.
func Load(envFilePath string, embedded EmbeddedConfig) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Debugf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else {
		if err := godotenv.Load(); err != nil {
			logger.Debugf(".env file not found or could not be loaded: %v", err)
		}
	}

	cfg := NewConfig()

	expanded := []byte(os.ExpandEnv(string(embedded)))
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, exception.NewConfigError("failed to unmarshal embedded config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.SetLogLevel(cfg.Zephyr.System.Logging.Level)
	return cfg, nil
}

// Validate checks that the configuration names everything the pipeline needs
// before it opens any connection: the OpenAQ API key, a target database
// connection with usable credentials, and a storage target when export is
// enabled.
func (c *Config) Validate() error {
	if c.Zephyr.OpenAQ.APIKey == "" {
		return exception.NewConfigError("openaq.api_key is not set (OPENAQ_API_KEY)", nil)
	}

	target := c.Zephyr.Pipeline.TargetDBName
	raw, ok := c.Zephyr.AdaptorConfigs[target]
	if !ok {
		return exception.NewConfigError(fmt.Sprintf("database configuration '%s' not found", target), nil)
	}
	var db dbconfig.DatabaseConfig
	if err := mapstructure.Decode(raw, &db); err != nil {
		return exception.NewConfigError(fmt.Sprintf("failed to decode database config '%s'", target), err)
	}
	switch db.Type {
	case "sqlite":
		if db.Database == "" {
			return exception.NewConfigError(fmt.Sprintf("database config '%s': sqlite requires a database file path", target), nil)
		}
	case "postgres", "mysql":
		if db.Host == "" || db.Database == "" || db.User == "" {
			return exception.NewConfigError(fmt.Sprintf("database config '%s': host, database and user are required", target), nil)
		}
		if db.Password == "" {
			return exception.NewConfigError(fmt.Sprintf("database config '%s': password is not set", target), nil)
		}
	default:
		return exception.NewConfigError(fmt.Sprintf("database config '%s': unsupported type '%s'", target, db.Type), nil)
	}

	if c.Zephyr.Pipeline.Export.Enabled {
		ref := c.Zephyr.Pipeline.Export.StorageRef
		if _, ok := c.Zephyr.StorageConfigs[ref]; !ok {
			return exception.NewConfigError(fmt.Sprintf("storage configuration '%s' not found for export", ref), nil)
		}
	}

	return nil
}

// TargetDatabase decodes the target database connection configuration.
func (c *Config) TargetDatabase() (dbconfig.DatabaseConfig, error) {
	var db dbconfig.DatabaseConfig
	raw, ok := c.Zephyr.AdaptorConfigs[c.Zephyr.Pipeline.TargetDBName]
	if !ok {
		return db, exception.NewConfigError(fmt.Sprintf("database configuration '%s' not found", c.Zephyr.Pipeline.TargetDBName), nil)
	}
	if err := mapstructure.Decode(raw, &db); err != nil {
		return db, exception.NewConfigError("failed to decode target database config", err)
	}
	return db, nil
}
