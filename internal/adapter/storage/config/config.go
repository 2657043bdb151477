package config

// StorageConfig holds the settings of one named storage connection.
type StorageConfig struct {
	Type       string `yaml:"type" mapstructure:"type"`               // storage backend type, e.g. "local"
	BucketName string `yaml:"bucket_name" mapstructure:"bucket_name"` // default bucket for operations
	BaseDir    string `yaml:"base_dir" mapstructure:"base_dir"`       // base directory for local backends
}
