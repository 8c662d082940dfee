// Package config provides configuration structures and loading for docschema.
package config

// Config represents the complete application configuration.
type Config struct {
	Source   SourceConfig         `yaml:"source" mapstructure:"source"`
	Jobs     map[string]JobConfig `yaml:"jobs" mapstructure:"jobs"`
	Sampling SamplingConfig       `yaml:"sampling" mapstructure:"sampling"`
	Output   OutputConfig         `yaml:"output" mapstructure:"output"`
	Logging  LoggingConfig        `yaml:"logging" mapstructure:"logging"`
}

// Supported source drivers.
const (
	DriverMongoDB = "mongodb"
	DriverMySQL   = "mysql"
	DriverFile    = "file"
)

// SourceConfig represents the document store connection configuration.
type SourceConfig struct {
	Driver             string `yaml:"driver" mapstructure:"driver"` // mongodb, mysql, file
	URI                string `yaml:"uri" mapstructure:"uri"`       // full mongodb:// or mongodb+srv:// URI
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"`   // disable, preferred, required
	Path               string `yaml:"path" mapstructure:"path"` // directory of exported collections (file driver)
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// JobConfig represents one inference job: a collection and how to sample it.
type JobConfig struct {
	Collection     string          `yaml:"collection" mapstructure:"collection"`
	DocumentColumn string          `yaml:"document_column" mapstructure:"document_column"` // mysql only
	Mode           string          `yaml:"mode" mapstructure:"mode"`                       // local or server
	Grouping       string          `yaml:"grouping" mapstructure:"grouping"`               // single or per_field
	Sampling       *SamplingConfig `yaml:"sampling,omitempty" mapstructure:"sampling"`
}

// SamplingConfig represents sample sizing and extraction settings.
type SamplingConfig struct {
	DefaultSampleSize int64 `yaml:"default_sample_size" mapstructure:"default_sample_size"`
	Workers           int   `yaml:"workers" mapstructure:"workers"`
	BatchSize         int   `yaml:"batch_size" mapstructure:"batch_size"`
}

// OutputConfig represents report rendering settings.
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"` // text, json, yaml, jsonschema
	Path   string `yaml:"path" mapstructure:"path"`     // empty writes to stdout
	Color  bool   `yaml:"color" mapstructure:"color"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format     string `yaml:"format" mapstructure:"format"` // json or text
	Output     string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Driver:             DriverMongoDB,
			TLS:                "preferred",
			MaxConnections:     10,
			MaxIdleConnections: 5,
		},
		Sampling: SamplingConfig{
			DefaultSampleSize: 10000,
			Workers:           4,
			BatchSize:         1000,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Output:     "stderr",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// DefaultPort returns the conventional port of the configured driver.
func (s *SourceConfig) DefaultPort() int {
	switch s.Driver {
	case DriverMySQL:
		return 3306
	case DriverMongoDB:
		return 27017
	}
	return 0
}

// GetJobSampling returns the sampling config for a job by name, falling back to global if not set.
func (c *Config) GetJobSampling(jobName string) SamplingConfig {
	job, err := c.GetJob(jobName)
	if err != nil {
		return c.Sampling
	}
	return job.GetJobSampling(c.Sampling)
}

// GetJobSampling returns the sampling config for a job, falling back to global if not set.
func (jc *JobConfig) GetJobSampling(global SamplingConfig) SamplingConfig {
	if jc.Sampling == nil {
		return global
	}

	// Merge job-specific with global defaults
	result := global
	if jc.Sampling.DefaultSampleSize > 0 {
		result.DefaultSampleSize = jc.Sampling.DefaultSampleSize
	}
	if jc.Sampling.Workers > 0 {
		result.Workers = jc.Sampling.Workers
	}
	if jc.Sampling.BatchSize > 0 {
		result.BatchSize = jc.Sampling.BatchSize
	}
	return result
}
