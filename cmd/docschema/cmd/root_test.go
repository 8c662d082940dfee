package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigFile(t *testing.T) {
	resetFlags(t)

	tests := []struct {
		name     string
		cfgValue string
		want     string
	}{
		{
			name:     "empty config file",
			cfgValue: "",
			want:     "",
		},
		{
			name:     "custom config file",
			cfgValue: "/path/to/custom.yaml",
			want:     "/path/to/custom.yaml",
		},
		{
			name:     "config file with spaces",
			cfgValue: "/path/to/my config.yaml",
			want:     "/path/to/my config.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgFile = tt.cfgValue
			assert.Equal(t, tt.want, GetConfigFile())
		})
	}
}

func TestGetCLIOverrides(t *testing.T) {
	resetFlags(t)

	logLevel = "debug"
	logFormat = "text"
	outputFormat = "jsonschema"
	sampleSize = 2500
	workers = 3
	noColor = true

	assert.Equal(t, CLIOverrides{
		LogLevel:     "debug",
		LogFormat:    "text",
		OutputFormat: "jsonschema",
		SampleSize:   2500,
		Workers:      3,
		NoColor:      true,
	}, GetCLIOverrides())
}

func TestRootPersistentFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	cfg := flags.Lookup("config")
	require.NotNil(t, cfg)
	assert.Equal(t, "c", cfg.Shorthand)
	assert.Equal(t, "docschema.yaml", cfg.DefValue)

	format := flags.Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "f", format.Shorthand)

	for _, name := range []string{"log-level", "log-format", "sample-size", "workers", "no-color"} {
		assert.NotNil(t, flags.Lookup(name), name)
	}
}

func TestLoadConfigAppliesOverrides(t *testing.T) {
	resetFlags(t)

	cfgFile = writeFileSourceConfig(t)
	outputFormat = "yaml"
	sampleSize = 42
	noColor = true

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.Equal(t, int64(42), cfg.Sampling.DefaultSampleSize)
	assert.False(t, cfg.Output.Color)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoadConfigMissingFile(t *testing.T) {
	resetFlags(t)

	cfgFile = "/nonexistent/docschema.yaml"
	_, err := loadConfig()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}
