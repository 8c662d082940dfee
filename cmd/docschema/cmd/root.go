package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/docschema/internal/config"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile      string
	logLevel     string
	logFormat    string
	outputFormat string
	sampleSize   int64
	workers      int
	noColor      bool
)

var rootCmd = &cobra.Command{
	Use:   "docschema",
	Short: "Document store schema inference",
	Long: `A CLI tool that infers the schema of a schemaless document collection
by sampling it and recording, per field, every type observed.

Features:
  - Sample sized as max(default, sqrt(estimated count))
  - Local inference or server-side aggregation (MongoDB)
  - MongoDB, MySQL JSON columns and exported NDJSON files as sources
  - A "missing" marker for documents that lack a field
  - Text, JSON, YAML and JSON Schema reports`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "docschema.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Output overrides
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "",
		"Override report format (text, json, yaml, jsonschema)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable colored text output")

	// Sampling overrides
	rootCmd.PersistentFlags().Int64Var(&sampleSize, "sample-size", 0,
		"Override default sample size (floor of every sample)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0,
		"Override number of extraction workers")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel     string
	LogFormat    string
	OutputFormat string
	SampleSize   int64
	Workers      int
	NoColor      bool
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:     logLevel,
		LogFormat:    logFormat,
		OutputFormat: outputFormat,
		SampleSize:   sampleSize,
		Workers:      workers,
		NoColor:      noColor,
	}
}

// loadConfig reads the config file and applies the CLI overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	o := GetCLIOverrides()
	cfg.ApplyOverrides(o.LogLevel, o.LogFormat, o.OutputFormat, o.SampleSize, o.Workers, o.NoColor)
	return cfg, nil
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
