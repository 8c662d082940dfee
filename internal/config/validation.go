package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	// Validate source
	if err := c.validateSource(); err != nil {
		errors = append(errors, err...)
	}

	// Validate jobs
	if len(c.Jobs) == 0 {
		errors = append(errors, ValidationError{
			Field:   "jobs",
			Message: "at least one job must be defined",
		})
	}
	for name, job := range c.Jobs {
		if err := c.validateJob(name, &job); err != nil {
			errors = append(errors, err...)
		}
	}

	// Validate sampling settings
	if err := validateSampling("sampling", &c.Sampling); err != nil {
		errors = append(errors, err...)
	}

	// Validate output settings
	if err := c.validateOutput(); err != nil {
		errors = append(errors, err...)
	}

	// Validate logging settings
	if err := c.validateLogging(); err != nil {
		errors = append(errors, err...)
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateSource() ValidationErrors {
	var errors ValidationErrors
	src := &c.Source

	switch src.Driver {
	case DriverMongoDB:
		if src.URI == "" && src.Host == "" {
			errors = append(errors, ValidationError{
				Field:   "source.uri",
				Message: "uri or host is required for the mongodb driver",
			})
		}
		if src.URI == "" && src.Database == "" {
			errors = append(errors, ValidationError{
				Field:   "source.database",
				Message: "database name is required",
			})
		}
	case DriverMySQL:
		if src.Host == "" {
			errors = append(errors, ValidationError{
				Field:   "source.host",
				Message: "host is required",
			})
		}
		if src.User == "" {
			errors = append(errors, ValidationError{
				Field:   "source.user",
				Message: "user is required",
			})
		}
		if src.Database == "" {
			errors = append(errors, ValidationError{
				Field:   "source.database",
				Message: "database name is required",
			})
		}
	case DriverFile:
		if src.Path == "" {
			errors = append(errors, ValidationError{
				Field:   "source.path",
				Message: "path is required for the file driver",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "source.driver",
			Message: "driver must be 'mongodb', 'mysql', or 'file'",
		})
	}

	if src.Driver != DriverFile && src.URI == "" && (src.Port <= 0 || src.Port > 65535) {
		errors = append(errors, ValidationError{
			Field:   "source.port",
			Message: "port must be between 1 and 65535",
		})
	}

	validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
	if !validTLS[src.TLS] {
		errors = append(errors, ValidationError{
			Field:   "source.tls",
			Message: "tls must be 'disable', 'preferred', or 'required'",
		})
	}

	if src.MaxConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "source.max_connections",
			Message: "max_connections cannot be negative",
		})
	}

	if src.MaxIdleConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "source.max_idle_connections",
			Message: "max_idle_connections cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateJob(name string, job *JobConfig) ValidationErrors {
	var errors ValidationErrors
	prefix := fmt.Sprintf("jobs.%s", name)

	if job.Collection == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".collection",
			Message: "collection is required",
		})
	}

	if c.Source.Driver == DriverMySQL && job.DocumentColumn == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".document_column",
			Message: "document_column is required for the mysql driver",
		})
	}

	validModes := map[string]bool{"local": true, "server": true, "": true}
	if !validModes[job.Mode] {
		errors = append(errors, ValidationError{
			Field:   prefix + ".mode",
			Message: "mode must be 'local' or 'server'",
		})
	}

	if job.Mode == "server" && c.Source.Driver != DriverMongoDB {
		errors = append(errors, ValidationError{
			Field:   prefix + ".mode",
			Message: "server mode requires the mongodb driver",
		})
	}

	validGroupings := map[string]bool{"single": true, "per_field": true, "": true}
	if !validGroupings[job.Grouping] {
		errors = append(errors, ValidationError{
			Field:   prefix + ".grouping",
			Message: "grouping must be 'single' or 'per_field'",
		})
	}

	if job.Sampling != nil {
		if err := validateSampling(prefix+".sampling", job.Sampling); err != nil {
			errors = append(errors, err...)
		}
	}

	return errors
}

func validateSampling(prefix string, s *SamplingConfig) ValidationErrors {
	var errors ValidationErrors

	if s.DefaultSampleSize < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".default_sample_size",
			Message: "default_sample_size cannot be negative",
		})
	}

	if s.Workers < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".workers",
			Message: "workers cannot be negative",
		})
	}

	if s.BatchSize < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".batch_size",
			Message: "batch_size cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateOutput() ValidationErrors {
	var errors ValidationErrors

	validFormats := map[string]bool{"text": true, "json": true, "yaml": true, "jsonschema": true, "": true}
	if !validFormats[c.Output.Format] {
		errors = append(errors, ValidationError{
			Field:   "output.format",
			Message: "format must be 'text', 'json', 'yaml', or 'jsonschema'",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging",
			Message: "rotation settings cannot be negative",
		})
	}

	return errors
}
