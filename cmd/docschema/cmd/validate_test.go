package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommandStructure(t *testing.T) {
	assert.NotNil(t, validateCmd)
	assert.Equal(t, "validate", validateCmd.Use)
	assert.NotEmpty(t, validateCmd.Short)
	assert.Contains(t, validateCmd.Short, "Validate")
	assert.NotNil(t, validateCmd.RunE)
}

func TestValidateCommandChecks(t *testing.T) {
	doc := validateCmd.Long
	assert.Contains(t, doc, "Checks performed")
	assert.Contains(t, doc, "Configuration")
	assert.Contains(t, doc, "Source connectivity")
	assert.Contains(t, doc, "Server mode")
	assert.Contains(t, doc, "docschema validate")
}

func TestRunValidate_FileSource(t *testing.T) {
	resetFlags(t)

	cfgFile = writeFileSourceConfig(t)

	var buf bytes.Buffer
	validateCmd.SetOut(&buf)
	validateCmd.SetErr(&buf)
	defer validateCmd.SetOut(nil)

	require.NoError(t, runValidate(validateCmd, []string{}))

	output := buf.String()
	assert.Contains(t, output, "=== Configuration Validation ===")
	assert.Contains(t, output, "--- Job: users ---")
	assert.Contains(t, output, "Estimated documents: 4 (sample size 10000)")
	assert.Contains(t, output, "All jobs validated successfully")
}

func TestRunValidate_MissingExportFailsJob(t *testing.T) {
	resetFlags(t)

	cfgFile = writeFileSourceConfig(t, "  orders:\n    collection: orders")

	var buf bytes.Buffer
	validateCmd.SetOut(&buf)
	validateCmd.SetErr(&buf)
	defer validateCmd.SetOut(nil)

	err := runValidate(validateCmd, []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed for one or more jobs")

	output := buf.String()
	assert.Contains(t, output, "--- Job: orders ---")
	assert.Contains(t, output, "Failed to open collection")
	assert.Contains(t, output, "--- Job: users ---")
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	resetFlags(t)

	cfgFile = writeFileSourceConfig(t, "  remote:\n    collection: users\n    mode: server")

	var buf bytes.Buffer
	validateCmd.SetOut(&buf)
	defer validateCmd.SetOut(nil)

	err := runValidate(validateCmd, []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jobs.remote.mode")
}
