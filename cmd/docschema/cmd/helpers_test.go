package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const usersExport = `{"_id":{"$oid":"5f1d7c2e9b1e8a3d4c5b6a70"},"name":"ada","age":36}
{"_id":{"$oid":"5f1d7c2e9b1e8a3d4c5b6a71"},"name":"bob"}

{"_id":{"$oid":"5f1d7c2e9b1e8a3d4c5b6a72"},"name":null,"tags":["x"]}
{broken
`

// resetFlags restores every package-level flag variable when the test ends.
func resetFlags(t *testing.T) {
	t.Helper()

	saved := struct {
		cfgFile, logLevel, logFormat, outputFormat string
		sampleSize                                 int64
		workers                                    int
		noColor                                    bool
		inferJob, inferMode, inferGrouping         string
		inferOutput                                string
		planJob, planMode, planGrouping            string
		planOffline                                bool
	}{
		cfgFile, logLevel, logFormat, outputFormat,
		sampleSize, workers, noColor,
		inferJob, inferMode, inferGrouping, inferOutput,
		planJob, planMode, planGrouping, planOffline,
	}

	t.Cleanup(func() {
		cfgFile, logLevel, logFormat, outputFormat = saved.cfgFile, saved.logLevel, saved.logFormat, saved.outputFormat
		sampleSize, workers, noColor = saved.sampleSize, saved.workers, saved.noColor
		inferJob, inferMode, inferGrouping, inferOutput = saved.inferJob, saved.inferMode, saved.inferGrouping, saved.inferOutput
		planJob, planMode, planGrouping, planOffline = saved.planJob, saved.planMode, saved.planGrouping, saved.planOffline
	})
}

// writeFileSourceConfig creates an export directory holding users.ndjson and
// a config pointing at it. extraJobs is appended under jobs:.
func writeFileSourceConfig(t *testing.T, extraJobs ...string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.ndjson"), []byte(usersExport), 0644))

	content := `source:
  driver: file
  path: ` + dir + `

jobs:
  users:
    collection: users
` + strings.Join(extraJobs, "\n") + `

logging:
  level: error
  format: text
  output: ` + filepath.Join(dir, "docschema.log") + `
`
	path := filepath.Join(dir, "docschema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// writeMongoConfig creates a config for a MongoDB source that is never
// contacted by the test.
func writeMongoConfig(t *testing.T) string {
	t.Helper()

	content := `source:
  driver: mongodb
  host: 127.0.0.1
  database: app

jobs:
  events:
    collection: events
    mode: server
    grouping: per_field
    sampling:
      default_sample_size: 500
`
	path := filepath.Join(t.TempDir(), "mongo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
