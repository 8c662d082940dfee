package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/docschema/internal/config"
)

var listJobsCmd = &cobra.Command{
	Use:   "list-jobs",
	Short: "List all jobs defined in configuration",
	Long: `List-jobs displays all inference jobs defined in the configuration file
along with their basic settings.

Example:
  docschema list-jobs --config docschema.yaml`,
	RunE: runListJobs,
}

func init() {
	rootCmd.AddCommand(listJobsCmd)
}

func runListJobs(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	jobNames := cfg.ListJobs()

	if len(jobNames) == 0 {
		cmd.Printf("No jobs defined in %s\n", configFile)
		return nil
	}

	// Sort job names for consistent output
	sort.Strings(jobNames)

	cmd.Printf("Jobs defined in %s:\n\n", configFile)

	for i, jobName := range jobNames {
		job, err := cfg.GetJob(jobName)
		if err != nil {
			return fmt.Errorf("failed to get job %q: %w", jobName, err)
		}

		cmd.Printf("%d. %s\n", i+1, jobName)
		cmd.Printf("   Collection:    %s\n", job.Collection)
		if job.DocumentColumn != "" {
			cmd.Printf("   Column:        %s\n", job.DocumentColumn)
		}
		cmd.Printf("   Mode:          %s\n", orDefault(job.Mode, "local"))
		cmd.Printf("   Grouping:      %s\n", orDefault(job.Grouping, "single"))

		if job.Sampling != nil {
			cmd.Printf("   Sampling:      Custom (default_sample_size=%d, workers=%d, batch_size=%d)\n",
				job.Sampling.DefaultSampleSize, job.Sampling.Workers, job.Sampling.BatchSize)
		}

		// Add spacing between jobs
		if i < len(jobNames)-1 {
			cmd.Println()
		}
	}

	cmd.Printf("\nTotal: %d job(s)\n", len(jobNames))
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
