package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/docschema/internal/database"
	"github.com/dbsmedya/docschema/internal/logger"
	"github.com/dbsmedya/docschema/internal/schema"
	"github.com/dbsmedya/docschema/internal/store"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and source connectivity",
	Long: `Validate checks the configuration file and verifies that every job's
collection can be reached before any sampling takes place.

Checks performed:
  - Configuration syntax and required fields
  - Source connectivity (mongodb, mysql) or export path (file)
  - Collection existence and count estimate
  - Server mode support of the source

Example:
  docschema validate --config docschema.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting validation checks...")

	ctx := commandContext(cmd)

	dbManager := database.NewManager(cfg)
	if err := dbManager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to source: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.Ping(ctx); err != nil {
		return fmt.Errorf("source connection failed: %w", err)
	}

	cmd.Printf("\n=== Configuration Validation ===\n")
	cmd.Printf("Config file: %s\n", configFile)
	cmd.Printf("Source: %s\n", describeSource(&cfg.Source))
	cmd.Printf("Jobs found: %d\n\n", len(cfg.Jobs))

	jobNames := cfg.ListJobs()
	sort.Strings(jobNames)

	hasErrors := false
	for _, jobName := range jobNames {
		settings, err := resolveJob(cfg, jobName, "", "")
		if err != nil {
			cmd.Printf("--- Job: %s ---\n", jobName)
			cmd.Printf("❌ %v\n\n", err)
			hasErrors = true
			continue
		}
		job := settings.Job

		cmd.Printf("--- Job: %s ---\n", jobName)
		cmd.Printf("Collection: %s\n", job.Collection)
		cmd.Printf("Mode: %s\n", settings.Mode)

		src, err := store.Open(cfg, dbManager, job, settings.Sampling.BatchSize, log.WithJob(jobName))
		if err != nil {
			cmd.Printf("❌ Failed to open collection: %v\n\n", err)
			hasErrors = true
			continue
		}

		if settings.Mode == schema.ModeServer {
			if _, ok := src.(schema.AggregationRunner); !ok {
				cmd.Printf("❌ Source does not support server mode\n\n")
				hasErrors = true
				continue
			}
		}

		plan, err := schema.NewSampler(src, settings.Sampling.DefaultSampleSize).Plan(ctx)
		if err != nil {
			cmd.Printf("❌ Count estimate failed: %v\n\n", err)
			hasErrors = true
			continue
		}

		cmd.Printf("Estimated documents: %d (sample size %d)\n", plan.EstimatedCount, plan.SampleSize)
		cmd.Printf("✅ All checks passed\n\n")
	}

	if hasErrors {
		return fmt.Errorf("validation failed for one or more jobs")
	}

	cmd.Println("=== Validation Complete ===")
	cmd.Println("✅ All jobs validated successfully")
	return nil
}
