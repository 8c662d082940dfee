package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/docschema/internal/config"
	"github.com/dbsmedya/docschema/internal/database"
	"github.com/dbsmedya/docschema/internal/logger"
	"github.com/dbsmedya/docschema/internal/report"
	"github.com/dbsmedya/docschema/internal/schema"
	"github.com/dbsmedya/docschema/internal/store"
)

var (
	inferJob      string
	inferMode     string
	inferGrouping string
	inferOutput   string
)

var inferCmd = &cobra.Command{
	Use:   "infer",
	Short: "Infer the schema of a collection",
	Long: `Infer samples the job's collection and reports, for every field seen in
the sample, the set of types it holds.

The inference runs these steps:
  1. Size the sample as max(default_sample_size, sqrt(estimated count))
  2. Extract the (field, type) shape of every sampled document
  3. Unify the field names of all shapes into one key set
  4. Complete each shape with "missing" for absent fields
  5. Deduplicate shapes, group types by field, merge the batches

In server mode (MongoDB only) steps 2 to 5 run as one aggregation on the
server and only the per-field results are transferred.

Example:
  docschema infer --config docschema.yaml --job users_schema
  docschema infer -j users_schema --mode server --format jsonschema -o users.schema.json`,
	RunE: runInfer,
}

func init() {
	inferCmd.Flags().StringVarP(&inferJob, "job", "j", "",
		"Job name from configuration file (required)")
	inferCmd.MarkFlagRequired("job")

	inferCmd.Flags().StringVar(&inferMode, "mode", "",
		"Override job mode (local, server)")
	inferCmd.Flags().StringVar(&inferGrouping, "grouping", "",
		"Override result grouping (single, per_field)")
	inferCmd.Flags().StringVarP(&inferOutput, "output", "o", "",
		"Write the report to a file instead of stdout")

	rootCmd.AddCommand(inferCmd)
}

// jobSettings is a job with its flags and config fallbacks resolved.
type jobSettings struct {
	Name     string
	Job      *config.JobConfig
	Sampling config.SamplingConfig
	Mode     schema.Mode
	Grouping schema.Grouping
}

// Options returns the inferrer options for the job.
func (s jobSettings) Options() schema.Options {
	return schema.Options{
		DefaultSampleSize: s.Sampling.DefaultSampleSize,
		Workers:           s.Sampling.Workers,
		BatchSize:         s.Sampling.BatchSize,
		Mode:              s.Mode,
		Grouping:          s.Grouping,
	}
}

// resolveJob looks up name and applies the mode and grouping overrides on
// top of the job's own settings.
func resolveJob(cfg *config.Config, name, mode, grouping string) (*jobSettings, error) {
	job, err := cfg.GetJob(name)
	if err != nil {
		return nil, err
	}

	if mode == "" {
		mode = job.Mode
	}
	m, err := schema.ParseMode(mode)
	if err != nil {
		return nil, err
	}

	if grouping == "" {
		grouping = job.Grouping
	}
	g, err := schema.ParseGrouping(grouping)
	if err != nil {
		return nil, err
	}

	o := GetCLIOverrides()
	return &jobSettings{
		Name:     name,
		Job:      job,
		Sampling: cfg.ApplyJobOverrides(name, o.SampleSize, o.Workers),
		Mode:     m,
		Grouping: g,
	}, nil
}

func runInfer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	settings, err := resolveJob(cfg, inferJob, inferMode, inferGrouping)
	if err != nil {
		return err
	}
	// Flags may have changed the mode, so validate the effective job.
	job := *settings.Job
	job.Mode = string(settings.Mode)
	cfg.Jobs[inferJob] = job
	if err := cfg.Validate(); err != nil {
		return err
	}

	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	baseLog, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer baseLog.Sync()
	log := baseLog.WithJob(inferJob).WithCollection(job.Collection).WithFields(map[string]interface{}{
		"mode":     settings.Mode,
		"grouping": settings.Grouping,
	})

	log.Infow("Starting schema inference",
		"config", GetConfigFile(),
		"driver", cfg.Source.Driver,
	)

	ctx, stop := database.SetupSignalHandler(commandContext(cmd), func(sig os.Signal) {
		log.Warnw("Received shutdown signal - stopping inference", "signal", sig.String())
	})
	defer stop()

	dbManager := database.NewManager(cfg)
	if err := dbManager.Connect(ctx); err != nil {
		if schema.IsCancelled(err) {
			log.Warn("Schema inference cancelled while connecting")
			return nil
		}
		return fmt.Errorf("failed to connect to source: %w", err)
	}
	defer dbManager.Close()

	src, err := store.Open(cfg, dbManager, &job, settings.Sampling.BatchSize, log)
	if err != nil {
		return fmt.Errorf("failed to open collection: %w", err)
	}

	result, err := schema.NewInferrer(src, settings.Options(), log).Infer(ctx)
	if err != nil {
		if schema.IsCancelled(err) {
			log.Warn("Schema inference cancelled by user")
			return nil
		}
		return fmt.Errorf("schema inference failed: %w", err)
	}

	outPath := inferOutput
	if outPath == "" {
		outPath = cfg.Output.Path
	}

	var w io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	opts := report.Options{
		Format:     format,
		Color:      cfg.Output.Color && outPath == "",
		Job:        inferJob,
		Collection: job.Collection,
	}
	if err := report.Render(w, result, opts); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	log.Infow("Schema inference complete",
		"fields", len(result.Keys),
		"sampled", result.Sampled,
		"malformed", result.Malformed,
		"duration", result.Duration,
		"output", outPathOrStdout(outPath),
	)
	return nil
}

func outPathOrStdout(path string) string {
	if path == "" {
		return "stdout"
	}
	return path
}
