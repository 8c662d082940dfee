package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dbsmedya/docschema/internal/config"
	"github.com/dbsmedya/docschema/internal/database"
	"github.com/dbsmedya/docschema/internal/logger"
	"github.com/dbsmedya/docschema/internal/schema"
	"github.com/dbsmedya/docschema/internal/store"
	"github.com/dbsmedya/docschema/internal/store/mongostore"
)

// outputWriter is used for printing output, can be overridden in tests
var outputWriter io.Writer = os.Stdout

// setOutputWriter sets the output writer (used for testing)
func setOutputWriter(w io.Writer) {
	outputWriter = w
}

// resetOutputWriter resets output to stdout (used for testing)
func resetOutputWriter() {
	outputWriter = os.Stdout
}

var (
	planJob      string
	planMode     string
	planGrouping string
	planOffline  bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the sampling plan for a job",
	Long: `Plan resolves the job configuration and shows how the collection would
be sampled, without reading any documents.

The plan shows:
  - Source and collection
  - Estimated document count and the resulting sample size
  - Effective sampling settings (job-specific or global)
  - The server-side aggregation pipeline (server mode)

Use --offline to skip the count estimate and plan from configuration only.

Example:
  docschema plan --config docschema.yaml --job users_schema`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planJob, "job", "j", "",
		"Job name from configuration file (required)")
	planCmd.MarkFlagRequired("job")

	planCmd.Flags().StringVar(&planMode, "mode", "",
		"Override job mode (local, server)")
	planCmd.Flags().StringVar(&planGrouping, "grouping", "",
		"Override result grouping (single, per_field)")
	planCmd.Flags().BoolVar(&planOffline, "offline", false,
		"Do not connect to the source; assume an empty collection")

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	settings, err := resolveJob(cfg, planJob, planMode, planGrouping)
	if err != nil {
		return err
	}
	job := settings.Job

	plan := schema.SamplePlan{
		SampleSize: schema.SampleSize(0, settings.Sampling.DefaultSampleSize),
	}
	if !planOffline {
		plan, err = estimatePlan(cmd, cfg, settings)
		if err != nil {
			return err
		}
	}

	printHeader("Sampling Plan: %s", planJob)

	fmt.Fprintln(outputWriter)
	printSection("Job Overview")
	printKeyValues([][2]string{
		{"Source", describeSource(&cfg.Source)},
		{"Collection", job.Collection},
		{"Mode", string(settings.Mode)},
		{"Grouping", string(settings.Grouping)},
	})

	fmt.Fprintln(outputWriter)
	printSection("Sample")
	estimate := fmt.Sprintf("%d", plan.EstimatedCount)
	if planOffline {
		estimate = "(offline)"
	}
	printKeyValues([][2]string{
		{"Estimated Count", estimate},
		{"Sample Size", fmt.Sprintf("%d", plan.SampleSize)},
		{"Rule", fmt.Sprintf("max(%d, sqrt(N))", settings.Sampling.DefaultSampleSize)},
	})

	fmt.Fprintln(outputWriter)
	printSection("Configuration")
	custom := func(set bool) string {
		if set {
			return " (job-specific)"
		}
		return ""
	}
	js := job.Sampling
	printKeyValues([][2]string{
		{"Default Sample Size", fmt.Sprintf("%d%s", settings.Sampling.DefaultSampleSize, custom(js != nil && js.DefaultSampleSize > 0))},
		{"Workers", fmt.Sprintf("%d%s", settings.Sampling.Workers, custom(js != nil && js.Workers > 0))},
		{"Batch Size", fmt.Sprintf("%d%s", settings.Sampling.BatchSize, custom(js != nil && js.BatchSize > 0))},
	})

	if settings.Mode == schema.ModeServer {
		fmt.Fprintln(outputWriter)
		printSection("Server Pipeline")
		if err := printPipeline(mongostore.BuildPipeline(plan.SampleSize, settings.Grouping)); err != nil {
			return fmt.Errorf("failed to render pipeline: %w", err)
		}
	}

	return nil
}

// estimatePlan connects to the source and sizes the sample from its count
// estimate.
func estimatePlan(cmd *cobra.Command, cfg *config.Config, settings *jobSettings) (schema.SamplePlan, error) {
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return schema.SamplePlan{}, fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()
	log = log.WithJob(settings.Name)

	ctx := commandContext(cmd)

	dbManager := database.NewManager(cfg)
	if err := dbManager.Connect(ctx); err != nil {
		return schema.SamplePlan{}, fmt.Errorf("failed to connect to source: %w", err)
	}
	defer dbManager.Close()

	src, err := store.Open(cfg, dbManager, settings.Job, settings.Sampling.BatchSize, log)
	if err != nil {
		return schema.SamplePlan{}, fmt.Errorf("failed to open collection: %w", err)
	}

	plan, err := schema.NewInferrer(src, settings.Options(), log).Plan(ctx)
	if err != nil {
		return schema.SamplePlan{}, fmt.Errorf("failed to estimate collection size: %w", err)
	}
	return plan, nil
}

func describeSource(src *config.SourceConfig) string {
	switch src.Driver {
	case config.DriverFile:
		return fmt.Sprintf("%s (%s)", src.Driver, src.Path)
	case config.DriverMongoDB:
		if src.URI != "" {
			return fmt.Sprintf("%s (uri)", src.Driver)
		}
	}
	return fmt.Sprintf("%s (%s:%d/%s)", src.Driver, src.Host, src.Port, src.Database)
}

// printHeader prints a formatted header
func printHeader(format string, args ...interface{}) {
	title := fmt.Sprintf(format, args...)
	width := runewidth.StringWidth(title) + 4
	fmt.Fprintln(outputWriter, strings.Repeat("=", width))
	fmt.Fprintf(outputWriter, "  %s\n", title)
	fmt.Fprintln(outputWriter, strings.Repeat("=", width))
}

// printSection prints a section header
func printSection(title string) {
	fmt.Fprintf(outputWriter, "[%s]\n", title)
	fmt.Fprintln(outputWriter, strings.Repeat("-", runewidth.StringWidth(title)+2))
}

// printKeyValues prints label/value rows with the values aligned
func printKeyValues(rows [][2]string) {
	width := 0
	for _, r := range rows {
		if w := runewidth.StringWidth(r[0]); w > width {
			width = w
		}
	}
	for _, r := range rows {
		fmt.Fprintf(outputWriter, "  %s  %s\n", runewidth.FillRight(r[0]+":", width+1), r[1])
	}
}

// printPipeline prints each stage as relaxed Extended JSON
func printPipeline(pipeline []bson.D) error {
	for i, stage := range pipeline {
		b, err := bson.MarshalExtJSON(stage, false, false)
		if err != nil {
			return err
		}
		fmt.Fprintf(outputWriter, "  [%d] %s\n", i+1, b)
	}
	return nil
}
