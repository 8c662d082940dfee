package schema

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dbsmedya/docschema/internal/logger"
)

// Mode selects where stages 3 to 7 run.
type Mode string

const (
	// ModeLocal runs every stage in process.
	ModeLocal Mode = "local"
	// ModeServer delegates key unification through aggregation to the store.
	ModeServer Mode = "server"
)

// ParseMode parses a mode name; empty means ModeLocal.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeLocal:
		return ModeLocal, nil
	case ModeServer:
		return ModeServer, nil
	}
	return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeLocal, ModeServer)
}

// Options tunes an inference run.
type Options struct {
	DefaultSampleSize int64
	Workers           int // extraction goroutines per chunk
	BatchSize         int // documents per extraction chunk
	Mode              Mode
	Grouping          Grouping
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		DefaultSampleSize: DefaultSampleSize,
		Workers:           4,
		BatchSize:         1000,
		Mode:              ModeLocal,
		Grouping:          GroupingSingle,
	}
}

// Result is the outcome of one inference run.
type Result struct {
	Mode           Mode
	Grouping       Grouping
	EstimatedCount int64
	SampleSize     int64
	Sampled        int // documents read (local mode)
	Malformed      int // documents recovered as empty shapes
	RawShapes      int // distinct shapes before completion (local mode)
	DistinctShapes int // distinct completed shapes (local mode)
	Batches        int // partial results merged
	Keys           []string
	Aggregate      Aggregate
	Duration       time.Duration
}

// Inferrer drives the sampling and aggregation pipeline over one source.
type Inferrer struct {
	source  DocumentSource
	sampler *Sampler
	opts    Options
	logger  *logger.Logger
}

// NewInferrer creates an inferrer. Zero-valued options take their defaults.
func NewInferrer(source DocumentSource, opts Options, log *logger.Logger) *Inferrer {
	def := DefaultOptions()
	if opts.DefaultSampleSize <= 0 {
		opts.DefaultSampleSize = def.DefaultSampleSize
	}
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	if opts.Mode == "" {
		opts.Mode = def.Mode
	}
	if opts.Grouping == "" {
		opts.Grouping = def.Grouping
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Inferrer{
		source:  source,
		sampler: NewSampler(source, opts.DefaultSampleSize),
		opts:    opts,
		logger:  log,
	}
}

// Plan sizes the sample without reading any documents.
func (inf *Inferrer) Plan(ctx context.Context) (SamplePlan, error) {
	return inf.sampler.Plan(ctx)
}

// Infer runs the whole pipeline and returns the merged aggregate.
func (inf *Inferrer) Infer(ctx context.Context) (*Result, error) {
	start := time.Now()

	if inf.opts.Mode == ModeServer {
		if _, ok := inf.source.(AggregationRunner); !ok {
			return nil, ErrAggregationUnsupported
		}
	}

	plan, err := inf.sampler.Plan(ctx)
	if err != nil {
		return nil, err
	}
	inf.logger.Infow("Sample sized",
		"estimated_count", plan.EstimatedCount,
		"sample_size", plan.SampleSize,
		"mode", inf.opts.Mode,
	)

	result := &Result{
		Mode:           inf.opts.Mode,
		Grouping:       inf.opts.Grouping,
		EstimatedCount: plan.EstimatedCount,
		SampleSize:     plan.SampleSize,
	}

	switch inf.opts.Mode {
	case ModeServer:
		err = inf.inferServer(ctx, plan, result)
	default:
		err = inf.inferLocal(ctx, plan, result)
	}
	if err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	inf.logger.Infow("Schema inferred",
		"fields", len(result.Keys),
		"batches", result.Batches,
		"duration", result.Duration,
	)
	return result, nil
}

type pendingDoc struct {
	doc RawDocument
	err error
}

type extracted struct {
	shape DocumentShape
	err   error
}

// inferLocal streams at most plan.SampleSize documents, collecting distinct
// raw shapes as it goes, then unifies keys, completes, deduplicates,
// aggregates and merges in process.
func (inf *Inferrer) inferLocal(ctx context.Context, plan SamplePlan, result *Result) error {
	stream, err := inf.sampler.Open(ctx, plan)
	if err != nil {
		return err
	}
	defer stream.Close(context.Background())

	shapes := NewShapeSet()
	chunk := make([]pendingDoc, 0, inf.opts.BatchSize)
	batchNum := 0

	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		batchNum++
		out, err := inf.extractChunk(ctx, chunk)
		if err != nil {
			return err
		}
		for i, ex := range out {
			if ex.err != nil {
				var mde *MalformedDocumentError
				if errors.As(ex.err, &mde) {
					mde.Index = result.Sampled + i
				}
				result.Malformed++
				inf.logger.Warnw("Treating malformed document as empty",
					"index", result.Sampled+i,
					"error", ex.err,
				)
			}
			shapes.Add(ex.shape)
		}
		result.Sampled += len(chunk)
		inf.logger.WithBatch(batchNum).Debugw("Extracted chunk",
			"documents", len(chunk),
			"distinct_shapes", shapes.Len(),
		)
		chunk = chunk[:0]
		return nil
	}

	var read int64
	for read < plan.SampleSize && stream.Next(ctx) {
		doc, err := stream.Decode()
		read++
		chunk = append(chunk, pendingDoc{doc: doc, err: err})
		if len(chunk) >= inf.opts.BatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return sourceError("stream", err)
	}
	if err := flush(); err != nil {
		return err
	}

	keys := UnifyKeys(shapes.Shapes())
	result.RawShapes = shapes.Len()
	result.Keys = keys.Sorted()

	completed := make([]CompletedShape, 0, shapes.Len())
	for _, s := range shapes.Shapes() {
		c := Complete(s, keys)
		if err := VerifyCompleted(c, keys); err != nil {
			return err
		}
		completed = append(completed, c)
	}
	distinct := Dedup(completed)
	result.DistinctShapes = len(distinct)

	batches := AggregateShapes(distinct).Batches(inf.opts.Grouping)
	parts := make([]Aggregate, 0, len(batches))
	for _, batch := range batches {
		part, err := batch.Aggregate()
		if err != nil {
			return err
		}
		parts = append(parts, part)
	}
	result.Batches = len(parts)
	merged := MergeAll(parts...)
	if len(merged) != len(keys) {
		return &InvariantViolationError{Expected: len(keys), Got: len(merged)}
	}
	result.Aggregate = merged
	return nil
}

// extractChunk runs the Type Extractor over a chunk on up to Workers
// goroutines. Results keep the chunk order.
func (inf *Inferrer) extractChunk(ctx context.Context, chunk []pendingDoc) ([]extracted, error) {
	out := make([]extracted, len(chunk))
	if inf.opts.Workers <= 1 || len(chunk) == 1 {
		for i, p := range chunk {
			out[i] = extractPending(p)
		}
		return out, nil
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(inf.opts.Workers)
	for i := range chunk {
		g.Go(func() error {
			out[i] = extractPending(chunk[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func extractPending(p pendingDoc) extracted {
	if p.err != nil {
		return extracted{shape: DocumentShape{}, err: &MalformedDocumentError{Reason: p.err.Error()}}
	}
	shape, err := Extract(p.doc)
	return extracted{shape: shape, err: err}
}

// inferServer delegates stages 3 to 7 to the store and merges the partial
// results it streams back.
func (inf *Inferrer) inferServer(ctx context.Context, plan SamplePlan, result *Result) error {
	runner := inf.source.(AggregationRunner)
	stream, err := runner.RunAggregation(ctx, AggregationRequest{
		SampleSize: plan.SampleSize,
		Grouping:   inf.opts.Grouping,
	})
	if err != nil {
		return sourceError("aggregate", err)
	}
	defer stream.Close(context.Background())

	merged := make(Aggregate)
	for stream.Next(ctx) {
		part, err := stream.Decode()
		if err != nil {
			return sourceError("stream", fmt.Errorf("%w: %v", ErrMalformedResult, err))
		}
		batch, err := part.Aggregate()
		if err != nil {
			return sourceError("stream", err)
		}
		merged = Merge(merged, batch)
		result.Batches++
		inf.logger.WithBatch(result.Batches).Debugw("Merged partial result", "fields", len(batch))
	}
	if err := stream.Err(); err != nil {
		return sourceError("stream", err)
	}

	result.Keys = merged.Keys().Sorted()
	result.Aggregate = merged
	return nil
}

// IsCancelled reports whether err stems from context cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
