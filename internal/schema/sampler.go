package schema

import (
	"context"
	"math"
)

// DefaultSampleSize is the floor of every sample.
const DefaultSampleSize = 10000

// SampleSize returns round(max(defaultSize, sqrt(estimated))). A
// non-positive defaultSize falls back to DefaultSampleSize and a negative
// estimate counts as zero.
func SampleSize(estimated int64, defaultSize int64) int64 {
	if defaultSize <= 0 {
		defaultSize = DefaultSampleSize
	}
	if estimated < 0 {
		estimated = 0
	}
	return int64(math.Round(math.Max(float64(defaultSize), math.Sqrt(float64(estimated)))))
}

// SamplePlan is the outcome of sizing a sample.
type SamplePlan struct {
	EstimatedCount int64
	SampleSize     int64
}

// Sampler sizes a sample from the store's count estimate and opens it.
type Sampler struct {
	source      DocumentSource
	defaultSize int64
}

// NewSampler returns a sampler over source with the given default size.
func NewSampler(source DocumentSource, defaultSize int64) *Sampler {
	if defaultSize <= 0 {
		defaultSize = DefaultSampleSize
	}
	return &Sampler{source: source, defaultSize: defaultSize}
}

// Plan queries the count estimate and computes the sample size.
func (s *Sampler) Plan(ctx context.Context) (SamplePlan, error) {
	n, err := s.source.EstimateCount(ctx)
	if err != nil {
		return SamplePlan{}, sourceError("estimate_count", err)
	}
	return SamplePlan{EstimatedCount: n, SampleSize: SampleSize(n, s.defaultSize)}, nil
}

// Open requests a sample of the planned size.
func (s *Sampler) Open(ctx context.Context, plan SamplePlan) (Stream[RawDocument], error) {
	stream, err := s.source.Sample(ctx, plan.SampleSize)
	if err != nil {
		return nil, sourceError("sample", err)
	}
	return stream, nil
}
