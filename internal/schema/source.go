package schema

import (
	"context"
	"errors"
)

var errNoCurrent = errors.New("stream: Decode called without a successful Next")

// Stream is a lazily consumed cursor. Next blocks until the next item is
// available, the stream ends, or ctx is cancelled; it returns false in all
// but the first case and Err reports why.
type Stream[T any] interface {
	Next(ctx context.Context) bool
	Decode() (T, error)
	Err() error
	Close(ctx context.Context) error
}

// DocumentSource is the document store as seen by the sampler.
type DocumentSource interface {
	// EstimateCount returns an approximate document count. Staleness is fine;
	// it only sizes the sample.
	EstimateCount(ctx context.Context) (int64, error)

	// Sample returns up to size documents drawn at random. Duplicates are
	// allowed.
	Sample(ctx context.Context, size int64) (Stream[RawDocument], error)
}

// AggregationRequest describes the server-side run of stages 3 to 7.
type AggregationRequest struct {
	SampleSize int64
	Grouping   Grouping
}

// AggregationRunner is implemented by sources that can compute the
// aggregate themselves and stream it back in batches.
type AggregationRunner interface {
	RunAggregation(ctx context.Context, req AggregationRequest) (Stream[PartialResult], error)
}

// SliceStream serves items from memory. It is used by the in-process
// sources and in tests.
type SliceStream[T any] struct {
	items []T
	pos   int
	err   error
}

// NewSliceStream returns a stream over items.
func NewSliceStream[T any](items []T) *SliceStream[T] {
	return &SliceStream[T]{items: items, pos: -1}
}

func (s *SliceStream[T]) Next(ctx context.Context) bool {
	if s.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		s.err = err
		return false
	}
	if s.pos+1 >= len(s.items) {
		return false
	}
	s.pos++
	return true
}

func (s *SliceStream[T]) Decode() (T, error) {
	var zero T
	if s.pos < 0 || s.pos >= len(s.items) {
		return zero, errNoCurrent
	}
	return s.items[s.pos], nil
}

func (s *SliceStream[T]) Err() error { return s.err }

func (s *SliceStream[T]) Close(context.Context) error { return nil }
