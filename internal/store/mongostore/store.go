// Package mongostore reads sample documents from a MongoDB collection and
// can run the whole inference aggregation on the server.
package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dbsmedya/docschema/internal/schema"
)

const defaultBatchSize = 1000

// Store is a schema.DocumentSource and schema.AggregationRunner over one
// collection.
type Store struct {
	coll      *mongo.Collection
	batchSize int32
}

// Compile-time interface checks
var (
	_ schema.DocumentSource    = (*Store)(nil)
	_ schema.AggregationRunner = (*Store)(nil)
)

// New returns a store over db.collection. batchSize sets the cursor batch
// size; zero or less uses the driver-friendly default of 1000.
func New(db *mongo.Database, collection string, batchSize int) *Store {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Store{
		coll:      db.Collection(collection),
		batchSize: int32(batchSize),
	}
}

// Name returns the collection name.
func (s *Store) Name() string {
	return s.coll.Name()
}

// EstimateCount uses collection metadata and does not scan.
func (s *Store) EstimateCount(ctx context.Context) (int64, error) {
	n, err := s.coll.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("estimated count of %s: %w", s.coll.Name(), err)
	}
	return n, nil
}

// Sample streams size random documents via $sample.
func (s *Store) Sample(ctx context.Context, size int64) (schema.Stream[schema.RawDocument], error) {
	cur, err := s.coll.Aggregate(ctx, []any{SampleStage(size)}, s.aggregateOptions())
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", s.coll.Name(), err)
	}
	return newDocumentStream(cur), nil
}

// RunAggregation runs BuildPipeline and streams the partial results.
func (s *Store) RunAggregation(ctx context.Context, req schema.AggregationRequest) (schema.Stream[schema.PartialResult], error) {
	cur, err := s.coll.Aggregate(ctx, BuildPipeline(req.SampleSize, req.Grouping), s.aggregateOptions())
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", s.coll.Name(), err)
	}
	return newPartialResultStream(cur), nil
}

func (s *Store) aggregateOptions() *options.AggregateOptionsBuilder {
	return options.Aggregate().
		SetBatchSize(s.batchSize).
		SetAllowDiskUse(true)
}
