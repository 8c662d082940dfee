package mongostore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dbsmedya/docschema/internal/logger"
	"github.com/dbsmedya/docschema/internal/schema"
)

func stageName(t *testing.T, stage bson.D) string {
	t.Helper()
	require.Len(t, stage, 1, "each stage holds exactly one operator")
	return stage[0].Key
}

func stageNames(t *testing.T, p mongo.Pipeline) []string {
	names := make([]string, len(p))
	for i, s := range p {
		names[i] = stageName(t, s)
	}
	return names
}

func TestSampleStage(t *testing.T) {
	stage := SampleStage(12345)

	require.Equal(t, "$sample", stageName(t, stage))
	args, ok := stage[0].Value.(bson.D)
	require.True(t, ok)
	assert.Equal(t, bson.D{{Key: "size", Value: int64(12345)}}, args)
}

func TestBuildPipeline_SingleGrouping(t *testing.T) {
	p := BuildPipeline(10000, schema.GroupingSingle)

	assert.Equal(t, []string{
		"$sample", "$project", "$group", "$project", "$unwind", "$project",
		"$group", "$unwind", "$project", "$unwind", "$group", "$group",
	}, stageNames(t, p))

	assert.Equal(t, SampleStage(10000), p[0])

	last := p[len(p)-1][0].Value.(bson.D)
	assert.Equal(t, "_id", last[0].Key)
	assert.Nil(t, last[0].Value, "closing $group packs every field into one document")
	assert.Equal(t, "schema", last[1].Key)
}

func TestBuildPipeline_PerFieldGrouping(t *testing.T) {
	single := BuildPipeline(500, schema.GroupingSingle)
	perField := BuildPipeline(500, schema.GroupingPerField)

	require.Len(t, perField, len(single))
	// Everything but the last stage is shared.
	assert.Equal(t, single[:len(single)-1], perField[:len(perField)-1])

	last := perField[len(perField)-1]
	assert.Equal(t, "$project", stageName(t, last))

	proj := last[0].Value.(bson.D)
	assert.Equal(t, bson.E{Key: "_id", Value: 0}, proj[0])
	records, ok := proj[1].Value.(bson.A)
	require.True(t, ok, "per-field records are wrapped in a one-element schema array")
	assert.Len(t, records, 1)
}

func TestBuildPipeline_MissingMarkerMatchesTypeName(t *testing.T) {
	p := BuildPipeline(1, schema.GroupingSingle)

	raw, err := bson.Marshal(bson.D{{Key: "pipeline", Value: p}})
	require.NoError(t, err)
	assert.Contains(t, string(raw), schema.TypeMissing.String())
}

func TestBuildPipeline_DoesNotShareStateBetweenCalls(t *testing.T) {
	a := BuildPipeline(1, schema.GroupingSingle)
	b := BuildPipeline(1, schema.GroupingPerField)
	a[0] = SampleStage(99)

	assert.Equal(t, SampleStage(1), b[0])
}

// runnerFunc serves a prepared partial-result stream as an aggregation.
type runnerFunc struct {
	count  int64
	stream func() schema.Stream[schema.PartialResult]
}

func (r runnerFunc) EstimateCount(context.Context) (int64, error) { return r.count, nil }

func (r runnerFunc) Sample(context.Context, int64) (schema.Stream[schema.RawDocument], error) {
	return schema.NewSliceStream[schema.RawDocument](nil), nil
}

func (r runnerFunc) RunAggregation(context.Context, schema.AggregationRequest) (schema.Stream[schema.PartialResult], error) {
	return r.stream(), nil
}

// The two groupings pack the same field/type records differently. Decoded
// through a driver cursor and merged, they must agree.
func TestGroupingsMergeToSameAggregate(t *testing.T) {
	singleDocs := []any{
		bson.D{
			{Key: "_id", Value: nil},
			{Key: "schema", Value: bson.A{
				bson.D{{Key: "field", Value: "_id"}, {Key: "types", Value: bson.A{"objectId"}}},
				bson.D{{Key: "field", Value: "age"}, {Key: "types", Value: bson.A{"int", "missing"}}},
				bson.D{{Key: "field", Value: "name"}, {Key: "types", Value: bson.A{"string", "null"}}},
			}},
		},
	}
	perFieldDocs := []any{
		bson.D{{Key: "schema", Value: bson.A{bson.D{{Key: "field", Value: "name"}, {Key: "types", Value: bson.A{"null", "string"}}}}}},
		bson.D{{Key: "schema", Value: bson.A{bson.D{{Key: "field", Value: "_id"}, {Key: "types", Value: bson.A{"objectId"}}}}}},
		bson.D{{Key: "schema", Value: bson.A{bson.D{{Key: "field", Value: "age"}, {Key: "types", Value: bson.A{"missing", "long"}}}}}},
	}

	infer := func(docs []any, g schema.Grouping) *schema.Result {
		src := runnerFunc{count: 42, stream: func() schema.Stream[schema.PartialResult] {
			cur, err := mongo.NewCursorFromDocuments(docs, nil, nil)
			require.NoError(t, err)
			return newPartialResultStream(cur)
		}}
		opts := schema.DefaultOptions()
		opts.Mode = schema.ModeServer
		opts.Grouping = g
		res, err := schema.NewInferrer(src, opts, logger.NewNop()).Infer(context.Background())
		require.NoError(t, err)
		return res
	}

	single := infer(singleDocs, schema.GroupingSingle)
	perField := infer(perFieldDocs, schema.GroupingPerField)

	assert.True(t, single.Aggregate.Equal(perField.Aggregate), "single=%v per_field=%v", single.Aggregate, perField.Aggregate)
	assert.Equal(t, 1, single.Batches)
	assert.Equal(t, 3, perField.Batches)
	assert.Equal(t, []string{"_id", "age", "name"}, single.Keys)

	age := single.Aggregate["age"]
	assert.True(t, age.Has(schema.TypeInteger))
	assert.True(t, age.Has(schema.TypeMissing))
	assert.Equal(t, 2, age.Len())
}
