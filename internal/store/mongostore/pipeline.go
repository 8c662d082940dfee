package mongostore

import (
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dbsmedya/docschema/internal/schema"
)

// SampleStage draws size documents at random.
func SampleStage(size int64) bson.D {
	return bson.D{{Key: "$sample", Value: bson.D{{Key: "size", Value: size}}}}
}

// BuildPipeline returns the aggregation that performs type extraction, key
// unification, shape completion, deduplication and per-field grouping on the
// server. The grouping only changes how the result is packed: GroupingSingle
// ends with one document holding every field, GroupingPerField streams one
// document per field. Both decode as schema.PartialResult.
func BuildPipeline(sampleSize int64, grouping schema.Grouping) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		SampleStage(sampleSize),

		// Each document becomes its shape: [{k: field, v: type name}].
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "schema", Value: bson.D{{Key: "$map", Value: bson.D{
				{Key: "input", Value: bson.D{{Key: "$objectToArray", Value: "$$ROOT"}}},
				{Key: "as", Value: "field"},
				{Key: "in", Value: bson.D{
					{Key: "k", Value: "$$field.k"},
					{Key: "v", Value: bson.D{{Key: "$type", Value: "$$field.v"}}},
				}},
			}}}},
		}}},

		// Distinct shapes plus the key list of each.
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "keys", Value: bson.D{{Key: "$addToSet", Value: "$schema.k"}}},
			{Key: "schema", Value: bson.D{{Key: "$addToSet", Value: "$schema"}}},
		}}},

		// Global key set.
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "keys", Value: bson.D{{Key: "$reduce", Value: bson.D{
				{Key: "input", Value: "$keys"},
				{Key: "initialValue", Value: bson.A{}},
				{Key: "in", Value: bson.D{{Key: "$setUnion", Value: bson.A{"$$value", "$$this"}}}},
			}}}},
			{Key: "schema", Value: 1},
		}}},

		{{Key: "$unwind", Value: "$schema"}},

		// Completion: every absent key is appended as "missing".
		{{Key: "$project", Value: bson.D{
			{Key: "schema", Value: bson.D{{Key: "$reduce", Value: bson.D{
				{Key: "input", Value: bson.D{{Key: "$setDifference", Value: bson.A{"$keys", "$schema.k"}}}},
				{Key: "initialValue", Value: "$schema"},
				{Key: "in", Value: bson.D{{Key: "$concatArrays", Value: bson.A{
					"$$value",
					bson.A{bson.D{{Key: "k", Value: "$$this"}, {Key: "v", Value: schema.TypeMissing.String()}}},
				}}}},
			}}}},
		}}},

		// Deduplicate completed shapes. Objects compare faster than arrays here.
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "schema", Value: bson.D{{Key: "$addToSet", Value: bson.D{{Key: "$arrayToObject", Value: "$schema"}}}}},
		}}},

		{{Key: "$unwind", Value: "$schema"}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "schema", Value: bson.D{{Key: "$objectToArray", Value: "$schema"}}},
		}}},
		{{Key: "$unwind", Value: "$schema"}},

		// One group per field with the set of its types.
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$schema.k"},
			{Key: "types", Value: bson.D{{Key: "$addToSet", Value: "$schema.v"}}},
		}}},
	}

	if grouping == schema.GroupingPerField {
		return append(pipeline, bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "schema", Value: bson.A{bson.D{
				{Key: "field", Value: "$_id"},
				{Key: "types", Value: "$types"},
			}}},
		}}})
	}

	return append(pipeline, bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: nil},
		{Key: "schema", Value: bson.D{{Key: "$addToSet", Value: bson.D{
			{Key: "field", Value: "$_id"},
			{Key: "types", Value: "$types"},
		}}}},
	}}})
}
