package schema

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type customID string

func TestTypeOf(t *testing.T) {
	var nilPtr *int
	seven := 7

	tests := []struct {
		name string
		in   any
		want TypeTag
	}{
		{"nil", nil, TypeNull},
		{"bson null", bson.Null{}, TypeNull},
		{"bson undefined", bson.Undefined{}, TypeNull},
		{"string", "x", TypeString},
		{"bool", true, TypeBoolean},
		{"int", 1, TypeInteger},
		{"int32", int32(1), TypeInteger},
		{"uint64", uint64(1), TypeInteger},
		{"float64", 1.5, TypeFloat},
		{"decimal128", bson.Decimal128{}, TypeFloat},
		{"json integer", json.Number("12"), TypeInteger},
		{"json float", json.Number("1.25"), TypeFloat},
		{"time", time.Now(), TypeDate},
		{"bson datetime", bson.DateTime(0), TypeDate},
		{"bson timestamp", bson.Timestamp{T: 1}, TypeDate},
		{"bytes", []byte("ab"), TypeBinary},
		{"bson binary", bson.Binary{Data: []byte{1}}, TypeBinary},
		{"object id", bson.NewObjectID(), TypeObjectID},
		{"bson array", bson.A{1}, TypeArray},
		{"slice", []any{1}, TypeArray},
		{"typed slice", []string{"a"}, TypeArray},
		{"bson doc", bson.D{{Key: "x", Value: 1}}, TypeObject},
		{"bson map", bson.M{"x": 1}, TypeObject},
		{"map", map[string]any{"x": 1}, TypeObject},
		{"ordered map", orderedmap.NewOrderedMap[string, any](), TypeObject},
		{"struct", struct{ A int }{1}, TypeObject},
		{"regex", bson.Regex{Pattern: "^a"}, TypeOther},
		{"javascript", bson.JavaScript("x"), TypeOther},
		{"min key", bson.MinKey{}, TypeOther},
		{"named string", customID("abc"), TypeString},
		{"nil pointer", nilPtr, TypeNull},
		{"pointer", &seven, TypeInteger},
		{"channel", make(chan int), TypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.in))
		})
	}
}

func TestTypeOf_NeverMissing(t *testing.T) {
	for _, v := range []any{nil, "", 0, 0.0, false, bson.A{}, bson.D{}, struct{}{}, func() {}} {
		assert.NotEqual(t, TypeMissing, TypeOf(v))
	}
}

func TestExtract_Representations(t *testing.T) {
	want := DocumentShape{"a": TypeInteger, "b": TypeString}

	om := orderedmap.NewOrderedMap[string, any]()
	om.Set("a", 1)
	om.Set("b", "x")

	raw, err := bson.Marshal(bson.D{{Key: "a", Value: int32(1)}, {Key: "b", Value: "x"}})
	require.NoError(t, err)

	for name, doc := range map[string]RawDocument{
		"bson.D":     bson.D{{Key: "a", Value: 1}, {Key: "b", Value: "x"}},
		"bson.M":     bson.M{"a": 1, "b": "x"},
		"map":        map[string]any{"a": 1, "b": "x"},
		"orderedmap": om,
		"bson.Raw":   bson.Raw(raw),
	} {
		t.Run(name, func(t *testing.T) {
			shape, err := Extract(doc)
			require.NoError(t, err)
			assert.Equal(t, want, shape)
		})
	}
}

func TestExtract_EmptyDocument(t *testing.T) {
	shape, err := Extract(bson.D{})
	require.NoError(t, err)
	assert.Empty(t, shape)
	assert.NotNil(t, shape)
}

func TestExtract_Malformed(t *testing.T) {
	var nilOM *orderedmap.OrderedMap[string, any]

	for name, doc := range map[string]RawDocument{
		"nil":            nil,
		"nil orderedmap": nilOM,
		"scalar":         42,
		"array":          bson.A{1, 2},
		"corrupt raw":    bson.Raw{0x05, 0x00},
	} {
		t.Run(name, func(t *testing.T) {
			shape, err := Extract(doc)
			require.Error(t, err)

			var mde *MalformedDocumentError
			require.ErrorAs(t, err, &mde)
			assert.NotEmpty(t, mde.Reason)
			assert.NotNil(t, shape)
			assert.Empty(t, shape)
		})
	}
}

func TestExtract_RawMatchesDecoded(t *testing.T) {
	doc := bson.D{
		{Key: "_id", Value: bson.NewObjectID()},
		{Key: "n", Value: int64(1)},
		{Key: "f", Value: 1.5},
		{Key: "when", Value: bson.NewDateTimeFromTime(time.Unix(0, 0))},
		{Key: "tags", Value: bson.A{"a"}},
		{Key: "sub", Value: bson.D{{Key: "x", Value: nil}}},
		{Key: "nothing", Value: nil},
		{Key: "re", Value: bson.Regex{Pattern: "x"}},
	}
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	fromRaw, err := Extract(bson.Raw(raw))
	require.NoError(t, err)
	fromDecoded, err := Extract(doc)
	require.NoError(t, err)

	assert.Equal(t, fromDecoded, fromRaw)
}
