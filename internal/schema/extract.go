package schema

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/elliotchance/orderedmap/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// RawDocument is one sampled document as handed over by a store. Accepted
// representations are bson.D, bson.M, bson.Raw, map[string]any and
// *orderedmap.OrderedMap[string, any]; anything else is malformed.
type RawDocument any

// Extract returns the shape of one document: the TypeTag of every top-level
// field. A document that is not a field/value mapping yields an empty shape
// and a MalformedDocumentError.
func Extract(doc RawDocument) (DocumentShape, error) {
	switch d := doc.(type) {
	case bson.D:
		shape := make(DocumentShape, len(d))
		for _, e := range d {
			shape[e.Key] = TypeOf(e.Value)
		}
		return shape, nil
	case bson.M:
		return extractMap(d), nil
	case map[string]any:
		return extractMap(d), nil
	case *orderedmap.OrderedMap[string, any]:
		if d == nil {
			return DocumentShape{}, &MalformedDocumentError{Reason: "nil document"}
		}
		shape := make(DocumentShape, d.Len())
		for el := d.Front(); el != nil; el = el.Next() {
			shape[el.Key] = TypeOf(el.Value)
		}
		return shape, nil
	case bson.Raw:
		elems, err := d.Elements()
		if err != nil {
			return DocumentShape{}, &MalformedDocumentError{Reason: err.Error()}
		}
		shape := make(DocumentShape, len(elems))
		for _, el := range elems {
			shape[el.Key()] = rawTypeOf(el.Value().Type)
		}
		return shape, nil
	case nil:
		return DocumentShape{}, &MalformedDocumentError{Reason: "nil document"}
	default:
		return DocumentShape{}, &MalformedDocumentError{Reason: "not a field/value mapping: " + reflect.TypeOf(doc).String()}
	}
}

func extractMap(m map[string]any) DocumentShape {
	shape := make(DocumentShape, len(m))
	for k, v := range m {
		shape[k] = TypeOf(v)
	}
	return shape
}

// TypeOf maps a single value onto its TypeTag. It never returns TypeMissing.
func TypeOf(v any) TypeTag {
	switch x := v.(type) {
	case nil, bson.Null, bson.Undefined:
		return TypeNull
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TypeInteger
	case float32, float64, bson.Decimal128:
		return TypeFloat
	case json.Number:
		if _, err := x.Int64(); err == nil {
			return TypeInteger
		}
		return TypeFloat
	case time.Time, bson.DateTime, bson.Timestamp:
		return TypeDate
	case []byte, bson.Binary, bson.Vector:
		return TypeBinary
	case bson.ObjectID:
		return TypeObjectID
	case bson.A, []any:
		return TypeArray
	case bson.D, bson.M, map[string]any, *orderedmap.OrderedMap[string, any], bson.Raw:
		return TypeObject
	case bson.RawValue:
		return rawTypeOf(x.Type)
	case bson.Regex, bson.JavaScript, bson.Symbol, bson.CodeWithScope,
		bson.DBPointer, bson.MinKey, bson.MaxKey:
		return TypeOther
	}
	return kindOf(reflect.ValueOf(v))
}

// kindOf covers named types and pointers that the fast path misses.
func kindOf(rv reflect.Value) TypeTag {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return TypeNull
		}
		return TypeOf(rv.Elem().Interface())
	case reflect.String:
		return TypeString
	case reflect.Bool:
		return TypeBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeInteger
	case reflect.Float32, reflect.Float64:
		return TypeFloat
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return TypeBinary
		}
		return TypeArray
	case reflect.Array:
		return TypeArray
	case reflect.Map, reflect.Struct:
		return TypeObject
	}
	return TypeOther
}

func rawTypeOf(t bson.Type) TypeTag {
	switch t {
	case bson.TypeString:
		return TypeString
	case bson.TypeInt32, bson.TypeInt64:
		return TypeInteger
	case bson.TypeDouble, bson.TypeDecimal128:
		return TypeFloat
	case bson.TypeBoolean:
		return TypeBoolean
	case bson.TypeNull, bson.TypeUndefined:
		return TypeNull
	case bson.TypeDateTime, bson.TypeTimestamp:
		return TypeDate
	case bson.TypeBinary:
		return TypeBinary
	case bson.TypeObjectID:
		return TypeObjectID
	case bson.TypeArray:
		return TypeArray
	case bson.TypeEmbeddedDocument:
		return TypeObject
	}
	return TypeOther
}
