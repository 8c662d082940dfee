package report

import (
	"github.com/invopop/jsonschema"

	"github.com/dbsmedya/docschema/internal/schema"
)

var objectIDPattern = "^[0-9a-f]{24}$"

// JSONSchema converts the aggregate into a JSON Schema document. A field is
// required unless some shape lacked it; a field with several types becomes
// anyOf.
func JSONSchema(agg schema.Aggregate, title string) *jsonschema.Schema {
	root := &jsonschema.Schema{
		Version:    jsonschema.Version,
		Type:       "object",
		Title:      title,
		Properties: jsonschema.NewProperties(),
	}

	for _, field := range agg.Fields() {
		types := agg[field]

		var alts []*jsonschema.Schema
		for _, t := range types.Tags() {
			if t == schema.TypeMissing {
				continue
			}
			alts = append(alts, typeSchema(t))
		}

		var prop *jsonschema.Schema
		switch len(alts) {
		case 0:
			prop = &jsonschema.Schema{}
		case 1:
			prop = alts[0]
		default:
			prop = &jsonschema.Schema{AnyOf: alts}
		}
		root.Properties.Set(field, prop)

		if !types.Has(schema.TypeMissing) {
			root.Required = append(root.Required, field)
		}
	}
	return root
}

func typeSchema(t schema.TypeTag) *jsonschema.Schema {
	switch t {
	case schema.TypeString:
		return &jsonschema.Schema{Type: "string"}
	case schema.TypeInteger:
		return &jsonschema.Schema{Type: "integer"}
	case schema.TypeFloat:
		return &jsonschema.Schema{Type: "number"}
	case schema.TypeBoolean:
		return &jsonschema.Schema{Type: "boolean"}
	case schema.TypeNull:
		return &jsonschema.Schema{Type: "null"}
	case schema.TypeDate:
		return &jsonschema.Schema{Type: "string", Format: "date-time"}
	case schema.TypeBinary:
		return &jsonschema.Schema{Type: "string", ContentEncoding: "base64"}
	case schema.TypeObjectID:
		return &jsonschema.Schema{Type: "string", Pattern: objectIDPattern}
	case schema.TypeArray:
		return &jsonschema.Schema{Type: "array"}
	case schema.TypeObject:
		return &jsonschema.Schema{Type: "object"}
	}
	// other: any value
	return &jsonschema.Schema{Description: schema.TypeOther.String()}
}
