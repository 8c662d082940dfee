// Package docjson decodes documents serialized as MongoDB Extended JSON.
package docjson

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ErrNullDocument is returned for an absent document body.
var ErrNullDocument = errors.New("document is NULL")

// Decode parses relaxed or canonical Extended JSON into an ordered document.
// Plain JSON is a subset, so ordinary JSON works as is.
func Decode(raw []byte) (bson.D, error) {
	if raw == nil {
		return nil, ErrNullDocument
	}
	var doc bson.D
	if err := bson.UnmarshalExtJSON(raw, false, &doc); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}
	return doc, nil
}
