package schema

import (
	"slices"
	"strconv"
	"strings"
)

// FieldTypePair is one (field, type) observation.
type FieldTypePair struct {
	Field string  `json:"field"`
	Type  TypeTag `json:"type"`
}

// DocumentShape is the set of (field, type) pairs of one document. The map
// key makes it unique by field.
type DocumentShape map[string]TypeTag

// Fields returns the field names of the shape, sorted.
func (s DocumentShape) Fields() []string {
	fields := make([]string, 0, len(s))
	for f := range s {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	return fields
}

// Pairs returns the shape as pairs sorted by field.
func (s DocumentShape) Pairs() []FieldTypePair {
	pairs := make([]FieldTypePair, 0, len(s))
	for _, f := range s.Fields() {
		pairs = append(pairs, FieldTypePair{Field: f, Type: s[f]})
	}
	return pairs
}

// Key is a canonical encoding of the shape: two shapes have the same key
// iff they hold the same set of pairs.
func (s DocumentShape) Key() string {
	var b strings.Builder
	for _, f := range s.Fields() {
		// length-prefixed so that no field name can forge a separator
		b.WriteString(strconv.Itoa(len(f)))
		b.WriteByte(':')
		b.WriteString(f)
		b.WriteByte(byte('a' + s[f]))
	}
	return b.String()
}

// Equal reports whether s and o hold the same pairs.
func (s DocumentShape) Equal(o DocumentShape) bool {
	if len(s) != len(o) {
		return false
	}
	for f, t := range s {
		if ot, ok := o[f]; !ok || ot != t {
			return false
		}
	}
	return true
}

// CompletedShape is a DocumentShape whose fields are exactly the global
// key set; fields the source document lacked carry TypeMissing.
type CompletedShape DocumentShape

// Shape returns the completed shape as a plain DocumentShape.
func (c CompletedShape) Shape() DocumentShape { return DocumentShape(c) }

// Key is the canonical encoding used for deduplication.
func (c CompletedShape) Key() string { return DocumentShape(c).Key() }

// Pairs returns the pairs of the completed shape sorted by field.
func (c CompletedShape) Pairs() []FieldTypePair { return DocumentShape(c).Pairs() }

// Complete fills shape with (key, missing) for every key in keys it lacks.
// The input is not modified. Completing an already completed shape against
// the same key set returns an identical shape.
func Complete(shape DocumentShape, keys KeySet) CompletedShape {
	out := make(CompletedShape, len(keys))
	for f, t := range shape {
		out[f] = t
	}
	for k := range keys {
		if _, ok := out[k]; !ok {
			out[k] = TypeMissing
		}
	}
	return out
}

// VerifyCompleted checks that c covers keys exactly.
func VerifyCompleted(c CompletedShape, keys KeySet) error {
	for f := range c {
		if !keys.Has(f) {
			return &InvariantViolationError{Field: f, Expected: len(keys), Got: len(c)}
		}
	}
	if len(c) != len(keys) {
		return &InvariantViolationError{Expected: len(keys), Got: len(c)}
	}
	return nil
}

// ShapeSet collects structurally distinct shapes in first-seen order.
type ShapeSet struct {
	index  map[string]int
	shapes []DocumentShape
}

// NewShapeSet returns an empty set.
func NewShapeSet() *ShapeSet {
	return &ShapeSet{index: make(map[string]int)}
}

// Add inserts s and reports whether it was new.
func (ss *ShapeSet) Add(s DocumentShape) bool {
	key := s.Key()
	if _, ok := ss.index[key]; ok {
		return false
	}
	ss.index[key] = len(ss.shapes)
	ss.shapes = append(ss.shapes, s)
	return true
}

// Len returns the number of distinct shapes.
func (ss *ShapeSet) Len() int { return len(ss.shapes) }

// Shapes returns the distinct shapes in first-seen order.
func (ss *ShapeSet) Shapes() []DocumentShape { return ss.shapes }

// Dedup returns the structurally distinct completed shapes, keeping the
// first occurrence of each.
func Dedup(shapes []CompletedShape) []CompletedShape {
	seen := make(map[string]struct{}, len(shapes))
	out := make([]CompletedShape, 0, len(shapes))
	for _, s := range shapes {
		key := s.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
