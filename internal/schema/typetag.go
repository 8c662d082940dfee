// Package schema infers the top-level structural schema of a document
// collection from a random sample.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TypeTag is the canonical type of a top-level field value.
type TypeTag uint8

const (
	TypeOther TypeTag = iota
	TypeString
	TypeInteger
	TypeFloat
	TypeBoolean
	TypeNull
	TypeDate
	TypeBinary
	TypeObjectID
	TypeArray
	TypeObject
	// TypeMissing marks a field absent from a document. No value ever
	// extracts to it.
	TypeMissing

	numTypeTags
)

var typeTagNames = [numTypeTags]string{
	TypeOther:    "other",
	TypeString:   "string",
	TypeInteger:  "integer",
	TypeFloat:    "float",
	TypeBoolean:  "boolean",
	TypeNull:     "null",
	TypeDate:     "date",
	TypeBinary:   "binary",
	TypeObjectID: "object-id",
	TypeArray:    "array",
	TypeObject:   "object",
	TypeMissing:  "missing",
}

func (t TypeTag) String() string {
	if t >= numTypeTags {
		return typeTagNames[TypeOther]
	}
	return typeTagNames[t]
}

// AllTypeTags returns every tag in canonical order.
func AllTypeTags() []TypeTag {
	tags := make([]TypeTag, 0, numTypeTags)
	for t := TypeTag(0); t < numTypeTags; t++ {
		tags = append(tags, t)
	}
	return tags
}

// ParseTypeTag parses the canonical name of a tag (case-insensitive).
func ParseTypeTag(s string) (TypeTag, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, t := range AllTypeTags() {
		if t.String() == name {
			return t, nil
		}
	}
	return TypeOther, fmt.Errorf("unknown type tag %q", s)
}

func (t TypeTag) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TypeTag) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTypeTag(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// serverTypes maps the names returned by the MongoDB $type operator onto
// the canonical set.
var serverTypes = map[string]TypeTag{
	"string":    TypeString,
	"int":       TypeInteger,
	"long":      TypeInteger,
	"double":    TypeFloat,
	"decimal":   TypeFloat,
	"bool":      TypeBoolean,
	"null":      TypeNull,
	"undefined": TypeNull,
	"date":      TypeDate,
	"timestamp": TypeDate,
	"binData":   TypeBinary,
	"objectId":  TypeObjectID,
	"array":     TypeArray,
	"object":    TypeObject,
	"missing":   TypeMissing,
}

// FromServerType maps a $type name reported by the store onto a TypeTag.
// Canonical names are accepted as well; anything else is TypeOther.
func FromServerType(name string) TypeTag {
	if t, ok := serverTypes[name]; ok {
		return t
	}
	if t, err := ParseTypeTag(name); err == nil {
		return t
	}
	return TypeOther
}

// TypeSet is a set of TypeTags stored as a bitmask. Union is a bitwise OR,
// so it is idempotent, commutative and associative.
type TypeSet uint16

// NewTypeSet returns a set holding the given tags.
func NewTypeSet(tags ...TypeTag) TypeSet {
	var s TypeSet
	for _, t := range tags {
		s = s.Add(t)
	}
	return s
}

// Add returns s with t included.
func (s TypeSet) Add(t TypeTag) TypeSet {
	if t >= numTypeTags {
		t = TypeOther
	}
	return s | 1<<t
}

// Has reports whether t is in s.
func (s TypeSet) Has(t TypeTag) bool {
	return t < numTypeTags && s&(1<<t) != 0
}

// Union returns the set of tags in s or o.
func (s TypeSet) Union(o TypeSet) TypeSet {
	return s | o
}

// Len returns the number of tags in s.
func (s TypeSet) Len() int {
	n := 0
	for t := TypeTag(0); t < numTypeTags; t++ {
		if s.Has(t) {
			n++
		}
	}
	return n
}

// Tags returns the members of s in canonical order.
func (s TypeSet) Tags() []TypeTag {
	tags := make([]TypeTag, 0, s.Len())
	for _, t := range AllTypeTags() {
		if s.Has(t) {
			tags = append(tags, t)
		}
	}
	return tags
}

// Strings returns the canonical names of the members of s.
func (s TypeSet) Strings() []string {
	tags := s.Tags()
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.String()
	}
	return names
}

func (s TypeSet) String() string {
	return "{" + strings.Join(s.Strings(), ",") + "}"
}

func (s TypeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

func (s *TypeSet) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	var set TypeSet
	for _, n := range names {
		t, err := ParseTypeTag(n)
		if err != nil {
			return err
		}
		set = set.Add(t)
	}
	*s = set
	return nil
}
