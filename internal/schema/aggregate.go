package schema

import (
	"fmt"
	"slices"
)

// Aggregate maps each field to the set of types observed for it across the
// distinct completed shapes. It records which types occur, not how often.
type Aggregate map[string]TypeSet

// AggregateShapes flattens the distinct shapes into (field, type) pairs and
// groups them by field. Each shape contributes each pair once.
func AggregateShapes(distinct []CompletedShape) Aggregate {
	agg := make(Aggregate)
	for _, s := range distinct {
		for f, t := range s {
			agg[f] = agg[f].Add(t)
		}
	}
	return agg
}

// Fields returns the domain of the aggregate, sorted.
func (a Aggregate) Fields() []string {
	fields := make([]string, 0, len(a))
	for f := range a {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	return fields
}

// Keys returns the domain of the aggregate as a KeySet.
func (a Aggregate) Keys() KeySet {
	ks := make(KeySet, len(a))
	for f := range a {
		ks[f] = struct{}{}
	}
	return ks
}

// Equal reports whether a and o hold the same fields with the same types.
func (a Aggregate) Equal(o Aggregate) bool {
	if len(a) != len(o) {
		return false
	}
	for f, ts := range a {
		if ots, ok := o[f]; !ok || ots != ts {
			return false
		}
	}
	return true
}

// Merge returns a new aggregate holding, per field, the union of the types in
// a and b. A field present in both is never overwritten.
func Merge(a, b Aggregate) Aggregate {
	out := make(Aggregate, len(a)+len(b))
	for f, ts := range a {
		out[f] = ts
	}
	for f, ts := range b {
		out[f] = out[f].Union(ts)
	}
	return out
}

// MergeAll folds batches with Merge. Arrival order does not matter.
func MergeAll(batches ...Aggregate) Aggregate {
	acc := make(Aggregate)
	for _, b := range batches {
		acc = Merge(acc, b)
	}
	return acc
}

// FieldTypes is one record of a partial result: a field and the type names
// seen for it.
type FieldTypes struct {
	Field string   `bson:"field" json:"field" yaml:"field"`
	Types []string `bson:"types" json:"types" yaml:"types"`
}

// PartialResult is one batch streamed back by an aggregation.
type PartialResult struct {
	Schema []FieldTypes `bson:"schema" json:"schema"`
}

// Aggregate converts the batch into an Aggregate. Type names go through
// FromServerType; an empty field name or a record without types makes the
// whole batch malformed.
func (p PartialResult) Aggregate() (Aggregate, error) {
	agg := make(Aggregate, len(p.Schema))
	for i, rec := range p.Schema {
		if rec.Field == "" {
			return nil, fmt.Errorf("%w: record %d has no field name", ErrMalformedResult, i)
		}
		if len(rec.Types) == 0 {
			return nil, fmt.Errorf("%w: field %q has no types", ErrMalformedResult, rec.Field)
		}
		var ts TypeSet
		for _, name := range rec.Types {
			ts = ts.Add(FromServerType(name))
		}
		agg[rec.Field] = agg[rec.Field].Union(ts)
	}
	return agg, nil
}

// Grouping selects how the final aggregate is split into partial results.
type Grouping string

const (
	// GroupingSingle packs every field into one record.
	GroupingSingle Grouping = "single"
	// GroupingPerField emits one record per field.
	GroupingPerField Grouping = "per_field"
)

// ParseGrouping parses a grouping name; empty means GroupingSingle.
func ParseGrouping(s string) (Grouping, error) {
	switch Grouping(s) {
	case "", GroupingSingle:
		return GroupingSingle, nil
	case GroupingPerField:
		return GroupingPerField, nil
	}
	return "", fmt.Errorf("unknown grouping %q (want %q or %q)", s, GroupingSingle, GroupingPerField)
}

// Batches splits the aggregate into partial results the way a store
// delivering the given grouping would.
func (a Aggregate) Batches(g Grouping) []PartialResult {
	records := make([]FieldTypes, 0, len(a))
	for _, f := range a.Fields() {
		records = append(records, FieldTypes{Field: f, Types: a[f].Strings()})
	}
	if g == GroupingPerField {
		out := make([]PartialResult, len(records))
		for i, r := range records {
			out[i] = PartialResult{Schema: []FieldTypes{r}}
		}
		return out
	}
	return []PartialResult{{Schema: records}}
}
