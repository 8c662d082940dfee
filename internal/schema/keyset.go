package schema

import "slices"

// KeySet is a set of field names.
type KeySet map[string]struct{}

// NewKeySet returns a set holding keys.
func NewKeySet(keys ...string) KeySet {
	ks := make(KeySet, len(keys))
	for _, k := range keys {
		ks[k] = struct{}{}
	}
	return ks
}

// Has reports whether k is in the set.
func (ks KeySet) Has(k string) bool {
	_, ok := ks[k]
	return ok
}

// Sorted returns the keys in lexical order.
func (ks KeySet) Sorted() []string {
	keys := make([]string, 0, len(ks))
	for k := range ks {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Accumulate folds the fields of shape into acc and returns it. acc must be
// owned by the caller; a nil acc starts a new set.
func Accumulate(acc KeySet, shape DocumentShape) KeySet {
	if acc == nil {
		acc = make(KeySet, len(shape))
	}
	for f := range shape {
		acc[f] = struct{}{}
	}
	return acc
}

// UnifyKeys returns the union of the field names of every shape.
func UnifyKeys(shapes []DocumentShape) KeySet {
	acc := make(KeySet)
	for _, s := range shapes {
		acc = Accumulate(acc, s)
	}
	return acc
}
