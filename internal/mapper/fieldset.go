package mapper

import "sort"

// FieldSet is a set of field names selected for a copy.
type FieldSet map[string]struct{}

// Fields builds a FieldSet from names.
func Fields(names ...string) FieldSet {
	fs := make(FieldSet, len(names))
	for _, n := range names {
		fs[n] = struct{}{}
	}
	return fs
}

// Has reports whether name is in the set.
func (fs FieldSet) Has(name string) bool {
	_, ok := fs[name]
	return ok
}

// Sorted returns the names in lexical order.
func (fs FieldSet) Sorted() []string {
	out := make([]string, 0, len(fs))
	for n := range fs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
