package pulse

import (
	"maps"
	"slices"
)

// NameSet is an unordered set of parameter, channel or measurement names.
type NameSet map[string]struct{}

// NewNameSet returns a set holding names.
func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}

	return s
}

// Has reports whether name is in the set.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Len returns the number of names.
func (s NameSet) Len() int {
	return len(s)
}

// Sorted returns the names in lexical order.
func (s NameSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// Equal reports whether both sets hold the same names.
func (s NameSet) Equal(other NameSet) bool {
	if len(s) != len(other) {
		return false
	}

	for n := range s {
		if !other.Has(n) {
			return false
		}
	}

	return true
}

func (s NameSet) clone() NameSet {
	return maps.Clone(s)
}

func (s NameSet) add(names ...string) {
	for _, n := range names {
		s[n] = struct{}{}
	}
}

// minus returns the sorted names of s that are not in other.
func (s NameSet) minus(other NameSet) []string {
	var out []string

	for n := range s {
		if !other.Has(n) {
			out = append(out, n)
		}
	}

	slices.Sort(out)

	return out
}

// appendUnique appends the names not yet in order, keeping first appearance.
func appendUnique(order []string, seen NameSet, names ...string) []string {
	for _, n := range names {
		if seen.Has(n) {
			continue
		}

		seen.add(n)
		order = append(order, n)
	}

	return order
}
