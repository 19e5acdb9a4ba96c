// Package store holds the fact index: category → key → set of values, with
// merge, prune and snapshot persistence.
package store

import (
	"sort"
)

type valueSet map[string]struct{}

// Store is a multimap of multimaps. It is single-writer while open; after
// Seal it is read-only and safe for any number of concurrent readers.
type Store struct {
	categories map[string]map[string]valueSet
	sealed     bool
}

// New creates an empty, open Store.
func New() *Store {
	return &Store{categories: make(map[string]map[string]valueSet)}
}

// Merged returns a new open Store holding the union of stores.
func Merged(stores ...*Store) *Store {
	out := New()
	for _, s := range stores {
		out.Merge(s)
	}
	return out
}

func (s *Store) mustBeOpen() {
	if s.sealed {
		panic("store: write to sealed store")
	}
}

// Seal makes the Store read-only. Further writes panic.
func (s *Store) Seal() { s.sealed = true }

// Sealed reports whether Seal was called.
func (s *Store) Sealed() bool { return s.sealed }

// Put records (category, key, value). Re-adding an existing fact is a no-op.
func (s *Store) Put(category, key, value string) {
	s.mustBeOpen()
	keys, ok := s.categories[category]
	if !ok {
		keys = make(map[string]valueSet)
		s.categories[category] = keys
	}
	values, ok := keys[key]
	if !ok {
		values = make(valueSet)
		keys[key] = values
	}
	values[value] = struct{}{}
}

// Get returns the sorted values recorded under (category, key). The result
// is empty, never nil, when nothing is recorded.
func (s *Store) Get(category, key string) []string {
	return sortedSet(s.categories[category][key])
}

// Has reports whether the exact fact is present.
func (s *Store) Has(category, key, value string) bool {
	_, ok := s.categories[category][key][value]
	return ok
}

// Categories returns the sorted category names.
func (s *Store) Categories() []string {
	out := make([]string, 0, len(s.categories))
	for c := range s.categories {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Keys returns the sorted keys of a category.
func (s *Store) Keys(category string) []string {
	keys := s.categories[category]
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Values returns every distinct value of a category, sorted. An empty
// category name means all categories.
func (s *Store) Values(category string) []string {
	all := make(valueSet)
	for c, keys := range s.categories {
		if category != "" && c != category {
			continue
		}
		for _, values := range keys {
			for v := range values {
				all[v] = struct{}{}
			}
		}
	}
	return sortedSet(all)
}

// Len returns the total number of facts.
func (s *Store) Len() int {
	n := 0
	for _, keys := range s.categories {
		for _, values := range keys {
			n += len(values)
		}
	}
	return n
}

// Merge adds every fact of other into s. Merging is commutative,
// associative and idempotent; merging a Store into itself is a no-op.
func (s *Store) Merge(other *Store) {
	if other == nil || other == s {
		return
	}
	s.mustBeOpen()
	for c, keys := range other.categories {
		for k, values := range keys {
			for v := range values {
				s.Put(c, k, v)
			}
		}
	}
}

// Prune removes every value for which keep returns false, then drops keys
// and categories left empty. It returns the number of facts removed.
func (s *Store) Prune(keep func(value string) bool) int {
	s.mustBeOpen()
	removed := 0
	for c, keys := range s.categories {
		for k, values := range keys {
			for v := range values {
				if !keep(v) {
					delete(values, v)
					removed++
				}
			}
			if len(values) == 0 {
				delete(keys, k)
			}
		}
		if len(keys) == 0 {
			delete(s.categories, c)
		}
	}
	return removed
}

// Clone returns an open deep copy of s.
func (s *Store) Clone() *Store {
	return Merged(s)
}

// Equal reports whether both stores hold exactly the same facts.
func (s *Store) Equal(other *Store) bool {
	if other == nil {
		return s.Len() == 0
	}
	if len(s.categories) != len(other.categories) {
		return false
	}
	for c, keys := range s.categories {
		otherKeys, ok := other.categories[c]
		if !ok || len(keys) != len(otherKeys) {
			return false
		}
		for k, values := range keys {
			otherValues, ok := otherKeys[k]
			if !ok || len(values) != len(otherValues) {
				return false
			}
			for v := range values {
				if _, ok := otherValues[v]; !ok {
					return false
				}
			}
		}
	}
	return true
}

// Walk calls fn for every fact in category, key, value order.
func (s *Store) Walk(fn func(category, key, value string)) {
	for _, c := range s.Categories() {
		for _, k := range s.Keys(c) {
			for _, v := range s.Get(c, k) {
				fn(c, k, v)
			}
		}
	}
}

func sortedSet(set valueSet) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
