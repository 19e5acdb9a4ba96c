package metascan

import (
	"regexp"
	"sort"

	"github.com/jward/metascan/internal/scanner"
	"github.com/jward/metascan/internal/store"
)

// QueryBuilder answers lookups over a completed Store. It never modifies the
// Store and holds no mutable state, so one QueryBuilder may serve concurrent
// callers over a sealed Store.
//
// Every method returns a sorted, de-duplicated, non-nil slice.
type QueryBuilder struct {
	store *store.Store
}

// NewQueryBuilder wraps s. A nil s behaves as an empty Store.
func NewQueryBuilder(s *store.Store) *QueryBuilder {
	if s == nil {
		s = store.New()
		s.Seal()
	}
	return &QueryBuilder{store: s}
}

// Store returns the underlying Store.
func (q *QueryBuilder) Store() *store.Store {
	return q.store
}

// Lookup returns the values stored under (category, key).
func (q *QueryBuilder) Lookup(category, key string) []string {
	return q.store.Get(category, key)
}

// AllTypes returns every unit recorded by the Types scanner.
func (q *QueryBuilder) AllTypes() []string {
	return q.store.Keys(scanner.CategoryTypes)
}

// SubTypesOf returns every direct and transitive subtype of typeName. The
// type itself is only included when the hierarchy cycles back to it.
func (q *QueryBuilder) SubTypesOf(typeName string) []string {
	return q.closure(scanner.CategorySubTypes, typeName)
}

// TypesAnnotatedWith returns the units annotated with annotation. With
// honorMeta, units carrying an annotation that is itself (transitively)
// annotated with annotation are included too.
func (q *QueryBuilder) TypesAnnotatedWith(annotation string, honorMeta bool) []string {
	if !honorMeta {
		return q.store.Get(scanner.CategoryTypeAnnotations, annotation)
	}
	return q.closure(scanner.CategoryTypeAnnotations, annotation)
}

// ValuesMatching returns the values of category fully matched by re. An
// empty category searches every category.
func (q *QueryBuilder) ValuesMatching(category string, re *regexp.Regexp) []string {
	match := scanner.Matching(re)
	out := []string{}
	for _, v := range q.store.Values(category) {
		if match(v) {
			out = append(out, v)
		}
	}
	return out
}

// closure walks "value is itself a key" edges breadth-first from the values
// of start. Each name is expanded at most once, so cycles terminate.
func (q *QueryBuilder) closure(category, start string) []string {
	expanded := map[string]bool{start: true}
	found := make(map[string]bool)
	queue := q.store.Get(category, start)

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		found[name] = true
		if expanded[name] {
			continue
		}
		expanded[name] = true
		queue = append(queue, q.store.Get(category, name)...)
	}
	return sortedKeys(found)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
