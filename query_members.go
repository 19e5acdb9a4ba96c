package metascan

import (
	"github.com/jward/metascan/internal/meta"
	"github.com/jward/metascan/internal/scanner"
)

// Member lookups return member keys ("unit.name(T1, T2)" or "unit.field").
// Parameter lists, return types and parameter annotations share the
// MethodParameterScanner category; methods and constructors are told apart
// by the constructor name in the key.

// MethodsMatchParams returns the methods whose parameter types are exactly
// types, in order.
func (q *QueryBuilder) MethodsMatchParams(types ...string) []string {
	return q.methods(scanner.CategoryMethodParameters, meta.ParamsKey(types))
}

// ConstructorsMatchParams returns the constructors whose parameter types are
// exactly types, in order.
func (q *QueryBuilder) ConstructorsMatchParams(types ...string) []string {
	return q.constructors(scanner.CategoryMethodParameters, meta.ParamsKey(types))
}

// MethodsReturn returns the methods declared to return typeName.
func (q *QueryBuilder) MethodsReturn(typeName string) []string {
	return q.methods(scanner.CategoryMethodParameters, typeName)
}

// Converters returns the methods taking a single from parameter and
// returning to.
func (q *QueryBuilder) Converters(from, to string) []string {
	return q.ConvertersFromParams([]string{from}, to)
}

// ConvertersFromParams returns the methods whose parameter list is params
// and whose return type is to.
func (q *QueryBuilder) ConvertersFromParams(params []string, to string) []string {
	return intersect(q.MethodsMatchParams(params...), q.MethodsReturn(to))
}

// MethodsWithParamAnnotated returns the methods with at least one parameter
// annotated with annotation.
func (q *QueryBuilder) MethodsWithParamAnnotated(annotation string) []string {
	return q.methods(scanner.CategoryMethodParameters, annotation)
}

// ConstructorsWithParamAnnotated returns the constructors with at least one
// parameter annotated with annotation.
func (q *QueryBuilder) ConstructorsWithParamAnnotated(annotation string) []string {
	return q.constructors(scanner.CategoryMethodParameters, annotation)
}

// MethodsAnnotatedWith returns the methods annotated with annotation.
func (q *QueryBuilder) MethodsAnnotatedWith(annotation string) []string {
	return q.methods(scanner.CategoryMethodAnnotations, annotation)
}

// ConstructorsAnnotatedWith returns the constructors annotated with
// annotation.
func (q *QueryBuilder) ConstructorsAnnotatedWith(annotation string) []string {
	return q.constructors(scanner.CategoryMethodAnnotations, annotation)
}

// FieldsAnnotatedWith returns the fields annotated with annotation.
func (q *QueryBuilder) FieldsAnnotatedWith(annotation string) []string {
	return q.store.Get(scanner.CategoryFieldAnnotations, annotation)
}

func (q *QueryBuilder) methods(category, key string) []string {
	return filterKeys(q.store.Get(category, key), func(k string) bool { return !meta.IsConstructorKey(k) })
}

func (q *QueryBuilder) constructors(category, key string) []string {
	return filterKeys(q.store.Get(category, key), meta.IsConstructorKey)
}

func filterKeys(keys []string, keep func(string) bool) []string {
	out := []string{}
	for _, k := range keys {
		if keep(k) {
			out = append(out, k)
		}
	}
	return out
}

// intersect returns the elements present in both sorted slices.
func intersect(a, b []string) []string {
	out := []string{}
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}
