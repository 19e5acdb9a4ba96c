package metascan

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jward/metascan/internal/scanner"
)

// FilterKind selects how a Filter matches units.
type FilterKind int

const (
	// FilterAnnotation matches units annotated with Arg, directly or through
	// meta-annotations.
	FilterAnnotation FilterKind = iota + 1
	// FilterAssignable matches the subtypes of Arg.
	FilterAssignable
	// FilterPattern matches every stored value fully matched by the regular
	// expression Arg.
	FilterPattern
)

var filterKindNames = map[FilterKind]string{
	FilterAnnotation: "annotation",
	FilterAssignable: "assignable",
	FilterPattern:    "regex",
}

func (k FilterKind) String() string {
	if name, ok := filterKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("FilterKind(%d)", int(k))
}

// Filter selects candidate units from a Store.
type Filter struct {
	Kind FilterKind
	Arg  string
}

// Annotation returns a filter matching units annotated with name.
func Annotation(name string) Filter { return Filter{Kind: FilterAnnotation, Arg: name} }

// Assignable returns a filter matching the subtypes of typeName.
func Assignable(typeName string) Filter { return Filter{Kind: FilterAssignable, Arg: typeName} }

// Pattern returns a filter matching stored values fully matched by expr.
func Pattern(expr string) Filter { return Filter{Kind: FilterPattern, Arg: expr} }

// ParseFilter parses "kind:arg", where kind is annotation, assignable or
// regex.
func ParseFilter(s string) (Filter, error) {
	kind, arg, ok := strings.Cut(s, ":")
	if !ok {
		return Filter{}, &ConfigError{Field: "filter", Reason: fmt.Sprintf("%q is not kind:arg", s)}
	}
	for k, name := range filterKindNames {
		if name == kind {
			f := Filter{Kind: k, Arg: arg}
			return f, f.Validate()
		}
	}
	return Filter{}, &ConfigError{Field: "filter", Reason: fmt.Sprintf("unknown filter kind %q", kind)}
}

// Validate checks that the filter is well formed.
func (f Filter) Validate() error {
	if _, ok := filterKindNames[f.Kind]; !ok {
		return &ConfigError{Field: "filter", Reason: fmt.Sprintf("unknown filter kind %d", int(f.Kind))}
	}
	if f.Arg == "" {
		return &ConfigError{Field: "filter", Reason: fmt.Sprintf("%s filter has empty argument", f.Kind)}
	}
	if f.Kind == FilterPattern {
		if _, err := regexp.Compile(f.Arg); err != nil {
			return &ConfigError{Field: "filter", Reason: fmt.Sprintf("bad pattern %q: %v", f.Arg, err)}
		}
	}
	return nil
}

// Category returns the store category the filter reads, or "" when it reads
// every category.
func (f Filter) Category() string {
	switch f.Kind {
	case FilterAnnotation:
		return scanner.CategoryTypeAnnotations
	case FilterAssignable:
		return scanner.CategorySubTypes
	default:
		return ""
	}
}

// Match returns the names selected by f. f must be valid.
func (f Filter) Match(q *QueryBuilder) []string {
	switch f.Kind {
	case FilterAnnotation:
		return q.TypesAnnotatedWith(f.Arg, true)
	case FilterAssignable:
		return q.SubTypesOf(f.Arg)
	case FilterPattern:
		return q.ValuesMatching("", regexp.MustCompile(f.Arg))
	default:
		return []string{}
	}
}

func (f Filter) String() string {
	return f.Kind.String() + ":" + f.Arg
}
