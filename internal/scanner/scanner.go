// Package scanner turns one unit into facts. Each Scanner writes into its own
// category and drops keys rejected by its acceptance predicate.
package scanner

import (
	"context"
	"regexp"
	"strings"

	"github.com/jward/metascan/internal/meta"
)

// Category names. They double as element names in the XML snapshot, so they
// must stay stable.
const (
	CategoryTypes             = "TypesScanner"
	CategorySubTypes          = "SubTypesScanner"
	CategoryTypeAnnotations   = "TypeAnnotationsScanner"
	CategoryMethodAnnotations = "MethodAnnotationsScanner"
	CategoryFieldAnnotations  = "FieldAnnotationsScanner"
	CategoryMethodParameters  = "MethodParameterScanner"
)

// ObjectType is the implicit root of every hierarchy. SubTypes skips it by
// default.
const ObjectType = "java.lang.Object"

// Sink receives facts. *store.Store satisfies it.
type Sink interface {
	Put(category, key, value string)
}

// Scanner extracts facts from one unit.
type Scanner interface {
	// Category is the store category this scanner writes to.
	Category() string
	// Accept reports whether a candidate key may be stored.
	Accept(key string) bool
	// Scan emits the unit's facts into sink.
	Scan(ctx context.Context, u *meta.Unit, sink Sink) error
}

// Predicate decides whether a key is accepted.
type Predicate func(key string) bool

// AcceptAll accepts every key.
func AcceptAll(string) bool { return true }

// IncludePrefix accepts keys starting with any of prefixes.
func IncludePrefix(prefixes ...string) Predicate {
	return func(key string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(key, p) {
				return true
			}
		}
		return false
	}
}

// ExcludePrefix rejects keys starting with any of prefixes.
func ExcludePrefix(prefixes ...string) Predicate {
	return Not(IncludePrefix(prefixes...))
}

// Matching accepts keys fully matched by re.
func Matching(re *regexp.Regexp) Predicate {
	anchored := regexp.MustCompile(`^(?:` + re.String() + `)$`)
	return anchored.MatchString
}

// Not negates p.
func Not(p Predicate) Predicate {
	return func(key string) bool { return !p(key) }
}

// And accepts keys accepted by every predicate.
func And(ps ...Predicate) Predicate {
	return func(key string) bool {
		for _, p := range ps {
			if !p(key) {
				return false
			}
		}
		return true
	}
}

// Option configures a scanner.
type Option func(*base)

// WithAccept replaces the scanner's acceptance predicate.
func WithAccept(p Predicate) Option {
	return func(b *base) {
		if p != nil {
			b.accept = p
		}
	}
}

// base carries the category and predicate shared by every scanner.
type base struct {
	category string
	accept   Predicate
}

func newBase(category string, def Predicate, opts []Option) base {
	b := base{category: category, accept: def}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) Category() string { return b.category }

func (b *base) Accept(key string) bool { return b.accept(key) }

func (b *base) emit(sink Sink, key, value string) {
	if key == "" || !b.accept(key) {
		return
	}
	sink.Put(b.category, key, value)
}

// Defaults returns the scanner set used when none is configured: subtypes
// and type annotations.
func Defaults() []Scanner {
	return []Scanner{NewSubTypes(), NewTypeAnnotations()}
}

// All returns one of every built-in scanner.
func All() []Scanner {
	return []Scanner{
		NewTypes(),
		NewSubTypes(),
		NewTypeAnnotations(),
		NewMethodAnnotations(),
		NewFieldAnnotations(),
		NewMethodParameter(),
	}
}
