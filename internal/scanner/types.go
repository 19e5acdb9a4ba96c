package scanner

import (
	"context"

	"github.com/jward/metascan/internal/meta"
)

// Types records every unit under its own name, giving the index a complete
// list of scanned units.
type Types struct{ base }

// NewTypes creates a Types scanner.
func NewTypes(opts ...Option) *Types {
	return &Types{newBase(CategoryTypes, AcceptAll, opts)}
}

func (s *Types) Scan(_ context.Context, u *meta.Unit, sink Sink) error {
	s.emit(sink, u.Name, u.Name)
	return nil
}

// SubTypes records direct supertype edges: superclass → unit and each
// interface → unit. Transitive closure is left to the query side.
type SubTypes struct{ base }

// NewSubTypes creates a SubTypes scanner. Unless overridden, java.lang.Object
// is not recorded as a supertype.
func NewSubTypes(opts ...Option) *SubTypes {
	return &SubTypes{newBase(CategorySubTypes, func(key string) bool { return key != ObjectType }, opts)}
}

func (s *SubTypes) Scan(_ context.Context, u *meta.Unit, sink Sink) error {
	s.emit(sink, u.Superclass, u.Name)
	for _, iface := range u.Interfaces {
		s.emit(sink, iface, u.Name)
	}
	return nil
}

// TypeAnnotations records annotation → unit for annotations present directly
// on the unit.
type TypeAnnotations struct{ base }

// NewTypeAnnotations creates a TypeAnnotations scanner.
func NewTypeAnnotations(opts ...Option) *TypeAnnotations {
	return &TypeAnnotations{newBase(CategoryTypeAnnotations, AcceptAll, opts)}
}

func (s *TypeAnnotations) Scan(_ context.Context, u *meta.Unit, sink Sink) error {
	for _, a := range u.Annotations {
		s.emit(sink, a, u.Name)
	}
	return nil
}
