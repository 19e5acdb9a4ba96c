package scanner

import (
	"context"

	"github.com/jward/metascan/internal/meta"
)

// MethodAnnotations records annotation → member key for methods and
// constructors.
type MethodAnnotations struct{ base }

// NewMethodAnnotations creates a MethodAnnotations scanner.
func NewMethodAnnotations(opts ...Option) *MethodAnnotations {
	return &MethodAnnotations{newBase(CategoryMethodAnnotations, AcceptAll, opts)}
}

func (s *MethodAnnotations) Scan(_ context.Context, u *meta.Unit, sink Sink) error {
	for _, m := range u.Methods {
		key := meta.MemberKey(u.Name, m)
		for _, a := range m.Annotations {
			s.emit(sink, a, key)
		}
	}
	return nil
}

// FieldAnnotations records annotation → member key for fields.
type FieldAnnotations struct{ base }

// NewFieldAnnotations creates a FieldAnnotations scanner.
func NewFieldAnnotations(opts ...Option) *FieldAnnotations {
	return &FieldAnnotations{newBase(CategoryFieldAnnotations, AcceptAll, opts)}
}

func (s *FieldAnnotations) Scan(_ context.Context, u *meta.Unit, sink Sink) error {
	for _, f := range u.Fields {
		key := meta.MemberKey(u.Name, f)
		for _, a := range f.Annotations {
			s.emit(sink, a, key)
		}
	}
	return nil
}

// MethodParameter indexes methods and constructors three ways, all in one
// category: by rendered parameter list, by return type, and by every
// annotation found on any parameter.
type MethodParameter struct{ base }

// NewMethodParameter creates a MethodParameter scanner.
func NewMethodParameter(opts ...Option) *MethodParameter {
	return &MethodParameter{newBase(CategoryMethodParameters, AcceptAll, opts)}
}

func (s *MethodParameter) Scan(_ context.Context, u *meta.Unit, sink Sink) error {
	for _, m := range u.Methods {
		key := meta.MemberKey(u.Name, m)

		s.emit(sink, meta.ParamsKey(m.ParamTypes()), key)

		if !m.IsConstructor() {
			s.emit(sink, m.ReturnType, key)
		}

		for _, p := range m.Params {
			for _, a := range p.Annotations {
				s.emit(sink, a, key)
			}
		}
	}
	return nil
}
