// Package meta defines the structural model of a scanned unit (a
// class-equivalent) and the Reader capability that supplies units to the
// scan engine.
package meta

import (
	"context"
	"errors"
	"fmt"
)

// ErrMalformed reports a unit whose structural facts are unusable.
var ErrMalformed = errors.New("malformed unit metadata")

// ErrUnitNotFound is returned by readers asked for a ref they do not know.
var ErrUnitNotFound = errors.New("unit not found")

// MemberKind distinguishes methods, constructors and fields.
type MemberKind string

const (
	KindMethod      MemberKind = "method"
	KindConstructor MemberKind = "constructor"
	KindField       MemberKind = "field"
)

// ConstructorName is the member name used for every constructor.
const ConstructorName = "<init>"

// Param is one declared parameter of a method or constructor.
type Param struct {
	Type        string
	Annotations []string
}

// Member is a method, constructor or field declared by a unit.
type Member struct {
	Kind        MemberKind
	Name        string
	Params      []Param
	ReturnType  string // methods only
	Type        string // fields only
	Annotations []string
}

// Unit is the read-only structural view of one declared unit. Methods holds
// methods and constructors in declaration order.
type Unit struct {
	Name        string
	Superclass  string
	Interfaces  []string
	Annotations []string
	Methods     []Member
	Fields      []Member
}

// Reader reads a unit's structural facts given its ref. Implementations must
// be safe for concurrent use by the scan workers.
type Reader interface {
	ReadUnit(ctx context.Context, ref string) (*Unit, error)
}

// Validate checks the invariants scanners rely on.
func (u *Unit) Validate() error {
	if u == nil {
		return fmt.Errorf("%w: nil unit", ErrMalformed)
	}
	if u.Name == "" {
		return fmt.Errorf("%w: empty unit name", ErrMalformed)
	}
	for i, m := range u.Methods {
		if err := m.validate(); err != nil {
			return fmt.Errorf("%w: %s method %d: %v", ErrMalformed, u.Name, i, err)
		}
	}
	for i, f := range u.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: %s field %d: empty name", ErrMalformed, u.Name, i)
		}
	}
	return nil
}

func (m Member) validate() error {
	if m.Name == "" {
		return errors.New("empty name")
	}
	for i, p := range m.Params {
		if p.Type == "" {
			return fmt.Errorf("%s parameter %d: empty type", m.Name, i)
		}
	}
	return nil
}

// ParamTypes returns the ordered parameter type names.
func (m Member) ParamTypes() []string {
	types := make([]string, len(m.Params))
	for i, p := range m.Params {
		types[i] = p.Type
	}
	return types
}

// IsConstructor reports whether m is a constructor.
func (m Member) IsConstructor() bool {
	return m.Kind == KindConstructor || m.Name == ConstructorName
}
