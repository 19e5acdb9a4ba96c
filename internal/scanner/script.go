package scanner

import (
	"context"
	"errors"
	"fmt"

	"github.com/jward/metascan/internal/meta"
	"github.com/jward/metascan/internal/runtime"
	"github.com/jward/metascan/internal/store"
)

// ErrConfiguration reports an invalid scanner or engine setup.
var ErrConfiguration = errors.New("configuration error")

// ValidCategory reports whether name can be used as a store category. The
// rule is the XML snapshot's element-name rule.
func ValidCategory(name string) bool {
	return store.ValidCategory(name)
}

// Script runs a Risor script once per unit. The script reads the "unit"
// global and records facts with emit(key, value).
type Script struct {
	base
	rt     *runtime.Runtime
	label  string
	source string
}

// NewScript loads the script at path through rt. The script is read once;
// later edits to the file are not picked up.
func NewScript(category string, rt *runtime.Runtime, path string, opts ...Option) (*Script, error) {
	if rt == nil {
		return nil, fmt.Errorf("%w: script %s: nil runtime", ErrConfiguration, path)
	}
	src, err := rt.LoadScript(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return NewScriptSource(category, rt, path, src, opts...)
}

// NewScriptSource creates a Script from source text; label names it in
// errors and logs.
func NewScriptSource(category string, rt *runtime.Runtime, label, source string, opts ...Option) (*Script, error) {
	if !ValidCategory(category) {
		return nil, fmt.Errorf("%w: script %s: invalid category %q", ErrConfiguration, label, category)
	}
	if rt == nil {
		return nil, fmt.Errorf("%w: script %s: nil runtime", ErrConfiguration, label)
	}
	return &Script{
		base:   newBase(category, AcceptAll, opts),
		rt:     rt,
		label:  label,
		source: source,
	}, nil
}

func (s *Script) Scan(ctx context.Context, u *meta.Unit, sink Sink) error {
	return s.rt.ScanUnit(ctx, s.label, s.source, u, func(key, value string) {
		s.emit(sink, key, value)
	})
}
