package meta

import (
	"context"
	"fmt"
	"sync"
)

// StaticReader serves an in-memory universe of units. Individual refs can be
// marked as failing to model unreadable metadata.
type StaticReader struct {
	mu       sync.RWMutex
	units    map[string]*Unit
	order    []string
	failures map[string]error
}

// Compile-time check: *StaticReader satisfies Reader.
var _ Reader = (*StaticReader)(nil)

// NewStaticReader creates a reader over units, keyed by unit name.
func NewStaticReader(units ...*Unit) *StaticReader {
	r := &StaticReader{
		units:    make(map[string]*Unit, len(units)),
		failures: make(map[string]error),
	}
	for _, u := range units {
		r.Add(u)
	}
	return r
}

// Add registers u under its name. Re-adding a name replaces the unit but
// keeps its original position.
func (r *StaticReader) Add(u *Unit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.units[u.Name]; !ok {
		if _, failing := r.failures[u.Name]; !failing {
			r.order = append(r.order, u.Name)
		}
	}
	r.units[u.Name] = u
}

// Fail makes ReadUnit(ref) return err.
func (r *StaticReader) Fail(ref string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.units[ref]; !ok {
		if _, failing := r.failures[ref]; !failing {
			r.order = append(r.order, ref)
		}
	}
	r.failures[ref] = err
}

// Refs returns every known ref in registration order.
func (r *StaticReader) Refs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ReadUnit implements Reader.
func (r *StaticReader) ReadUnit(_ context.Context, ref string) (*Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err, ok := r.failures[ref]; ok {
		return nil, err
	}
	u, ok := r.units[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnitNotFound, ref)
	}
	return u, nil
}
