package store

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore builds an open Store from "category|key|value" triples.
func newTestStore(t *testing.T, facts ...string) *Store {
	t.Helper()
	s := New()
	for _, f := range facts {
		parts := strings.SplitN(f, "|", 3)
		require.Len(t, parts, 3, "bad fact %q", f)
		s.Put(parts[0], parts[1], parts[2])
	}
	return s
}

// =============================================================================
// Put / Get
// =============================================================================

func TestStore_PutIsIdempotent(t *testing.T) {
	t.Parallel()
	s := New()
	s.Put("SubTypesScanner", "A", "B")
	s.Put("SubTypesScanner", "A", "B")

	assert.Equal(t, []string{"B"}, s.Get("SubTypesScanner", "A"))
	assert.Equal(t, 1, s.Len())
}

func TestStore_GetMissingReturnsEmpty(t *testing.T) {
	t.Parallel()
	s := New()

	got := s.Get("nope", "nothing")
	require.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, s.Keys("nope"))
	assert.Empty(t, s.Categories())
}

func TestStore_CategoriesAreIndependent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t, "a|k|1", "b|k|2")

	assert.Equal(t, []string{"1"}, s.Get("a", "k"))
	assert.Equal(t, []string{"2"}, s.Get("b", "k"))
	assert.Equal(t, []string{"a", "b"}, s.Categories())
}

func TestStore_GetIsSorted(t *testing.T) {
	t.Parallel()
	s := newTestStore(t, "c|k|zeta", "c|k|alpha", "c|k|mid")
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, s.Get("c", "k"))
}

func TestStore_Values(t *testing.T) {
	t.Parallel()
	s := newTestStore(t, "a|k1|x", "a|k2|x", "a|k2|y", "b|k|z")

	assert.Equal(t, []string{"x", "y"}, s.Values("a"))
	assert.Equal(t, []string{"x", "y", "z"}, s.Values(""))
	assert.True(t, s.Has("a", "k2", "y"))
	assert.False(t, s.Has("b", "k2", "y"))
}

// =============================================================================
// Merge
// =============================================================================

func TestStore_MergeIsCommutative(t *testing.T) {
	t.Parallel()
	a := newTestStore(t, "c|k|1", "c|k|2", "d|x|y")
	b := newTestStore(t, "c|k|2", "c|k|3", "e|p|q")

	ab := a.Clone()
	ab.Merge(b)
	ba := b.Clone()
	ba.Merge(a)

	assert.True(t, ab.Equal(ba))
	assert.Equal(t, []string{"1", "2", "3"}, ab.Get("c", "k"))
	assert.Equal(t, ab.Fingerprint(), ba.Fingerprint())
}

func TestStore_MergeIsIdempotent(t *testing.T) {
	t.Parallel()
	a := newTestStore(t, "c|k|1", "c|k|2", "d|x|y")
	before := a.Clone()

	a.Merge(a)
	assert.True(t, a.Equal(before))

	a.Merge(before)
	assert.True(t, a.Equal(before))
}

func TestStore_MergeIsAssociative(t *testing.T) {
	t.Parallel()
	a := newTestStore(t, "c|k|1")
	b := newTestStore(t, "c|k|2", "d|k|1")
	c := newTestStore(t, "c|j|3")

	left := Merged(Merged(a, b), c)
	right := Merged(a, Merged(b, c))
	assert.True(t, left.Equal(right))
}

func TestStore_MergeNil(t *testing.T) {
	t.Parallel()
	a := newTestStore(t, "c|k|1")
	a.Merge(nil)
	assert.Equal(t, 1, a.Len())
}

// =============================================================================
// Prune / Seal / Equal
// =============================================================================

func TestStore_PruneDropsEmptyKeysAndCategories(t *testing.T) {
	t.Parallel()
	s := newTestStore(t, "a|k|keep", "a|k|drop", "a|gone|drop", "b|k|drop")

	removed := s.Prune(func(v string) bool { return v == "keep" })
	assert.Equal(t, 3, removed)
	assert.Equal(t, []string{"a"}, s.Categories())
	assert.Equal(t, []string{"k"}, s.Keys("a"))
	assert.Equal(t, []string{"keep"}, s.Get("a", "k"))
}

func TestStore_SealedRejectsWrites(t *testing.T) {
	t.Parallel()
	s := newTestStore(t, "a|k|v")
	s.Seal()
	require.True(t, s.Sealed())

	assert.Panics(t, func() { s.Put("a", "k", "w") })
	assert.Panics(t, func() { s.Merge(newTestStore(t, "b|k|v")) })
	assert.Panics(t, func() { s.Prune(func(string) bool { return false }) })

	// Reads still work and clones are writable.
	assert.Equal(t, []string{"v"}, s.Get("a", "k"))
	c := s.Clone()
	c.Put("a", "k", "w")
	assert.Equal(t, 2, c.Len())
}

func TestStore_Equal(t *testing.T) {
	t.Parallel()
	a := newTestStore(t, "a|k|1", "a|k|2")

	assert.True(t, a.Equal(newTestStore(t, "a|k|2", "a|k|1")))
	assert.False(t, a.Equal(newTestStore(t, "a|k|1")))
	assert.False(t, a.Equal(newTestStore(t, "a|k|1", "a|k|3")))
	assert.False(t, a.Equal(newTestStore(t, "a|j|1", "a|j|2")))
	assert.True(t, New().Equal(nil))
}

func TestStore_WalkOrder(t *testing.T) {
	t.Parallel()
	s := newTestStore(t, "b|k|2", "a|z|1", "a|k|2", "a|k|1")

	var got []string
	s.Walk(func(c, k, v string) { got = append(got, fmt.Sprintf("%s|%s|%s", c, k, v)) })
	assert.Equal(t, []string{"a|k|1", "a|k|2", "a|z|1", "b|k|2"}, got)
}

func TestStore_FingerprintDistinguishesSeparators(t *testing.T) {
	t.Parallel()
	a := newTestStore(t, "c|a:b|v")
	b := newTestStore(t, "c|a|b:v")
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	assert.Equal(t, New().Fingerprint(), New().Fingerprint())
}
