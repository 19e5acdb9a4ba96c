package metascan

import (
	"context"
	"sort"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/jward/metascan/internal/meta"
	"github.com/jward/metascan/internal/store"
)

// scanParallel scans items with a pipeline of two phases:
//
//	Phase A (parallel): each worker scans its partition into a private Store.
//	Phase B (serial):   the partial Stores are merged in partition order.
//
// Partitions are assigned by hashing the ref, so a ref lands in the same
// partition regardless of input order. Store union is order-independent,
// which makes the merged Store identical to a serial scan.
func (e *Engine) scanParallel(ctx context.Context, items []indexedRef, reader meta.Reader, workers int) partial {
	parts := partition(items, workers)

	// ---- Phase A: parallel scan ----
	results := make([]partial, len(parts))
	g := new(errgroup.Group)
	for i, part := range parts {
		g.Go(func() error {
			results[i] = e.scanRange(ctx, part, reader)
			return nil
		})
	}
	_ = g.Wait()

	// ---- Phase B: serial merge ----
	out := partial{store: store.New()}
	for _, r := range results {
		out.store.Merge(r.store)
		out.failures = append(out.failures, r.failures...)
		out.scanned += r.scanned
		out.incomplete = out.incomplete || r.incomplete
	}
	sort.Slice(out.failures, func(i, j int) bool {
		return out.failures[i].Index < out.failures[j].Index
	})
	return out
}

// partition splits items into n buckets by xxhash of the ref, keeping input
// order inside each bucket.
func partition(items []indexedRef, n int) [][]indexedRef {
	parts := make([][]indexedRef, n)
	for _, item := range items {
		p := xxhash.Sum64String(item.ref) % uint64(n)
		parts[p] = append(parts[p], item)
	}
	return parts
}
