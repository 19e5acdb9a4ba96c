package metascan

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jward/metascan/internal/meta"
	"github.com/jward/metascan/internal/store"
)

// Request describes one host-integration resolution: which packages form the
// universe, how candidates are selected, and whether snapshots are used.
type Request struct {
	// BasePackages are the package prefixes to resolve. The first one names
	// the saved snapshot.
	BasePackages []string
	// AdditionalPackages widen the scanned universe without changing the
	// snapshot name.
	AdditionalPackages []string

	Refs   []string
	Reader meta.Reader

	Include []Filter
	Exclude []Filter

	// Sequential forces a single-goroutine scan.
	Sequential bool
	// Collect loads existing snapshots under SnapshotRoot before scanning.
	Collect bool
	// Save writes a freshly scanned, non-empty result under SnapshotRoot.
	Save         bool
	SnapshotRoot string
}

// Resolution is the outcome of Engine.Resolve.
type Resolution struct {
	// Candidates are the selected unit names, sorted.
	Candidates []string
	// Store is sealed.
	Store        *store.Store
	FromSnapshot bool
	// SavedTo is the snapshot path written, or "" when nothing was saved.
	SavedTo string
	// Scan is nil when the result came from snapshots.
	Scan *ScanResult
}

// Resolve selects candidate units for a host framework. Snapshots are
// consulted first when req.Collect is set; a fresh scan runs when they yield
// no candidates. Snapshot problems are logged and never fail the call.
func (e *Engine) Resolve(ctx context.Context, req Request) (*Resolution, error) {
	if err := e.validateRequest(req); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "Engine.Resolve",
		trace.WithAttributes(
			attribute.StringSlice("metascan.base_packages", req.BasePackages),
			attribute.Bool("metascan.collect", req.Collect),
		),
	)
	defer span.End()

	universe := universeOf(req)
	res := &Resolution{}

	if req.Collect {
		if collected := e.collect(req, universe); collected.Len() > 0 {
			collected.Seal()
			res.Store = collected
			res.FromSnapshot = true
			res.Candidates = selectCandidates(ctx, collected, universe, req)
		}
	}

	if len(res.Candidates) == 0 {
		eng := e
		if req.Sequential && e.useParallel {
			cp := *e
			cp.useParallel = false
			eng = &cp
		}
		scan, err := eng.Scan(ctx, universe.refs, req.Reader)
		if err != nil {
			return nil, fmt.Errorf("metascan: resolve: %w", err)
		}
		res.Scan = scan
		res.Store = scan.Store
		res.FromSnapshot = false
		res.Candidates = selectCandidates(ctx, scan.Store, universe, req)

		if req.Save && len(res.Candidates) > 0 && !scan.Incomplete {
			res.SavedTo = e.save(req, scan.Store, res.Candidates)
		}
	}

	span.SetAttributes(
		attribute.Int("metascan.candidates", len(res.Candidates)),
		attribute.Bool("metascan.from_snapshot", res.FromSnapshot),
	)
	e.logger.Info("resolve.done",
		"base_packages", req.BasePackages,
		"candidates", len(res.Candidates),
		"from_snapshot", res.FromSnapshot,
		"saved_to", res.SavedTo,
	)
	return res, nil
}

func (e *Engine) validateRequest(req Request) error {
	if len(req.BasePackages) == 0 {
		return &ConfigError{Field: "base packages", Reason: "at least one base package is required"}
	}
	if req.Reader == nil {
		return &ConfigError{Field: "reader", Reason: "nil reader"}
	}
	if (req.Collect || req.Save) && req.SnapshotRoot == "" {
		return &ConfigError{Field: "snapshot root", Reason: "required to collect or save snapshots"}
	}
	for _, f := range append(append([]Filter{}, req.Include...), req.Exclude...) {
		if err := f.Validate(); err != nil {
			return err
		}
		if cat := f.Category(); cat != "" && !e.hasCategory(cat) {
			return &ConfigError{Field: "filter", Reason: fmt.Sprintf("%s needs scanner category %s", f, cat)}
		}
	}
	return nil
}

// universe is the set of refs within the requested packages.
type universe struct {
	refs []string
	set  map[string]bool
}

func universeOf(req Request) universe {
	prefixes := append(append([]string{}, req.BasePackages...), req.AdditionalPackages...)
	u := universe{set: make(map[string]bool)}
	for _, ref := range req.Refs {
		if u.set[ref] {
			continue
		}
		for _, p := range prefixes {
			if strings.HasPrefix(ref, p) {
				u.refs = append(u.refs, ref)
				u.set[ref] = true
				break
			}
		}
	}
	return u
}

// owns reports whether value is a unit of set or a member key of one.
func owns(set map[string]bool, value string) bool {
	if set[value] {
		return true
	}
	unit, _, ok := meta.SplitMemberKey(value)
	return ok && set[unit]
}

// collect loads and merges the snapshots of every base package, then prunes
// facts about units outside the universe.
//
// Pruning works at unit granularity. Member facts of a unit that is still
// in the universe are kept even when that member no longer exists in the
// sources, so a stale snapshot can still report a removed method or field
// until it is rescanned and saved again.
func (e *Engine) collect(req Request, u universe) *store.Store {
	merged := store.New()
	for _, base := range req.BasePackages {
		path := store.ResourcePath(req.SnapshotRoot, base)
		s, err := store.LoadFile(path)
		if err != nil {
			e.logger.Info("resolve.collect_skipped", "path", path, "error", err)
			continue
		}
		e.logger.Info("resolve.collect", "path", path, "facts", s.Len())
		merged.Merge(s)
	}
	if removed := merged.Prune(func(v string) bool { return owns(u.set, v) }); removed > 0 {
		e.logger.Debug("resolve.pruned", "removed", removed)
	}
	return merged
}

// selectCandidates applies the include and exclude filters and keeps the
// names that are readable units of the universe.
func selectCandidates(ctx context.Context, s *store.Store, u universe, req Request) []string {
	q := NewQueryBuilder(s)

	picked := make(map[string]bool)
	if len(req.Include) == 0 {
		for _, ref := range u.refs {
			picked[ref] = true
		}
	}
	for _, f := range req.Include {
		for _, name := range f.Match(q) {
			picked[name] = true
		}
	}
	for _, f := range req.Exclude {
		for _, name := range f.Match(q) {
			delete(picked, name)
		}
	}

	out := []string{}
	for _, name := range sortedKeys(picked) {
		if !u.set[name] {
			continue
		}
		if _, err := req.Reader.ReadUnit(ctx, name); err != nil {
			continue
		}
		out = append(out, name)
	}
	return out
}

// save narrows a copy of s to the candidates and writes it to the snapshot of
// the first base package. Failures are logged; the path is returned on
// success. Narrowing keeps a member fact when its unit is a candidate; like
// collect, it never checks whether the member itself still exists.
func (e *Engine) save(req Request, s *store.Store, candidates []string) string {
	keep := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		keep[c] = true
	}
	narrowed := s.Clone()
	narrowed.Prune(func(v string) bool { return owns(keep, v) })

	path := store.ResourcePath(req.SnapshotRoot, req.BasePackages[0])
	if err := store.SaveFile(path, narrowed); err != nil {
		e.logger.Warn("resolve.save_failed", "path", path, "error", err)
		return ""
	}
	e.logger.Info("resolve.saved", "path", path, "facts", narrowed.Len())
	return path
}
