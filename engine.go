package metascan

import (
	"context"
	"fmt"
	"log/slog"
	goruntime "runtime"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jward/metascan/internal/meta"
	"github.com/jward/metascan/internal/scanner"
	"github.com/jward/metascan/internal/store"
)

// Engine runs a fixed set of scanners over a universe of units and produces
// a sealed Store. An Engine holds no per-scan state and may run concurrent
// scans.
type Engine struct {
	scanners    []scanner.Scanner
	scannersSet bool

	// useParallel enables the partitioned worker pipeline.
	useParallel bool
	workers     int

	logger     *slog.Logger
	registerer prometheus.Registerer
	metrics    *metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithScanners sets the scanners to run. Each must write a distinct
// category. Without this option the engine runs SubTypes and
// TypeAnnotations.
func WithScanners(scanners ...scanner.Scanner) Option {
	return func(e *Engine) {
		e.scanners = scanners
		e.scannersSet = true
	}
}

// WithParallel controls parallel scanning. When true (default), refs are
// partitioned across workers that each fill a private Store; the results
// are merged in partition order. Set to false for a single-goroutine scan in
// input order.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithWorkers sets the parallel worker count. Zero means runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRegisterer registers the engine's Prometheus collectors with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(e *Engine) {
		e.registerer = reg
	}
}

// New creates an Engine. Invalid configuration is reported here, wrapped
// around ErrConfiguration.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		useParallel: true,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if !e.scannersSet {
		e.scanners = scanner.Defaults()
	}
	if err := validateScanners(e.scanners); err != nil {
		return nil, err
	}
	if e.workers < 0 {
		return nil, &ConfigError{Field: "workers", Reason: fmt.Sprintf("negative worker count %d", e.workers)}
	}
	m, err := newMetrics(e.registerer)
	if err != nil {
		return nil, err
	}
	e.metrics = m
	return e, nil
}

func validateScanners(scanners []scanner.Scanner) error {
	if len(scanners) == 0 {
		return &ConfigError{Field: "scanners", Reason: "no scanners configured"}
	}
	seen := make(map[string]bool, len(scanners))
	for i, s := range scanners {
		if s == nil {
			return &ConfigError{Field: "scanners", Reason: fmt.Sprintf("scanner %d is nil", i)}
		}
		cat := s.Category()
		if !scanner.ValidCategory(cat) {
			return &ConfigError{Field: "scanners", Reason: fmt.Sprintf("scanner %d has invalid category %q", i, cat)}
		}
		if seen[cat] {
			return &ConfigError{Field: "scanners", Reason: fmt.Sprintf("duplicate category %q", cat)}
		}
		seen[cat] = true
	}
	return nil
}

// Categories returns the categories written by the engine's scanners, in
// scanner order.
func (e *Engine) Categories() []string {
	out := make([]string, len(e.scanners))
	for i, s := range e.scanners {
		out[i] = s.Category()
	}
	return out
}

func (e *Engine) hasCategory(category string) bool {
	for _, s := range e.scanners {
		if s.Category() == category {
			return true
		}
	}
	return false
}

// ScanResult is the outcome of one scan.
type ScanResult struct {
	ID string
	// Store is sealed. On an incomplete scan it holds the facts of the units
	// scanned before cancellation.
	Store *store.Store
	// Failures are ordered by input position.
	Failures   []*UnitError
	Scanned    int
	Incomplete bool
	Duration   time.Duration
}

// Query returns a QueryBuilder over the result's Store.
func (r *ScanResult) Query() *QueryBuilder {
	return NewQueryBuilder(r.Store)
}

// indexedRef is a ref with its position in the scan input.
type indexedRef struct {
	ref   string
	index int
}

// partial accumulates the output of one worker, or of the serial scan.
type partial struct {
	store      *store.Store
	failures   []*UnitError
	scanned    int
	incomplete bool
}

// Scan reads every ref through reader and runs the engine's scanners over
// it. Units that cannot be read or scanned are reported in Failures and
// contribute no facts. Cancelling ctx stops the scan between units; the
// partial result is returned with Incomplete set and a nil error.
func (e *Engine) Scan(ctx context.Context, refs []string, reader meta.Reader) (*ScanResult, error) {
	if reader == nil {
		return nil, &ConfigError{Field: "reader", Reason: "nil reader"}
	}

	workers := e.workerCount(len(refs))
	ctx, span := tracer.Start(ctx, "Engine.Scan",
		trace.WithAttributes(
			attribute.Int("metascan.refs", len(refs)),
			attribute.Int("metascan.workers", workers),
		),
	)
	defer span.End()

	start := time.Now()
	res := &ScanResult{ID: uuid.NewString()}
	e.logger.Info("scan.start", "scan_id", res.ID, "refs", len(refs), "workers", workers)

	items := make([]indexedRef, len(refs))
	for i, ref := range refs {
		items[i] = indexedRef{ref: ref, index: i}
	}

	var out partial
	if workers > 1 {
		out = e.scanParallel(ctx, items, reader, workers)
	} else {
		out = e.scanRange(ctx, items, reader)
	}

	out.store.Seal()
	res.Store = out.store
	res.Failures = out.failures
	res.Scanned = out.scanned
	res.Incomplete = out.incomplete
	res.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("metascan.scanned", res.Scanned),
		attribute.Int("metascan.failed", len(res.Failures)),
		attribute.Int("metascan.facts", res.Store.Len()),
	)
	if res.Incomplete {
		span.SetStatus(codes.Error, "scan canceled")
		e.logger.Warn("scan.incomplete", "scan_id", res.ID, "scanned", res.Scanned, "error", ctx.Err())
	} else {
		e.metrics.duration.Observe(res.Duration.Seconds())
	}
	e.metrics.facts.Set(float64(res.Store.Len()))

	e.logger.Info("scan.done",
		"scan_id", res.ID,
		"scanned", res.Scanned,
		"failed", len(res.Failures),
		"facts", res.Store.Len(),
		"duration", res.Duration,
	)
	return res, nil
}

// ScanUnits scans an in-memory universe.
func (e *Engine) ScanUnits(ctx context.Context, units ...*meta.Unit) (*ScanResult, error) {
	r := meta.NewStaticReader(units...)
	return e.Scan(ctx, r.Refs(), r)
}

func (e *Engine) workerCount(refs int) int {
	if !e.useParallel {
		return 1
	}
	n := e.workers
	if n == 0 {
		n = goruntime.NumCPU()
	}
	return max(1, min(n, refs))
}

// scanRange scans items in order into a fresh store.
func (e *Engine) scanRange(ctx context.Context, items []indexedRef, reader meta.Reader) partial {
	out := partial{store: store.New()}
	for _, item := range items {
		if ctx.Err() != nil {
			out.incomplete = true
			break
		}

		buf := store.New()
		if err := e.scanUnit(ctx, item, reader, buf); err != nil {
			if ctx.Err() != nil {
				out.incomplete = true
				break
			}
			out.failures = append(out.failures, err)
			e.metrics.units.WithLabelValues("failed").Inc()
			e.logger.Warn("scan.unit_failed", "ref", item.ref, "index", item.index, "error", err.Err)
			continue
		}

		out.store.Merge(buf)
		out.scanned++
		e.metrics.units.WithLabelValues("ok").Inc()
	}
	return out
}

// scanUnit runs every scanner over one unit into buf.
func (e *Engine) scanUnit(ctx context.Context, item indexedRef, reader meta.Reader, buf *store.Store) *UnitError {
	fail := func(err error) *UnitError {
		return &UnitError{Ref: item.ref, Index: item.index, Err: err}
	}

	u, err := reader.ReadUnit(ctx, item.ref)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrUnitRead, err))
	}
	if err := u.Validate(); err != nil {
		return fail(fmt.Errorf("%w: %w", ErrUnitRead, err))
	}

	for _, s := range e.scanners {
		if err := s.Scan(ctx, u, buf); err != nil {
			return fail(fmt.Errorf("scanner %s: %w", s.Category(), err))
		}
	}
	return nil
}
