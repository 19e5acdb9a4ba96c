package metascan

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jward/metascan/internal/meta"
	"github.com/jward/metascan/internal/scanner"
	"github.com/jward/metascan/internal/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	e, err := New(opts...)
	require.NoError(t, err)
	return e
}

func method(name, ret string, params ...string) meta.Member {
	m := meta.Member{Kind: meta.KindMethod, Name: name, ReturnType: ret}
	for _, p := range params {
		m.Params = append(m.Params, meta.Param{Type: p})
	}
	return m
}

func ctor(params ...string) meta.Member {
	m := meta.Member{Kind: meta.KindConstructor, Name: meta.ConstructorName}
	for _, p := range params {
		m.Params = append(m.Params, meta.Param{Type: p})
	}
	return m
}

// shopUniverse is a small service hierarchy:
//
//	Object <- Base <- OrderService <- FastOrderService
//	Repository <- OrderRepository
//
// with @Service meta-annotated by @Component.
func shopUniverse() []*meta.Unit {
	return []*meta.Unit{
		{Name: "com.shop.Component", Superclass: "java.lang.Object", Interfaces: []string{"java.lang.annotation.Annotation"}},
		{
			Name:        "com.shop.Service",
			Superclass:  "java.lang.Object",
			Interfaces:  []string{"java.lang.annotation.Annotation"},
			Annotations: []string{"com.shop.Component"},
		},
		{Name: "com.shop.Base", Superclass: "java.lang.Object", Methods: []meta.Member{ctor()}},
		{
			Name:        "com.shop.OrderService",
			Superclass:  "com.shop.Base",
			Annotations: []string{"com.shop.Service"},
			Methods: []meta.Member{
				ctor("com.shop.OrderRepository"),
				method("place", "boolean", "int", "java.lang.String"),
				method("cancel", "void", "int", "java.lang.String"),
				method("exists", "boolean", "long"),
			},
			Fields: []meta.Member{
				{Kind: meta.KindField, Name: "repo", Type: "com.shop.OrderRepository", Annotations: []string{"com.shop.Inject"}},
			},
		},
		{Name: "com.shop.FastOrderService", Superclass: "com.shop.OrderService", Methods: []meta.Member{ctor()}},
		{Name: "com.shop.Repository", Superclass: "java.lang.Object"},
		{
			Name:        "com.shop.OrderRepository",
			Superclass:  "java.lang.Object",
			Interfaces:  []string{"com.shop.Repository"},
			Annotations: []string{"com.shop.Component"},
			Methods:     []meta.Member{method("parse", "com.shop.Order", "java.lang.String")},
		},
	}
}

// numberedUnits returns n units each extending the previous one.
func numberedUnits(n int) []*meta.Unit {
	units := make([]*meta.Unit, n)
	for i := range units {
		u := &meta.Unit{
			Name:        fmt.Sprintf("gen.Unit%03d", i),
			Superclass:  "java.lang.Object",
			Annotations: []string{fmt.Sprintf("gen.Tag%d", i%5)},
			Methods:     []meta.Member{method("apply", fmt.Sprintf("gen.Out%d", i%3), "int")},
		}
		if i > 0 {
			u.Superclass = units[i-1].Name
		}
		units[i] = u
	}
	return units
}

func scanAll(t *testing.T, e *Engine, units ...*meta.Unit) *ScanResult {
	t.Helper()
	res, err := e.ScanUnits(context.Background(), units...)
	require.NoError(t, err)
	return res
}

func allScanners() Option {
	return WithScanners(scanner.All()...)
}

func storeOf(facts ...[3]string) *store.Store {
	s := store.New()
	for _, f := range facts {
		s.Put(f[0], f[1], f[2])
	}
	s.Seal()
	return s
}

// failingScanner returns err for the unit named target.
type failingScanner struct {
	target string
	err    error
}

func (f *failingScanner) Category() string { return "Failing" }
func (f *failingScanner) Accept(string) bool { return true }
func (f *failingScanner) Scan(_ context.Context, u *meta.Unit, sink scanner.Sink) error {
	if u.Name == f.target {
		return f.err
	}
	sink.Put("Failing", u.Name, "ok")
	return nil
}

// cancelingReader cancels the scan context after reading the unit named at.
type cancelingReader struct {
	*meta.StaticReader
	at     string
	cancel context.CancelFunc
}

func (r *cancelingReader) ReadUnit(ctx context.Context, ref string) (*meta.Unit, error) {
	u, err := r.StaticReader.ReadUnit(ctx, ref)
	if ref == r.at {
		r.cancel()
	}
	return u, err
}
