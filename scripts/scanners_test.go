package scripts_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/metascan/internal/meta"
	"github.com/jward/metascan/internal/runtime"
	"github.com/jward/metascan/internal/scanner"
	"github.com/jward/metascan/internal/store"
	"github.com/jward/metascan/scripts"
)

func runBuiltin(t *testing.T, name string, u *meta.Unit) *store.Store {
	t.Helper()
	category, ok := scripts.Builtin[name]
	require.True(t, ok, "unknown builtin %s", name)

	rt := runtime.NewRuntime("", runtime.WithRuntimeFS(scripts.FS),
		runtime.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s, err := scanner.NewScript(category, rt, runtime.ScannerScriptPath(name))
	require.NoError(t, err)

	st := store.New()
	require.NoError(t, s.Scan(context.Background(), u, st))
	return st
}

func TestBuiltin_AllScriptsLoad(t *testing.T) {
	t.Parallel()
	for name := range scripts.Builtin {
		st := runBuiltin(t, name, &meta.Unit{Name: "com.acme.Empty"})
		assert.Equal(t, 0, st.Len(), name)
	}
}

func TestInjection(t *testing.T) {
	t.Parallel()
	u := &meta.Unit{
		Name: "com.acme.Checkout",
		Methods: []meta.Member{
			{
				Kind:        meta.KindConstructor,
				Name:        meta.ConstructorName,
				Params:      []meta.Param{{Type: "com.acme.Cart"}},
				Annotations: []string{"jakarta.inject.Inject"},
			},
			{
				Kind:        meta.KindMethod,
				Name:        "setClock",
				ReturnType:  "void",
				Params:      []meta.Param{{Type: "java.time.Clock"}},
				Annotations: []string{"org.springframework.beans.factory.annotation.Autowired"},
			},
			{Kind: meta.KindMethod, Name: "total", ReturnType: "long"},
		},
		Fields: []meta.Member{
			{Kind: meta.KindField, Name: "tax", Type: "com.acme.Tax", Annotations: []string{"javax.inject.Inject"}},
			{Kind: meta.KindField, Name: "count", Type: "int"},
		},
	}

	st := runBuiltin(t, "injection", u)
	assert.Equal(t, []string{
		"com.acme.Checkout.<init>(com.acme.Cart)",
		"com.acme.Checkout.setClock(java.time.Clock)",
		"com.acme.Checkout.tax",
	}, st.Get("InjectionPoints", "com.acme.Checkout"))
	assert.Equal(t, []string{"InjectionPoints"}, st.Categories())
}

func TestEntities(t *testing.T) {
	t.Parallel()
	u := &meta.Unit{
		Name:        "com.acme.Order",
		Annotations: []string{"jakarta.persistence.Entity"},
		Fields: []meta.Member{
			{Kind: meta.KindField, Name: "id", Type: "long"},
			{Kind: meta.KindField, Name: "total", Type: "long"},
			{Kind: meta.KindField, Name: "cache", Type: "java.lang.String", Annotations: []string{"jakarta.persistence.Transient"}},
		},
	}

	st := runBuiltin(t, "entities", u)
	assert.Equal(t, []string{"com.acme.Order.id", "com.acme.Order.total"}, st.Get("Entities", "com.acme.Order"))

	plain := runBuiltin(t, "entities", &meta.Unit{
		Name:   "com.acme.Dto",
		Fields: []meta.Member{{Kind: meta.KindField, Name: "id", Type: "long"}},
	})
	assert.Equal(t, 0, plain.Len())
}
