// Package runtime embeds a Risor VM for user-written scanner scripts. A
// script sees the unit being scanned as the "unit" global and records facts
// through the "emit" builtin.
package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"

	"github.com/jward/metascan/internal/meta"
)

// Runtime loads and evaluates scanner scripts.
type Runtime struct {
	scriptsDir string
	fsys       fs.FS
	logger     *slog.Logger
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts from an fs.FS
// instead of from disk. Also configures the Risor importer to use
// FSImporter for import statement resolution.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithLogger routes the script "log" global to logger.
func WithLogger(logger *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRuntime creates a Runtime that resolves relative script paths and
// imports against scriptsDir.
func NewRuntime(scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		scriptsDir: scriptsDir,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EmitFunc receives one (key, value) pair from a script.
type EmitFunc func(key, value string)

// RunScript loads and executes a Risor script with all standard globals
// plus any extra globals provided by the caller.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, extraGlobals map[string]any) error {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return err
	}
	return r.Eval(ctx, scriptPath, src, extraGlobals)
}

// RunSource executes Risor source code directly with all standard globals
// plus any extra globals. Useful for testing without script files.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) error {
	return r.Eval(ctx, "<inline>", source, extraGlobals)
}

// ScanUnit evaluates source once for u. Every emit(key, value) call in the
// script is forwarded to emit.
func (r *Runtime) ScanUnit(ctx context.Context, label, source string, u *meta.Unit, emit EmitFunc) error {
	return r.Eval(ctx, label, source, map[string]any{
		"unit": UnitObject(u),
		"emit": makeEmitFn(emit),
	})
}

// Eval executes source under label, which only appears in error messages.
func (r *Runtime) Eval(ctx context.Context, label, source string, extraGlobals map[string]any) error {
	globals := r.buildGlobals(label, extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	if _, err := risor.Eval(ctx, source, opts...); err != nil {
		return fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return nil
}

// buildImporter returns a Risor importer configured for the Runtime's script source.
// Returns nil if neither fs.FS nor scriptsDir is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file and returns its source code.
// When an fs.FS is configured, uses fs.ReadFile on the embedded filesystem.
// Otherwise, uses os.ReadFile with scriptsDir as the base directory.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(r.scriptsDir, path)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// ScannerScriptPath returns the conventional path of a named scanner script.
func ScannerScriptPath(name string) string {
	return filepath.Join("scanners", name+".risor")
}

// buildGlobals constructs the full set of globals exposed to Risor scripts.
func (r *Runtime) buildGlobals(label string, extra map[string]any) map[string]any {
	globals := map[string]any{
		"log": mustProxy(&logObject{logger: r.logger.With("script", label)}),
	}
	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
