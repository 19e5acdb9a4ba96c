// Package javasrc reads units from Java source files using the tree-sitter
// Java grammar. It is one supplier of the meta.Reader capability; the scan
// engine does not depend on it.
package javasrc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jward/metascan/internal/meta"
)

// skipDirs are directory names never descended into by LoadDir.
var skipDirs = map[string]bool{
	"build":        true,
	"target":       true,
	"node_modules": true,
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the logger used while loading sources.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Reader holds the units parsed from a set of Java sources. Refs are
// qualified unit names. A file that failed to parse is a ref too, named
// after its package and file name (com.acme.Broken for com/acme/Broken.java),
// so package-scoped scans report it as a read failure.
type Reader struct {
	mu       sync.RWMutex
	units    map[string]*meta.Unit
	failures map[string]error
	order    []string
	logger   *slog.Logger
}

// NewReader creates an empty Reader.
func NewReader(opts ...Option) *Reader {
	r := &Reader{
		units:    make(map[string]*meta.Unit),
		failures: make(map[string]error),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ParseFile parses one .java file and adds its units. A syntax error is
// recorded as a failure for path and is not returned; only I/O errors are.
func (r *Reader) ParseFile(ctx context.Context, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("javasrc: reading %s: %w", path, err)
	}
	return r.AddSource(ctx, path, src)
}

// AddSource parses src as the content of path and adds its units.
func (r *Reader) AddSource(ctx context.Context, path string, src []byte) error {
	units, err := ParseSource(ctx, src)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		ref := failedRef(path, err)
		r.logger.Warn("javasrc.parse_failed", "path", path, "ref", ref, "error", err)
		r.mu.Lock()
		if _, seen := r.failures[ref]; !seen {
			r.order = append(r.order, ref)
		}
		r.failures[ref] = fmt.Errorf("%s: %w", path, err)
		r.mu.Unlock()
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range units {
		if _, seen := r.units[u.Name]; !seen {
			r.order = append(r.order, u.Name)
		}
		r.units[u.Name] = u
	}
	return nil
}

// failedRef names the ref of a source that did not parse: the file's base
// name qualified by its package. Errors other than syntax errors keep the
// path.
func failedRef(path string, err error) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var syn *SyntaxError
	if !errors.As(err, &syn) {
		return path
	}
	if syn.Package == "" {
		return name
	}
	return syn.Package + "." + name
}

// LoadDir parses every .java file under root, in lexical order. Hidden
// directories and build output directories are skipped.
func (r *Reader) LoadDir(ctx context.Context, root string) error {
	var files int
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".java" {
			return nil
		}
		files++
		return r.ParseFile(ctx, path)
	})
	if err != nil {
		return fmt.Errorf("javasrc: loading %s: %w", root, err)
	}
	r.logger.Debug("javasrc.loaded", "root", root, "files", files, "refs", len(r.Refs()))
	return nil
}

// Refs returns every known ref in the order first seen.
func (r *Reader) Refs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Units returns the parsed units in ref order.
func (r *Reader) Units() []*meta.Unit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*meta.Unit, 0, len(r.units))
	for _, ref := range r.order {
		if u, ok := r.units[ref]; ok {
			out = append(out, u)
		}
	}
	return out
}

// ReadUnit implements meta.Reader.
func (r *Reader) ReadUnit(ctx context.Context, ref string) (*meta.Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err, ok := r.failures[ref]; ok {
		return nil, err
	}
	u, ok := r.units[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", meta.ErrUnitNotFound, ref)
	}
	return u, nil
}
