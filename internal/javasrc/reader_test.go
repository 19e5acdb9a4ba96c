package javasrc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/metascan/internal/meta"
)

const greeterSource = `package com.acme;

import java.util.List;
import java.util.Map;
import com.acme.ann.Service;
import static java.util.Collections.emptyList;
import java.io.*;

@Service
@Deprecated
public class Greeter<T extends Comparable<T>> extends Base implements Named, java.io.Serializable {
    @Inject
    private Map<String, List<String>> cache;
    int a, b[];

    public Greeter(@Named String prefix, int count) {}

    public String greet(@NotNull String name, T other, String... rest) { return name; }

    public <E> List<E> wrap(E item) { return null; }

    public static class Inner implements Runnable {
        public void run() {}
    }

    enum Mode { FAST, @Deprecated SLOW }
}
`

func parse(t *testing.T, src string) []*meta.Unit {
	t.Helper()
	units, err := ParseSource(context.Background(), []byte(src))
	require.NoError(t, err)
	return units
}

func unitNames(units []*meta.Unit) []string {
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.Name
	}
	return names
}

func findMember(t *testing.T, members []meta.Member, name string) meta.Member {
	t.Helper()
	for _, m := range members {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("member %q not found", name)
	return meta.Member{}
}

func TestParseSource_Class(t *testing.T) {
	t.Parallel()
	units := parse(t, greeterSource)
	require.Equal(t, []string{"com.acme.Greeter", "com.acme.Greeter$Inner", "com.acme.Greeter$Mode"}, unitNames(units))

	g := units[0]
	assert.Equal(t, "com.acme.Base", g.Superclass)
	assert.Equal(t, []string{"com.acme.Named", "java.io.Serializable"}, g.Interfaces)
	assert.Equal(t, []string{"com.acme.ann.Service", "java.lang.Deprecated"}, g.Annotations)
	require.NoError(t, g.Validate())
}

func TestParseSource_Members(t *testing.T) {
	t.Parallel()
	g := parse(t, greeterSource)[0]

	ctor := findMember(t, g.Methods, meta.ConstructorName)
	assert.Equal(t, meta.KindConstructor, ctor.Kind)
	assert.Equal(t, []string{"java.lang.String", "int"}, ctor.ParamTypes())
	assert.Equal(t, []string{"com.acme.Named"}, ctor.Params[0].Annotations)
	assert.Equal(t, "com.acme.Greeter.<init>(java.lang.String, int)", meta.MemberKey(g.Name, ctor))

	greet := findMember(t, g.Methods, "greet")
	assert.Equal(t, "java.lang.String", greet.ReturnType)
	assert.Equal(t, []string{"java.lang.String", "java.lang.Comparable", "java.lang.String[]"}, greet.ParamTypes(),
		"type variables erase to their bound, varargs become arrays")
	assert.Equal(t, []string{"com.acme.NotNull"}, greet.Params[0].Annotations)

	wrap := findMember(t, g.Methods, "wrap")
	assert.Equal(t, "java.util.List", wrap.ReturnType)
	assert.Equal(t, []string{"java.lang.Object"}, wrap.ParamTypes())

	cache := findMember(t, g.Fields, "cache")
	assert.Equal(t, meta.KindField, cache.Kind)
	assert.Equal(t, "java.util.Map", cache.Type)
	assert.Equal(t, []string{"com.acme.Inject"}, cache.Annotations)

	assert.Equal(t, "int", findMember(t, g.Fields, "a").Type)
	assert.Equal(t, "int[]", findMember(t, g.Fields, "b").Type)
}

func TestParseSource_NestedTypes(t *testing.T) {
	t.Parallel()
	units := parse(t, greeterSource)

	inner := units[1]
	assert.Equal(t, "java.lang.Object", inner.Superclass)
	assert.Equal(t, []string{"java.lang.Runnable"}, inner.Interfaces)
	require.Len(t, inner.Methods, 2)
	assert.True(t, inner.Methods[0].IsConstructor(), "implicit default constructor comes first")
	assert.Empty(t, inner.Methods[0].Params)
	assert.Equal(t, "void", inner.Methods[1].ReturnType)

	mode := units[2]
	assert.Equal(t, "java.lang.Enum", mode.Superclass)
	slow := findMember(t, mode.Fields, "SLOW")
	assert.Equal(t, "com.acme.Greeter$Mode", slow.Type)
	assert.Equal(t, []string{"java.lang.Deprecated"}, slow.Annotations)
	assert.Empty(t, findMember(t, mode.Fields, "FAST").Annotations)
}

func TestParseSource_InterfaceAnnotationRecord(t *testing.T) {
	t.Parallel()
	src := `package org.shop;

import java.io.Closeable;

interface Repo<E> extends Base<E>, Closeable {
    E find(long id);
    Outer.Item item();
}

@interface Tag {
    String value();
}

record Point(int x, @Tag int y) implements Shape {}

class Outer {
    static class Item {}
}
`
	units := parse(t, src)
	require.Equal(t, []string{"org.shop.Repo", "org.shop.Tag", "org.shop.Point", "org.shop.Outer", "org.shop.Outer$Item"}, unitNames(units))

	repo := units[0]
	assert.Equal(t, "java.lang.Object", repo.Superclass)
	assert.Equal(t, []string{"org.shop.Base", "java.io.Closeable"}, repo.Interfaces)
	find := findMember(t, repo.Methods, "find")
	assert.Equal(t, "java.lang.Object", find.ReturnType)
	assert.Equal(t, []string{"long"}, find.ParamTypes())
	assert.Equal(t, "org.shop.Outer$Item", findMember(t, repo.Methods, "item").ReturnType)
	for _, m := range repo.Methods {
		assert.False(t, m.IsConstructor(), "interfaces get no implicit constructor")
	}

	tag := units[1]
	assert.Equal(t, []string{"java.lang.annotation.Annotation"}, tag.Interfaces)
	assert.Equal(t, "java.lang.String", findMember(t, tag.Methods, "value").ReturnType)

	point := units[2]
	assert.Equal(t, "java.lang.Record", point.Superclass)
	assert.Equal(t, []string{"org.shop.Shape"}, point.Interfaces)
	ctor := findMember(t, point.Methods, meta.ConstructorName)
	assert.Equal(t, []string{"int", "int"}, ctor.ParamTypes())
	assert.Equal(t, "int", findMember(t, point.Methods, "x").ReturnType)
	assert.Equal(t, []string{"org.shop.Tag"}, findMember(t, point.Fields, "y").Annotations)
}

func TestParseSource_DefaultPackage(t *testing.T) {
	t.Parallel()
	units := parse(t, `class Plain extends Thing {}`)
	require.Len(t, units, 1)
	assert.Equal(t, "Plain", units[0].Name)
	assert.Equal(t, "Thing", units[0].Superclass)
}

func TestParseSource_SyntaxError(t *testing.T) {
	t.Parallel()
	_, err := ParseSource(context.Background(), []byte("public class {"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSyntax))

	_, err = ParseSource(context.Background(), []byte("package com.acme.orders;\n\npublic class Broken {\n"))
	var syn *SyntaxError
	require.ErrorAs(t, err, &syn)
	assert.Equal(t, "com.acme.orders", syn.Package)
}

func TestEraseGenerics(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Map.Entry", eraseGenerics("Map<K, V>.Entry"))
	assert.Equal(t, "List", eraseGenerics("List<Map<String, Integer>>"))
	assert.Equal(t, "String", eraseGenerics("String"))
}

// =============================================================================
// Reader
// =============================================================================

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestReader_LoadDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "com", "acme", "Greeter.java"), greeterSource)
	broken := filepath.Join(root, "src", "com", "acme", "Broken.java")
	writeFile(t, broken, "package com.acme;\n\npublic class {")
	writeFile(t, filepath.Join(root, "src", "com", "acme", "notes.txt"), "not java")
	writeFile(t, filepath.Join(root, ".git", "Hidden.java"), "class Hidden {}")
	writeFile(t, filepath.Join(root, "build", "Gen.java"), "class Gen {}")
	writeFile(t, filepath.Join(root, "target", "Out.java"), "class Out {}")

	r := NewReader()
	require.NoError(t, r.LoadDir(context.Background(), root))

	assert.Equal(t, []string{"com.acme.Broken", "com.acme.Greeter", "com.acme.Greeter$Inner", "com.acme.Greeter$Mode"}, r.Refs())
	assert.Len(t, r.Units(), 3)

	u, err := r.ReadUnit(context.Background(), "com.acme.Greeter$Inner")
	require.NoError(t, err)
	assert.Equal(t, "com.acme.Greeter$Inner", u.Name)

	_, err = r.ReadUnit(context.Background(), "com.acme.Broken")
	assert.True(t, errors.Is(err, ErrSyntax))
	assert.Contains(t, err.Error(), broken)

	_, err = r.ReadUnit(context.Background(), "com.acme.Missing")
	assert.True(t, errors.Is(err, meta.ErrUnitNotFound))
}

func TestReader_FailedSourceRefs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewReader()
	require.NoError(t, r.AddSource(ctx, "src/Loose.java", []byte("class {")))
	require.NoError(t, r.AddSource(ctx, "src/com/acme/Half.java", []byte("package com.acme;\nclass Half {")))

	assert.Equal(t, []string{"Loose", "com.acme.Half"}, r.Refs())
	_, err := r.ReadUnit(ctx, "com.acme.Half")
	assert.True(t, errors.Is(err, ErrSyntax))
}

func TestReader_LoadDirMissingRoot(t *testing.T) {
	t.Parallel()
	err := NewReader().LoadDir(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestReader_AddSourceReplacesUnit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewReader()
	require.NoError(t, r.AddSource(ctx, "a/Plain.java", []byte(`class Plain {}`)))
	require.NoError(t, r.AddSource(ctx, "b/Plain.java", []byte(`class Plain extends Base {}`)))

	assert.Equal(t, []string{"Plain"}, r.Refs())
	u, err := r.ReadUnit(ctx, "Plain")
	require.NoError(t, err)
	assert.Equal(t, "Base", u.Superclass)
}

func TestReader_ReadUnitCanceled(t *testing.T) {
	t.Parallel()
	r := NewReader()
	require.NoError(t, r.AddSource(context.Background(), "Plain.java", []byte(`class Plain {}`)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.ReadUnit(ctx, "Plain")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestReader_SatisfiesMetaReader(t *testing.T) {
	t.Parallel()
	var _ meta.Reader = NewReader()
}
