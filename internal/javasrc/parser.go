package javasrc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/jward/metascan/internal/meta"
)

// ErrSyntax is returned for sources whose syntax tree contains errors.
var ErrSyntax = errors.New("java syntax error")

// SyntaxError reports a source that did not parse cleanly. Package is the
// package declaration when it was still readable.
type SyntaxError struct {
	Package string
}

func (e *SyntaxError) Error() string {
	if e.Package == "" {
		return ErrSyntax.Error() + ": source contains syntax errors"
	}
	return fmt.Sprintf("%s: source of package %s contains syntax errors", ErrSyntax, e.Package)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// Implicit supertypes, as the compiler records them.
const (
	objectType     = "java.lang.Object"
	enumType       = "java.lang.Enum"
	recordType     = "java.lang.Record"
	annotationType = "java.lang.annotation.Annotation"
)

// javaLang lists the java.lang types visible without an import.
var javaLang = map[string]bool{
	"AutoCloseable": true, "Boolean": true, "Byte": true, "CharSequence": true,
	"Character": true, "Class": true, "ClassLoader": true, "Cloneable": true,
	"Comparable": true, "Deprecated": true, "Double": true, "Enum": true,
	"Error": true, "Exception": true, "Float": true, "FunctionalInterface": true,
	"IllegalArgumentException": true, "IllegalStateException": true, "Integer": true,
	"Iterable": true, "Long": true, "Math": true, "NullPointerException": true,
	"Number": true, "Object": true, "Override": true, "Record": true,
	"Runnable": true, "RuntimeException": true, "SafeVarargs": true, "Short": true,
	"String": true, "StringBuilder": true, "SuppressWarnings": true, "System": true,
	"Thread": true, "Throwable": true, "UnsupportedOperationException": true, "Void": true,
}

// typeDecls are the node types that declare a unit.
var typeDecls = map[string]bool{
	"class_declaration":           true,
	"interface_declaration":       true,
	"enum_declaration":            true,
	"annotation_type_declaration": true,
	"record_declaration":          true,
}

// ParseSource parses one compilation unit and returns its declared units in
// declaration order, outer types before their nested types.
func ParseSource(ctx context.Context, src []byte) ([]*meta.Unit, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("javasrc: tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("%w: empty tree", ErrSyntax)
	}

	f := &file{
		src:     src,
		imports: make(map[string]string),
		local:   make(map[string]string),
	}
	f.readHeader(root)
	if root.HasError() {
		return nil, &SyntaxError{Package: f.pkg}
	}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if typeDecls[child.Type()] {
			f.collectNames(child, f.qualify(""))
		}
	}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if typeDecls[child.Type()] {
			f.declare(child, "", nil)
		}
	}
	return f.units, nil
}

// file holds per-compilation-unit name resolution state.
type file struct {
	src     []byte
	pkg     string
	imports map[string]string // simple name → qualified name
	local   map[string]string // simple name → qualified name of types declared here
	units   []*meta.Unit
}

func (f *file) text(n *sitter.Node) string {
	return n.Content(f.src)
}

func (f *file) qualify(name string) string {
	if f.pkg == "" {
		return name
	}
	if name == "" {
		return f.pkg + "."
	}
	return f.pkg + "." + name
}

func (f *file) readHeader(root *sitter.Node) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "package_declaration":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				n := child.NamedChild(j)
				if n.Type() == "identifier" || n.Type() == "scoped_identifier" {
					f.pkg = f.text(n)
				}
			}
		case "import_declaration":
			f.readImport(child)
		}
	}
}

// readImport records single-type imports. Static and on-demand imports do
// not name a type and are ignored.
func (f *file) readImport(n *sitter.Node) {
	var name string
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "static", "asterisk":
			return
		case "identifier", "scoped_identifier":
			name = f.text(child)
		}
	}
	if name == "" {
		return
	}
	simple := name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		simple = name[i+1:]
	}
	f.imports[simple] = name
}

// collectNames registers every type declared in the file so references to
// nested types resolve before their declarations are visited.
func (f *file) collectNames(n *sitter.Node, prefix string) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	simple := f.text(nameNode)
	qualified := prefix + simple
	if _, seen := f.local[simple]; !seen {
		f.local[simple] = qualified
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	forEachMember(body, func(m *sitter.Node) {
		if typeDecls[m.Type()] {
			f.collectNames(m, qualified+"$")
		}
	})
}

// forEachMember visits the member declarations of a type body, looking
// through enum_body_declarations.
func forEachMember(body *sitter.Node, fn func(*sitter.Node)) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child.Type() == "enum_body_declarations" {
			forEachMember(child, fn)
			continue
		}
		fn(child)
	}
}

// scope maps type variables in scope to their erasures.
type scope map[string]string

func (s scope) with(extra scope) scope {
	if len(extra) == 0 {
		return s
	}
	out := make(scope, len(s)+len(extra))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// declare builds the unit for a type declaration and its nested types.
func (f *file) declare(n *sitter.Node, outer string, sc scope) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := f.text(nameNode)
	if outer != "" {
		name = outer + "$" + name
	} else {
		name = f.qualify(name)
	}

	sc = sc.with(f.typeParams(n.ChildByFieldName("type_parameters"), sc))
	u := &meta.Unit{Name: name, Annotations: f.annotations(n, sc)}
	f.units = append(f.units, u)

	switch n.Type() {
	case "class_declaration":
		u.Superclass = objectType
		if sup := n.ChildByFieldName("superclass"); sup != nil && sup.NamedChildCount() > 0 {
			u.Superclass = f.typeName(sup.NamedChild(0), sc)
		}
		u.Interfaces = f.typeList(n.ChildByFieldName("interfaces"), sc)
	case "interface_declaration":
		u.Superclass = objectType
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if child := n.NamedChild(i); child.Type() == "extends_interfaces" {
				u.Interfaces = f.typeList(child, sc)
			}
		}
	case "enum_declaration":
		u.Superclass = enumType
		u.Interfaces = f.typeList(n.ChildByFieldName("interfaces"), sc)
	case "record_declaration":
		u.Superclass = recordType
		u.Interfaces = f.typeList(n.ChildByFieldName("interfaces"), sc)
		f.recordComponents(u, n.ChildByFieldName("parameters"), sc)
	case "annotation_type_declaration":
		u.Superclass = objectType
		u.Interfaces = []string{annotationType}
	}

	body := n.ChildByFieldName("body")
	if body != nil {
		forEachMember(body, func(m *sitter.Node) {
			f.member(u, m, sc)
		})
	}

	if n.Type() == "class_declaration" && !hasConstructor(u) {
		u.Methods = append([]meta.Member{{Kind: meta.KindConstructor, Name: meta.ConstructorName}}, u.Methods...)
	}

	if body != nil {
		forEachMember(body, func(m *sitter.Node) {
			if typeDecls[m.Type()] {
				f.declare(m, name, sc)
			}
		})
	}
}

func hasConstructor(u *meta.Unit) bool {
	for _, m := range u.Methods {
		if m.IsConstructor() {
			return true
		}
	}
	return false
}

func (f *file) member(u *meta.Unit, n *sitter.Node, sc scope) {
	switch n.Type() {
	case "method_declaration":
		msc := sc.with(f.typeParams(n.ChildByFieldName("type_parameters"), sc))
		ret := f.typeName(n.ChildByFieldName("type"), msc)
		if dims := n.ChildByFieldName("dimensions"); dims != nil {
			ret += f.dims(dims)
		}
		u.Methods = append(u.Methods, meta.Member{
			Kind:        meta.KindMethod,
			Name:        f.text(n.ChildByFieldName("name")),
			Params:      f.params(n.ChildByFieldName("parameters"), msc),
			ReturnType:  ret,
			Annotations: f.annotations(n, msc),
		})
	case "constructor_declaration":
		msc := sc.with(f.typeParams(n.ChildByFieldName("type_parameters"), sc))
		u.Methods = append(u.Methods, meta.Member{
			Kind:        meta.KindConstructor,
			Name:        meta.ConstructorName,
			Params:      f.params(n.ChildByFieldName("parameters"), msc),
			Annotations: f.annotations(n, msc),
		})
	case "annotation_type_element_declaration":
		u.Methods = append(u.Methods, meta.Member{
			Kind:        meta.KindMethod,
			Name:        f.text(n.ChildByFieldName("name")),
			ReturnType:  f.typeName(n.ChildByFieldName("type"), sc),
			Annotations: f.annotations(n, sc),
		})
	case "field_declaration", "constant_declaration":
		typ := f.typeName(n.ChildByFieldName("type"), sc)
		anns := f.annotations(n, sc)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			decl := n.NamedChild(i)
			if decl.Type() != "variable_declarator" {
				continue
			}
			t := typ
			if dims := decl.ChildByFieldName("dimensions"); dims != nil {
				t += f.dims(dims)
			}
			u.Fields = append(u.Fields, meta.Member{
				Kind:        meta.KindField,
				Name:        f.text(decl.ChildByFieldName("name")),
				Type:        t,
				Annotations: anns,
			})
		}
	case "enum_constant":
		u.Fields = append(u.Fields, meta.Member{
			Kind:        meta.KindField,
			Name:        f.text(n.ChildByFieldName("name")),
			Type:        u.Name,
			Annotations: f.annotations(n, sc),
		})
	}
}

// recordComponents adds the private fields, accessors and canonical
// constructor the compiler derives from a record header.
func (f *file) recordComponents(u *meta.Unit, params *sitter.Node, sc scope) {
	components := f.params(params, sc)
	ctor := meta.Member{Kind: meta.KindConstructor, Name: meta.ConstructorName}
	for i, p := range components {
		name := f.paramName(params, i)
		u.Fields = append(u.Fields, meta.Member{Kind: meta.KindField, Name: name, Type: p.Type, Annotations: p.Annotations})
		u.Methods = append(u.Methods, meta.Member{Kind: meta.KindMethod, Name: name, ReturnType: p.Type})
		ctor.Params = append(ctor.Params, meta.Param{Type: p.Type})
	}
	u.Methods = append([]meta.Member{ctor}, u.Methods...)
}

func (f *file) paramName(params *sitter.Node, idx int) string {
	seen := 0
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p.Type() != "formal_parameter" && p.Type() != "spread_parameter" {
			continue
		}
		if seen == idx {
			if name := p.ChildByFieldName("name"); name != nil {
				return f.text(name)
			}
			return fmt.Sprintf("arg%d", idx)
		}
		seen++
	}
	return fmt.Sprintf("arg%d", idx)
}

func (f *file) params(n *sitter.Node, sc scope) []meta.Param {
	if n == nil {
		return nil
	}
	var out []meta.Param
	for i := 0; i < int(n.NamedChildCount()); i++ {
		p := n.NamedChild(i)
		switch p.Type() {
		case "formal_parameter":
			typ := f.typeName(p.ChildByFieldName("type"), sc)
			if dims := p.ChildByFieldName("dimensions"); dims != nil {
				typ += f.dims(dims)
			}
			out = append(out, meta.Param{Type: typ, Annotations: f.annotations(p, sc)})
		case "spread_parameter":
			for j := 0; j < int(p.NamedChildCount()); j++ {
				t := p.NamedChild(j)
				if t.Type() == "modifiers" || t.Type() == "variable_declarator" {
					continue
				}
				out = append(out, meta.Param{Type: f.typeName(t, sc) + "[]", Annotations: f.annotations(p, sc)})
				break
			}
		}
	}
	return out
}

// annotations returns the qualified annotation names on a declaration's
// modifiers.
func (f *file) annotations(n *sitter.Node, sc scope) []string {
	var out []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		mods := n.NamedChild(i)
		if mods.Type() != "modifiers" {
			continue
		}
		for j := 0; j < int(mods.NamedChildCount()); j++ {
			a := mods.NamedChild(j)
			if a.Type() != "marker_annotation" && a.Type() != "annotation" {
				continue
			}
			if name := a.ChildByFieldName("name"); name != nil {
				out = append(out, f.resolve(f.text(name), sc))
			}
		}
	}
	return out
}

func (f *file) typeParams(n *sitter.Node, sc scope) scope {
	if n == nil {
		return nil
	}
	out := make(scope)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		tp := n.NamedChild(i)
		if tp.Type() != "type_parameter" {
			continue
		}
		var name string
		erasure := objectType
		for j := 0; j < int(tp.NamedChildCount()); j++ {
			child := tp.NamedChild(j)
			switch child.Type() {
			case "type_identifier", "identifier":
				if name == "" {
					name = f.text(child)
				}
			case "type_bound":
				if child.NamedChildCount() > 0 {
					erasure = f.typeName(child.NamedChild(0), sc)
				}
			}
		}
		if name != "" {
			out[name] = erasure
		}
	}
	return out
}

func (f *file) typeList(n *sitter.Node, sc scope) []string {
	if n == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "type_list" {
			return f.typeList(child, sc)
		}
		out = append(out, f.typeName(child, sc))
	}
	return out
}

// typeName renders the erased, qualified name of a type node.
func (f *file) typeName(n *sitter.Node, sc scope) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "generic_type":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() != "type_arguments" {
				return f.typeName(child, sc)
			}
		}
		return ""
	case "array_type":
		return f.typeName(n.ChildByFieldName("element"), sc) + f.dims(n.ChildByFieldName("dimensions"))
	case "annotated_type":
		for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
			child := n.NamedChild(i)
			if child.Type() != "marker_annotation" && child.Type() != "annotation" {
				return f.typeName(child, sc)
			}
		}
		return ""
	case "type_identifier", "scoped_type_identifier":
		return f.resolve(eraseGenerics(f.text(n)), sc)
	default:
		// primitives and void
		return f.text(n)
	}
}

func (f *file) dims(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return strings.Repeat("[]", strings.Count(f.text(n), "["))
}

// resolve qualifies a possibly dotted source name.
func (f *file) resolve(name string, sc scope) string {
	name = strings.Join(strings.Fields(name), "")
	head, rest, dotted := strings.Cut(name, ".")
	if !dotted {
		if erasure, ok := sc[name]; ok {
			return erasure
		}
	}

	var base string
	switch {
	case f.local[head] != "":
		base = f.local[head]
	case f.imports[head] != "":
		base = f.imports[head]
	case !dotted && javaLang[head]:
		base = "java.lang." + head
	case !dotted:
		base = f.qualify(head)
	default:
		// Already qualified, e.g. java.util.List.
		return name
	}
	if dotted {
		return base + "$" + strings.ReplaceAll(rest, ".", "$")
	}
	return base
}

// eraseGenerics drops every <...> group from a type name.
func eraseGenerics(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>':
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
