package header

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
)

type TypeKind string

const (
	KindStruct TypeKind = "struct"
	KindEnum   TypeKind = "enum"
	KindUnion  TypeKind = "union"
	KindAlias  TypeKind = "alias"
	KindFunc   TypeKind = "func"
)

// TypeDecl is a typedef or tagged aggregate declared by the header.
type TypeDecl struct {
	Name string
	Kind TypeKind
	Decl string
}

type Param struct {
	// Type is the C type with pointer stars attached, e.g. "const char*".
	Type string
	// Name is empty for unnamed parameters.
	Name string
	// Array is set for parameters declared with brackets, e.g. float v[3].
	Array bool
	// FuncPtr is set for function pointer parameters; Type then holds the
	// whole declarator.
	FuncPtr bool
}

// Func is a function prototype.
type Func struct {
	Name     string
	Return   string
	Params   []Param
	Variadic bool
	Decl     string
}

// Signature renders f as a single line C prototype.
func (f Func) Signature() string {
	var b strings.Builder
	b.WriteString(f.Return)
	b.WriteByte(' ')
	b.WriteString(f.Name)
	b.WriteByte('(')
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.FuncPtr {
			b.WriteString(p.Type)
			continue
		}
		b.WriteString(p.Type)
		if p.Name != "" {
			b.WriteByte(' ')
			b.WriteString(p.Name)
		}
		if p.Array {
			b.WriteString("[]")
		}
	}
	if f.Variadic {
		if len(f.Params) > 0 {
			b.WriteString(", ")
		}
		b.WriteString("...")
	}
	if len(f.Params) == 0 && !f.Variadic {
		b.WriteString("void")
	}
	b.WriteByte(')')
	return b.String()
}

type Decls struct {
	Funcs []Func
	Types []TypeDecl
}

// ParseDecls parses cleaned header text with the tree-sitter C grammar and
// collects function prototypes and type declarations. Declarations it does
// not understand, including anything the grammar reports as an error, are
// skipped.
func ParseDecls(text string) (*Decls, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(c.GetLanguage())

	src := []byte(text)
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	w := &declWalker{src: src}
	w.item(tree.RootNode())
	return &w.decls, nil
}

type declWalker struct {
	src   []byte
	decls Decls
}

// text returns the source of n with runs of whitespace collapsed.
func (w *declWalker) text(n *sitter.Node) string {
	return strings.Join(strings.Fields(n.Content(w.src)), " ")
}

func (w *declWalker) item(n *sitter.Node) {
	switch n.Type() {
	case "translation_unit", "declaration_list",
		"preproc_ifdef", "preproc_if", "preproc_else", "preproc_elif":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			w.item(n.NamedChild(i))
		}
	case "linkage_specification":
		if body := n.ChildByFieldName("body"); body != nil {
			w.item(body)
		}
	case "declaration":
		w.declaration(n)
	case "type_definition":
		w.typedef(n)
	case "struct_specifier", "enum_specifier", "union_specifier":
		w.tagged(n)
	}
}

// declarators returns the children of n in its declarator field.
func declarators(n *sitter.Node) []*sitter.Node {
	var ds []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.FieldNameForChild(i) == "declarator" {
			ds = append(ds, n.Child(i))
		}
	}
	return ds
}

// peelPointers strips pointer declarators off n and counts them.
func peelPointers(n *sitter.Node) (*sitter.Node, int) {
	stars := 0
	for n != nil && (n.Type() == "pointer_declarator" || n.Type() == "abstract_pointer_declarator") {
		stars++
		n = n.ChildByFieldName("declarator")
	}
	return n, stars
}

// typeText renders the type specifier of n with its qualifiers, e.g.
// "const char".
func (w *declWalker) typeText(n *sitter.Node) string {
	var words []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child.Type() == "type_qualifier" {
			words = append(words, w.text(child))
		}
	}
	if t := n.ChildByFieldName("type"); t != nil {
		words = append(words, w.text(t))
	}
	return strings.Join(words, " ")
}

// name finds the identifier a declarator declares.
func (w *declWalker) name(n *sitter.Node) string {
	for n != nil {
		switch n.Type() {
		case "identifier", "type_identifier", "field_identifier":
			return w.text(n)
		case "parenthesized_declarator":
			if n.NamedChildCount() == 0 {
				return ""
			}
			n = n.NamedChild(0)
		default:
			n = n.ChildByFieldName("declarator")
		}
	}
	return ""
}

func (w *declWalker) declaration(n *sitter.Node) {
	for _, d := range declarators(n) {
		fn, stars := peelPointers(d)
		if fn == nil || fn.Type() != "function_declarator" {
			continue
		}
		// function pointer variables declare a parenthesized name
		ident := fn.ChildByFieldName("declarator")
		if ident == nil || ident.Type() != "identifier" {
			continue
		}

		f := Func{
			Name:   w.text(ident),
			Return: w.typeText(n) + strings.Repeat("*", stars),
			Decl:   w.text(n),
		}
		if params := fn.ChildByFieldName("parameters"); params != nil {
			w.params(&f, params)
		}
		w.decls.Funcs = append(w.decls.Funcs, f)
	}
}

func (w *declWalker) params(f *Func, list *sitter.Node) {
	for i := 0; i < int(list.ChildCount()); i++ {
		child := list.Child(i)
		switch child.Type() {
		case "variadic_parameter", "...":
			f.Variadic = true
		case "parameter_declaration":
			decl := child.ChildByFieldName("declarator")
			if decl == nil && w.typeText(child) == "void" {
				continue
			}
			f.Params = append(f.Params, w.param(child))
		}
	}
}

func (w *declWalker) param(n *sitter.Node) Param {
	d, stars := peelPointers(n.ChildByFieldName("declarator"))

	var p Param
	if d != nil {
		switch d.Type() {
		case "function_declarator", "abstract_function_declarator":
			return Param{Type: w.text(n), Name: w.name(d), FuncPtr: true}
		case "array_declarator", "abstract_array_declarator":
			p.Array = true
			var inner int
			d, inner = peelPointers(d.ChildByFieldName("declarator"))
			stars += inner
		}
		if d != nil && d.Type() == "identifier" {
			p.Name = w.text(d)
		}
	}
	p.Type = w.typeText(n) + strings.Repeat("*", stars)
	return p
}

func (w *declWalker) typedef(n *sitter.Node) {
	kind := KindAlias
	if t := n.ChildByFieldName("type"); t != nil {
		switch t.Type() {
		case "struct_specifier":
			kind = KindStruct
		case "enum_specifier":
			kind = KindEnum
		case "union_specifier":
			kind = KindUnion
		}
	}

	for _, d := range declarators(n) {
		k := kind
		if fn, _ := peelPointers(d); fn != nil && fn.Type() == "function_declarator" {
			k = KindFunc
		}
		if name := w.name(d); name != "" {
			w.decls.Types = append(w.decls.Types, TypeDecl{Name: name, Kind: k, Decl: w.text(n)})
		}
	}
}

// tagged handles "struct Tag { ... };" declared without a typedef.
func (w *declWalker) tagged(n *sitter.Node) {
	name, body := n.ChildByFieldName("name"), n.ChildByFieldName("body")
	if name == nil || body == nil {
		return
	}
	kind := TypeKind(strings.TrimSuffix(n.Type(), "_specifier"))
	tag := string(kind) + " " + w.text(name)
	w.decls.Types = append(w.decls.Types, TypeDecl{Name: tag, Kind: kind, Decl: tag + " {}"})
}
