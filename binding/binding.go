// Package binding renders a cgo package that forwards to the functions a C
// header declares.
package binding

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"io"
	"log/slog"
	"sort"
	"strings"
	"text/template"
	"unicode"

	"github.com/psmoveservice/psmbind/header"
)

// Binding describes the package to generate.
type Binding struct {
	// Package is the Go package name.
	Package string

	// Header is the file name of the C header to #include and IncludeDir
	// the directory holding it.
	Header     string
	IncludeDir string

	// Library is the native library name as passed to -l.
	Library string

	// Rpath embeds the package directory as a runtime search path.
	Rpath bool

	Decls     *header.Decls
	Constants map[string]string
}

// Skipped is a function the generator could not forward.
type Skipped struct {
	Func   header.Func
	Reason error
}

type wrapper struct {
	GoName string
	CName  string
	Params string
	Args   string
	Result string
	Doc    string
}

type constant struct {
	Name, Value string
}

type alias struct {
	GoName, CType string
}

type templateData struct {
	*Binding
	Constants []constant
	Aliases   []alias
	Wrappers  []wrapper
	Unsafe    bool
}

var tmpl = template.Must(template.New("binding").Parse(`// Code generated by psmbind. DO NOT EDIT.

package {{.Package}}

/*
#cgo CFLAGS: {{.IncludeFlag}}
#cgo LDFLAGS: -L${SRCDIR} -l{{.Library}}{{if .Rpath}} -Wl,-rpath,${SRCDIR}{{end}}
#include <stdlib.h>
#include "{{.Header}}"
*/
import "C"
{{if .Unsafe}}
import "unsafe"
{{end}}
{{- if .Constants}}
const (
{{- range .Constants}}
	{{.Name}} = {{.Value}}
{{- end}}
)
{{end}}
{{- range .Aliases}}
type {{.GoName}} = {{.CType}}
{{end}}
{{- range .Wrappers}}
// {{.GoName}} calls {{.Doc}}
func {{.GoName}}({{.Params}}) {{.Result}} {
	{{if .Result}}return {{end}}C.{{.CName}}({{.Args}})
}
{{end}}`))

// Generate writes the gofmt'd binding source to w and reports the functions
// it had to leave out.
func Generate(w io.Writer, b *Binding) ([]Skipped, error) {
	if b.Package == "" || !token.IsIdentifier(b.Package) {
		return nil, fmt.Errorf("invalid package name %q", b.Package)
	}

	data := templateData{Binding: b}
	used := make(map[string]bool)

	for _, name := range sortedKeys(b.Constants) {
		goName := exported(name)
		if used[goName] {
			continue
		}
		used[goName] = true
		data.Constants = append(data.Constants, constant{goName, b.Constants[name]})
	}

	var skipped []Skipped
	if b.Decls != nil {
		for _, t := range b.Decls.Types {
			if strings.Contains(t.Name, " ") || used[t.Name] || !token.IsExported(t.Name) {
				continue
			}
			used[t.Name] = true
			data.Aliases = append(data.Aliases, alias{t.Name, "C." + t.Name})
		}

		for _, f := range b.Decls.Funcs {
			wr, err := wrap(f)
			if err == nil && used[wr.GoName] {
				err = fmt.Errorf("%w: %s collides with another Go name", ErrUnsupported, wr.GoName)
			}
			if err != nil {
				slog.Warn("skipping function", "name", f.Name, "error", err)
				skipped = append(skipped, Skipped{Func: f, Reason: err})
				continue
			}
			used[wr.GoName] = true
			if strings.Contains(wr.Params, "unsafe.") || strings.Contains(wr.Result, "unsafe.") {
				data.Unsafe = true
			}
			data.Wrappers = append(data.Wrappers, wr)
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting generated source: %w\n%s", err, buf.Bytes())
	}
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	return skipped, nil
}

func wrap(f header.Func) (wrapper, error) {
	if f.Variadic {
		return wrapper{}, fmt.Errorf("%w: variadic function", ErrUnsupported)
	}

	result, err := CType(f.Return)
	if err != nil {
		return wrapper{}, err
	}

	var params, args []string
	names := make(map[string]bool)
	for i, p := range f.Params {
		t, err := ParamType(p)
		if err != nil {
			return wrapper{}, err
		}
		name := paramName(p.Name, i, names)
		names[name] = true
		params = append(params, name+" "+t)
		args = append(args, name)
	}

	return wrapper{
		GoName: exported(f.Name),
		CName:  f.Name,
		Params: strings.Join(params, ", "),
		Args:   strings.Join(args, ", "),
		Result: result,
		Doc:    f.Signature() + ".",
	}, nil
}

// paramName makes a C parameter name usable in Go.
func paramName(name string, i int, taken map[string]bool) string {
	switch {
	case name == "":
		name = fmt.Sprintf("p%d", i)
	case token.IsKeyword(name), name == "C", name == "unsafe":
		name += "_"
	}
	for taken[name] {
		name += "_"
	}
	return name
}

func exported(name string) string {
	if name == "" || token.IsExported(name) {
		return name
	}
	r := []rune(name)
	if r[0] == '_' {
		return "X" + name
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IncludeFlag quotes the include directory when cgo would otherwise split it.
func (d templateData) IncludeFlag() string {
	if strings.ContainsAny(d.IncludeDir, " \t'") {
		return `-I"` + d.IncludeDir + `"`
	}
	return "-I" + d.IncludeDir
}
