// Package build drives the whole binding pipeline: locate the native library,
// clean its header, generate the cgo package, and compile it next to a copy
// of the library.
package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/psmoveservice/psmbind/binding"
	"github.com/psmoveservice/psmbind/discover"
	"github.com/psmoveservice/psmbind/header"
)

// Errors
var (
	ErrNoHeader  = errors.New("header not found")
	ErrNoPackage = errors.New("package name required")
)

// Runner runs an external program in dir with env and waits for it.
type Runner func(ctx context.Context, dir string, env []string, name string, args ...string) error

// ExecRunner runs the program with os/exec, streaming its output to ours.
func ExecRunner(ctx context.Context, dir string, env []string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	slog.Info("running", "cmd", cmd.Args, "dir", dir)
	return cmd.Run()
}

type Builder struct {
	Locator    *discover.Locator
	Normalizer *header.Normalizer

	// Header is the path of the C API header.
	Header string

	// Output is the directory the binding package is written to and
	// Package its Go package name.
	Output  string
	Package string

	// SkipCompile stops after the sources and library are in place.
	SkipCompile bool

	// Run defaults to ExecRunner.
	Run Runner
}

// Prepared is the interface surface of the native library: where it lives
// and the cleaned declarations the binding is generated from.
type Prepared struct {
	LibPath string
	Cdef    string
	Binding *binding.Binding
}

// Result describes what Build produced.
type Result struct {
	Prepared

	// Library is the copy of the native library placed next to Source.
	Library string
	Source  string
	Skipped []binding.Skipped
}

// Prepare locates the library and header and declares the cleaned header as
// the binding's interface. It touches nothing on disk.
func (b *Builder) Prepare() (*Prepared, error) {
	if b.Package == "" {
		return nil, ErrNoPackage
	}

	libPath, err := b.Locator.Find()
	if err != nil {
		return nil, err
	}
	slog.Info("found native library", "path", libPath)

	headerPath, err := filepath.Abs(b.Header)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(headerPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoHeader, headerPath)
	}

	text, err := b.Normalizer.NormalizeFile(headerPath)
	if err != nil {
		return nil, err
	}

	decls, err := header.ParseDecls(text)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", headerPath, err)
	}

	return &Prepared{
		LibPath: libPath,
		Cdef:    text,
		Binding: &binding.Binding{
			Package:    b.Package,
			Header:     filepath.Base(headerPath),
			IncludeDir: filepath.Dir(headerPath),
			Library:    b.Locator.Base + b.Locator.Suffixes[b.Locator.Bitness],
			Rpath:      b.Locator.Platform != discover.Windows,
			Decls:      decls,
			Constants:  b.Normalizer.Constants,
		},
	}, nil
}

// Build runs the whole pipeline. Any failing step aborts it.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	prep, err := b.Prepare()
	if err != nil {
		return nil, err
	}

	out, err := filepath.Abs(b.Output)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return nil, err
	}

	res := &Result{
		Prepared: *prep,
		Source:   filepath.Join(out, b.Package+".go"),
		Library:  filepath.Join(out, b.Locator.LibraryName()),
	}

	var src bytes.Buffer
	if res.Skipped, err = binding.Generate(&src, prep.Binding); err != nil {
		return nil, err
	}
	if err := os.WriteFile(res.Source, src.Bytes(), 0o644); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(out, "cdef.h"), []byte(prep.Cdef), 0o644); err != nil {
		return nil, err
	}
	slog.Info("wrote binding", "path", res.Source, "skipped", len(res.Skipped))

	if err := ensureModule(out, b.Package); err != nil {
		return nil, err
	}

	if sameFile(prep.LibPath, res.Library) {
		slog.Debug("native library already in output", "path", res.Library)
	} else if err := localCopy(prep.LibPath, res.Library); err != nil {
		return nil, fmt.Errorf("copying %s: %w", prep.LibPath, err)
	} else {
		slog.Info("copied native library", "from", prep.LibPath, "to", res.Library)
	}

	if b.SkipCompile {
		slog.Info("skipping compile")
		return res, nil
	}

	run := b.Run
	if run == nil {
		run = ExecRunner
	}

	env := append(os.Environ(), "CGO_ENABLED=1")

	// The stock dylib is installed as @rpath/<name>; it has to name its own
	// directory before anything links against the copy.
	if b.Locator.Platform == discover.Darwin {
		name := filepath.Base(res.Library)
		if err := run(ctx, out, env, "install_name_tool", "-id", "@loader_path/"+name, res.Library); err != nil {
			return nil, fmt.Errorf("patching install name: %w", err)
		}
	}

	if err := run(ctx, out, env, "go", "build", "."); err != nil {
		return nil, fmt.Errorf("compiling binding: %w", err)
	}

	return res, nil
}

// goVersion is written to generated go.mod files. It needs the patch
// component; "go 1.22" names a toolchain that was never released.
const goVersion = "1.22.0"

// ensureModule writes a go.mod for the binding unless dir already sits inside
// a module.
func ensureModule(dir, pkg string) error {
	for d := dir; ; d = filepath.Dir(d) {
		if _, err := os.Stat(filepath.Join(d, "go.mod")); err == nil {
			return nil
		}
		if filepath.Dir(d) == d {
			break
		}
	}

	mod := fmt.Sprintf("module %s\n\ngo %s\n", pkg, goVersion)
	return os.WriteFile(filepath.Join(dir, "go.mod"), []byte(mod), 0o644)
}
