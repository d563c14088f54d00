package discover

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"unsafe"
)

// Bitness is the pointer width of the running process, 32 or 64.
func Bitness() int {
	return 8 * int(unsafe.Sizeof(uintptr(0)))
}

// HostPlatform returns the Platform of the running process.
func HostPlatform() (Platform, error) {
	return ParsePlatform(runtime.GOOS)
}

// Locator finds the native client library, preferring the copy in the
// project's build tree over anything installed on the system.
type Locator struct {
	// Root is the project checkout; BuildDir is relative to it.
	Root     string
	BuildDir string

	// Base is the library name without platform prefix or extension.
	Base string

	Platform Platform
	Bitness  int

	// Suffixes appends a per-bitness variant to the file name, e.g. "_x86"
	// for 32-bit builds. The stock build produces the same name for both
	// widths, so the map is normally empty.
	Suffixes map[int]string

	// Search is the fallback used when the build tree has no library.
	// FindLibrary is used when nil.
	Search func(Platform, string) (string, error)
}

// NewLocator returns a Locator for the host platform and bitness.
func NewLocator(root, buildDir, base string) (*Locator, error) {
	p, err := HostPlatform()
	if err != nil {
		return nil, err
	}
	return &Locator{
		Root:     root,
		BuildDir: buildDir,
		Base:     base,
		Platform: p,
		Bitness:  Bitness(),
	}, nil
}

// LibraryName returns the file name the library is expected to have.
func (l *Locator) LibraryName() string {
	suffix := l.Suffixes[l.Bitness]
	if suffix == "" {
		slog.Debug("library name does not depend on bitness", "bitness", l.Bitness)
	}
	return l.Platform.FileName(l.Base, suffix)
}

// BuildPath returns the absolute path the library has in the build tree,
// whether or not it exists.
func (l *Locator) BuildPath() (string, error) {
	return filepath.Abs(filepath.Join(l.Root, l.BuildDir, l.LibraryName()))
}

// Find returns the absolute path of the library. The build tree is checked
// first, then the system search path.
func (l *Locator) Find() (string, error) {
	if !l.Platform.Valid() {
		return "", fmt.Errorf("%w: %v", ErrUnknownPlatform, l.Platform)
	}
	name := l.LibraryName()

	candidate, err := l.BuildPath()
	if err != nil {
		return "", err
	}
	if isFile(candidate) {
		slog.Debug("found library in build tree", "path", candidate)
		return candidate, nil
	}
	slog.Debug("library not in build tree", "path", candidate)

	search := l.Search
	if search == nil {
		search = FindLibrary
	}
	if libPath, err := search(l.Platform, name); err == nil && libPath != "" {
		return libPath, nil
	}

	return "", fmt.Errorf("%w: %s - make sure that it is on the search path", ErrLibraryNotFound, name)
}
