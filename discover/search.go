package discover

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/psmoveservice/psmbind/logutil"
)

var ErrLibraryNotFound = errors.New("library was not found")

// loaderPathVars lists the environment variables the dynamic loader consults
// on each platform, in the order it consults them.
var loaderPathVars = map[Platform][]string{
	Windows: {"PATH"},
	Darwin:  {"DYLD_LIBRARY_PATH", "DYLD_FALLBACK_LIBRARY_PATH"},
	Linux:   {"LD_LIBRARY_PATH"},
}

// archLibDirs maps GOARCH to the Debian style multiarch directory names.
var archLibDirs = map[string][]string{
	"amd64": {"x86_64-linux-gnu"},
	"arm64": {"aarch64-linux-gnu"},
	"arm":   {"arm-linux-gnueabihf", "arm-linux-gnueabi"},
	"386":   {"i386-linux-gnu", "i686-linux-gnu"},
}

// defaultDirs returns the directories searched after the loader path.
func defaultDirs(p Platform) []string {
	switch p {
	case Windows:
		root := os.Getenv("SystemRoot")
		if root == "" {
			root = `C:\Windows`
		}
		return []string{filepath.Join(root, "System32")}
	case Darwin:
		return []string{"/usr/local/lib", "/opt/homebrew/lib", "/usr/lib"}
	default:
		var dirs []string
		for _, d := range archLibDirs[runtime.GOARCH] {
			dirs = append(dirs, filepath.Join("/usr/lib", d), filepath.Join("/lib", d))
		}
		return append(dirs, "/usr/local/lib", "/usr/local/lib64", "/usr/lib64", "/usr/lib", "/lib64", "/lib")
	}
}

// ldconfigCache lists the libraries known to the Linux loader cache. It is a
// variable so tests can replace it.
var ldconfigCache = func() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "ldconfig", "-p").Output()
	if err != nil {
		// ldconfig often lives outside a regular user's PATH
		out, err = exec.CommandContext(ctx, "/sbin/ldconfig", "-p").Output()
		if err != nil {
			return nil, err
		}
	}
	return parseLdconfig(out), nil
}

// parseLdconfig extracts the resolved paths from `ldconfig -p` output, whose
// entries look like
//
//	libfoo.so.1 (libc6,x86-64) => /usr/lib/x86_64-linux-gnu/libfoo.so.1
func parseLdconfig(out []byte) []string {
	var paths []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		_, path, ok := strings.Cut(scanner.Text(), "=>")
		if !ok {
			continue
		}
		if path = strings.TrimSpace(path); path != "" {
			paths = append(paths, path)
		}
	}
	return paths
}

// matchesLibrary reports whether file is name itself or a versioned variant
// of it such as libfoo.so.1.
func matchesLibrary(file, name string) bool {
	return file == name || strings.HasPrefix(file, name+".")
}

// FindLibraries returns every copy of the shared library name visible to the
// system loader on p, most preferred first. Symlinks are resolved and
// duplicates dropped.
func FindLibraries(p Platform, name string) []string {
	slog.Debug("searching for library", "name", name, "platform", p)

	var patterns []string
	for _, v := range loaderPathVars[p] {
		for _, dir := range filepath.SplitList(os.Getenv(v)) {
			if dir == "" {
				continue
			}
			dir, err := filepath.Abs(dir)
			if err != nil {
				continue
			}
			patterns = append(patterns, filepath.Join(dir, name))
		}
	}

	if p == Linux {
		if cached, err := ldconfigCache(); err != nil {
			slog.Debug("ldconfig cache unavailable", "error", err)
		} else {
			for _, c := range cached {
				if matchesLibrary(filepath.Base(c), name) {
					patterns = append(patterns, c)
				}
			}
		}
	}

	for _, dir := range defaultDirs(p) {
		patterns = append(patterns, filepath.Join(dir, name))
		if p == Linux {
			patterns = append(patterns, filepath.Join(dir, name+".*"))
		}
	}

	logutil.Trace("library search", "globs", patterns)

	var libPaths []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		// Ignore glob discovery errors
		matches, _ := filepath.Glob(pattern)
		for _, match := range matches {
			if !isFile(match) {
				continue
			}
			// Resolve any links so we don't report the same lib multiple times
			libPath, err := filepath.EvalSymlinks(match)
			if err != nil {
				continue
			}
			if libPath, err = filepath.Abs(libPath); err != nil {
				continue
			}
			if !seen[libPath] {
				seen[libPath] = true
				libPaths = append(libPaths, libPath)
			}
		}
	}

	slog.Debug("discovered libraries", "paths", libPaths)
	return libPaths
}

// FindLibrary returns the first result of FindLibraries.
func FindLibrary(p Platform, name string) (string, error) {
	if paths := FindLibraries(p, name); len(paths) > 0 {
		return paths[0], nil
	}
	return "", fmt.Errorf("%w: %s", ErrLibraryNotFound, name)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
