package discover

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitness(t *testing.T) {
	assert.Contains(t, []int{32, 64}, Bitness())
}

func TestLibraryName(t *testing.T) {
	l := &Locator{Base: "PSMoveClient_CAPI", Platform: Linux, Bitness: 32}
	assert.Equal(t, "libPSMoveClient_CAPI.so", l.LibraryName())

	l.Bitness = 64
	assert.Equal(t, "libPSMoveClient_CAPI.so", l.LibraryName())

	l.Suffixes = map[int]string{32: "_x86"}
	assert.Equal(t, "libPSMoveClient_CAPI.so", l.LibraryName())
	l.Bitness = 32
	assert.Equal(t, "libPSMoveClient_CAPI_x86.so", l.LibraryName())
}

func TestFindInBuildTree(t *testing.T) {
	root := t.TempDir()
	buildDir := filepath.Join("build", "src", "psmoveclient", "Debug")
	require.NoError(t, os.MkdirAll(filepath.Join(root, buildDir), 0o755))
	want := filepath.Join(root, buildDir, "libPSMoveClient_CAPI.dylib")
	require.NoError(t, os.WriteFile(want, []byte("dylib"), 0o644))

	l := &Locator{
		Root:     root,
		BuildDir: buildDir,
		Base:     "PSMoveClient_CAPI",
		Platform: Darwin,
		Bitness:  64,
		Search: func(Platform, string) (string, error) {
			t.Fatal("system search should not run when the build tree has the library")
			return "", nil
		},
	}

	got, err := l.Find()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.True(t, filepath.IsAbs(got))
}

func TestFindFallsBackToSearch(t *testing.T) {
	var searched string
	l := &Locator{
		Root:     t.TempDir(),
		BuildDir: "build",
		Base:     "PSMoveClient_CAPI",
		Platform: Windows,
		Bitness:  64,
		Search: func(p Platform, name string) (string, error) {
			searched = name
			return `C:\psm\PSMoveClient_CAPI.dll`, nil
		},
	}

	got, err := l.Find()
	require.NoError(t, err)
	assert.Equal(t, "PSMoveClient_CAPI.dll", searched)
	assert.Equal(t, `C:\psm\PSMoveClient_CAPI.dll`, got)
}

func TestFindIgnoresDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "libPSMoveClient_CAPI.so"), 0o755))

	l := &Locator{
		Root:     root,
		Base:     "PSMoveClient_CAPI",
		Platform: Linux,
		Search: func(Platform, string) (string, error) {
			return "", ErrLibraryNotFound
		},
	}

	_, err := l.Find()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLibraryNotFound))
}

func TestFindNotFound(t *testing.T) {
	l := &Locator{
		Root:     t.TempDir(),
		BuildDir: "build",
		Base:     "PSMoveClient_CAPI",
		Platform: Linux,
		Bitness:  64,
		Search: func(Platform, string) (string, error) {
			return "", nil
		},
	}

	_, err := l.Find()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLibraryNotFound))
	assert.Contains(t, err.Error(), "libPSMoveClient_CAPI.so")
	assert.Contains(t, err.Error(), "search path")
}

func TestFindRejectsUnsetPlatform(t *testing.T) {
	l := &Locator{
		Root:     t.TempDir(),
		BuildDir: "build",
		Base:     "PSMoveClient_CAPI",
		Search: func(Platform, string) (string, error) {
			t.Fatal("search must not run without a platform")
			return "", nil
		},
	}

	_, err := l.Find()
	assert.ErrorIs(t, err, ErrUnknownPlatform)
}
