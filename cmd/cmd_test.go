package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psmoveservice/psmbind/discover"
)

// checkout lays out a minimal PSMoveService tree and points the
// environment at it.
func checkout(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	src := filepath.Join(root, "src", "psmoveclient")
	require.NoError(t, os.MkdirAll(src, 0o755))
	for _, name := range []string{"PSMoveClient_CAPI.h", "ClientConstants.h"} {
		data, err := os.ReadFile(filepath.Join("..", "header", "testdata", name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(src, name), data, 0o644))
	}

	lib := filepath.Join(root, "build", "src", "psmoveclient", "Debug")
	require.NoError(t, os.MkdirAll(lib, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(lib, "libPSMoveClient_CAPI.so"), make([]byte, 2048), 0o755))

	for _, key := range []string{
		"PSMBIND_DEBUG", "PSMBIND_BUILD_DIR", "PSMBIND_HEADER", "PSMBIND_CONSTANTS",
		"PSMBIND_LIBRARY", "PSMBIND_OUTPUT", "PSMBIND_PACKAGE", "PSMBIND_CONFIG",
		"PSMBIND_LIB_SUFFIX_32", "PSMBIND_LIB_SUFFIX_64",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("PSMBIND_ROOT", root)
	return root
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cli := NewCLI()
	cli.SetOut(&out)
	cli.SetErr(&out)
	cli.SetArgs(args)
	err := cli.Execute()
	return out.String(), err
}

func TestHeaderCommand(t *testing.T) {
	checkout(t)

	out, err := run(t, "header")
	require.NoError(t, err)
	assert.NotContains(t, out, "PSM_PUBLIC_FUNCTION")
	assert.NotContains(t, out, "#ifndef")
	assert.Contains(t, out, "PSMResult PSM_Initialize(const char* host, const char* port, int timeout_ms);")
	// ClientConstants.h overrides the built-in controller count
	assert.Contains(t, out, "int controller_ids[6]")
	assert.Contains(t, out, "int tracker_ids[4]")
}

func TestConstantsCommand(t *testing.T) {
	root := checkout(t)

	out, err := run(t, "constants")
	require.NoError(t, err)

	source := filepath.Join(root, "src", "psmoveclient", "ClientConstants.h")
	var got [][]string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n")[1:] {
		got = append(got, strings.Fields(line))
	}
	expect := [][]string{
		{"PSMOVESERVICE_MAX_CONTROLLER_COUNT", "6", source},
		{"PSMOVESERVICE_MAX_HMD_COUNT", "1", source},
		{"PSMOVESERVICE_MAX_TRACKER_COUNT", "4", source},
	}
	if diff := cmp.Diff(expect, got); diff != "" {
		t.Errorf("unexpected constants (-want +got):\n%s", diff)
	}
}

func TestConstantsCommandBuiltin(t *testing.T) {
	checkout(t)
	t.Setenv("PSMBIND_CONSTANTS", "missing.h")

	out, err := run(t, "constants")
	require.NoError(t, err)
	assert.Contains(t, out, "PSMOVESERVICE_MAX_CONTROLLER_COUNT")
	assert.Contains(t, out, "built-in")
	assert.NotContains(t, out, "HMD")
}

func TestDeclsCommand(t *testing.T) {
	checkout(t)

	out, err := run(t, "decls")
	require.NoError(t, err)

	lines := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		if i := strings.Index(line, "("); i > 0 {
			name := line[strings.LastIndex(line[:i], " ")+1 : i]
			lines[name] = line
		}
	}

	assert.Contains(t, lines["PSM_Initialize"], "ok")
	assert.Contains(t, lines["PSM_Log"], "skipped")
	assert.Contains(t, lines["PSM_GetControllerPositionAsync"], "ok")
	assert.Contains(t, out, "PSMRequestID")
}

func TestDeclsCommandIgnoresPackageName(t *testing.T) {
	checkout(t)
	t.Setenv("PSMBIND_PACKAGE", "not-a-name")

	out, err := run(t, "decls")
	require.NoError(t, err)
	assert.Contains(t, out, "PSM_Initialize")
}

func TestLocateCommand(t *testing.T) {
	root := checkout(t)

	out, err := run(t, "locate", "--platform", "linux")
	require.NoError(t, err)

	want, err := filepath.Abs(filepath.Join(root, "build", "src", "psmoveclient", "Debug", "libPSMoveClient_CAPI.so"))
	require.NoError(t, err)
	assert.Contains(t, out, want)
	assert.Contains(t, out, "2 KiB")
}

func TestLocateCommandUnknownPlatform(t *testing.T) {
	checkout(t)

	_, err := run(t, "locate", "--platform", "plan9")
	assert.ErrorIs(t, err, discover.ErrUnknownPlatform)
}

func TestGenerateSkipCompile(t *testing.T) {
	checkout(t)
	output := filepath.Join(t.TempDir(), "psm")

	out, err := run(t, "build", "--platform", "linux", "--skip-compile", "-o", output, "-p", "psm")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped:  PSM_Log")

	src, err := os.ReadFile(filepath.Join(output, "psm.go"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(src), "// Code generated by psmbind. DO NOT EDIT."))
	assert.Contains(t, string(src), "package psm\n")
	assert.Contains(t, string(src), "func PSM_Shutdown() C.PSMResult {")

	assert.FileExists(t, filepath.Join(output, "cdef.h"))
	assert.FileExists(t, filepath.Join(output, "libPSMoveClient_CAPI.so"))
}

func TestGenerateInvalidPackage(t *testing.T) {
	checkout(t)

	_, err := run(t, "generate", "--platform", "linux", "--skip-compile", "-o", t.TempDir(), "-p", "not-a-name")
	assert.ErrorContains(t, err, "invalid package name")
}

func TestEnvCommand(t *testing.T) {
	root := checkout(t)

	out, err := run(t, "env")
	require.NoError(t, err)
	assert.Contains(t, out, "PSMBIND_ROOT")
	assert.Contains(t, out, root)
	assert.Contains(t, out, "PSMoveClient_CAPI")

	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "PSMBIND_DEBUG") {
			assert.Equal(t, []string{"PSMBIND_DEBUG", "0"}, strings.Fields(line)[:2])
		}
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		assert.NoError(t, LoadDotEnv(t.TempDir()))
	})

	t.Run("present", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PSMBIND_PACKAGE=fromdotenv\n"), 0o644))
		t.Setenv("PSMBIND_PACKAGE", "")
		os.Unsetenv("PSMBIND_PACKAGE")

		require.NoError(t, LoadDotEnv(dir))
		assert.Equal(t, "fromdotenv", os.Getenv("PSMBIND_PACKAGE"))
	})
}
