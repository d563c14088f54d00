package envconfig

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

var (
	// Set via PSMBIND_DEBUG in the environment
	Debug int
	// Set via PSMBIND_ROOT in the environment
	Root string
	// Set via PSMBIND_BUILD_DIR in the environment
	BuildDir string
	// Set via PSMBIND_HEADER in the environment
	Header string
	// Set via PSMBIND_CONSTANTS in the environment
	Constants string
	// Set via PSMBIND_LIBRARY in the environment
	Library string
	// Set via PSMBIND_OUTPUT in the environment
	Output string
	// Set via PSMBIND_PACKAGE in the environment
	Package string
	// Set via PSMBIND_LIB_SUFFIX_32 in the environment
	LibSuffix32 string
	// Set via PSMBIND_LIB_SUFFIX_64 in the environment
	LibSuffix64 string
	// Set via PSMBIND_CONFIG in the environment
	ConfigFile string
)

const (
	defaultRoot      = "../.."
	defaultBuildDir  = "build/src/psmoveclient/Debug"
	defaultHeader    = "src/psmoveclient/PSMoveClient_CAPI.h"
	defaultConstants = "src/psmoveclient/ClientConstants.h"
	defaultLibrary   = "PSMoveClient_CAPI"
	defaultOutput    = "psmoveclient"
	defaultPackage   = "psmoveclient"
	defaultConfig    = "psmbind.toml"
)

type EnvVar struct {
	Name        string
	Value       any
	Description string
}

func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"PSMBIND_DEBUG":         {"PSMBIND_DEBUG", Debug, "Log verbosity (1 debug, 2 trace)"},
		"PSMBIND_ROOT":          {"PSMBIND_ROOT", Root, "Root of the PSMoveService checkout (default \"../..\")"},
		"PSMBIND_BUILD_DIR":     {"PSMBIND_BUILD_DIR", BuildDir, "Build output directory searched first, relative to the root"},
		"PSMBIND_HEADER":        {"PSMBIND_HEADER", Header, "C API header, relative to the root"},
		"PSMBIND_CONSTANTS":     {"PSMBIND_CONSTANTS", Constants, "Header holding the #define constants, relative to the root"},
		"PSMBIND_LIBRARY":       {"PSMBIND_LIBRARY", Library, "Base name of the native library"},
		"PSMBIND_OUTPUT":        {"PSMBIND_OUTPUT", Output, "Directory the binding package is written to"},
		"PSMBIND_PACKAGE":       {"PSMBIND_PACKAGE", Package, "Go package name of the binding"},
		"PSMBIND_LIB_SUFFIX_32": {"PSMBIND_LIB_SUFFIX_32", LibSuffix32, "Library name suffix on 32-bit hosts"},
		"PSMBIND_LIB_SUFFIX_64": {"PSMBIND_LIB_SUFFIX_64", LibSuffix64, "Library name suffix on 64-bit hosts"},
		"PSMBIND_CONFIG":        {"PSMBIND_CONFIG", ConfigFile, "TOML config file (default \"psmbind.toml\")"},
	}
}

func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}

// Clean quotes and spaces from the value
func clean(key string) string {
	return strings.Trim(os.Getenv(key), "\"' ")
}

func init() {
	LoadConfig()
}

// LoadConfig resets every setting to its default, applies the TOML config
// file if there is one, then applies the environment.
func LoadConfig() {
	Debug = 0
	Root = defaultRoot
	BuildDir = defaultBuildDir
	Header = defaultHeader
	Constants = defaultConstants
	Library = defaultLibrary
	Output = defaultOutput
	Package = defaultPackage
	LibSuffix32 = ""
	LibSuffix64 = ""

	ConfigFile = clean("PSMBIND_CONFIG")
	path, explicit := ConfigFile, ConfigFile != ""
	if !explicit {
		path = defaultConfig
	}
	if f, err := ReadFile(path); err == nil {
		f.apply()
	} else if explicit || !os.IsNotExist(err) {
		slog.Error("invalid config file, ignoring", "PSMBIND_CONFIG", path, "error", err)
	}

	if debug := clean("PSMBIND_DEBUG"); debug != "" {
		Debug = parseDebug(debug)
	}

	setString(&Root, "PSMBIND_ROOT")
	setString(&BuildDir, "PSMBIND_BUILD_DIR")
	setString(&Header, "PSMBIND_HEADER")
	setString(&Constants, "PSMBIND_CONSTANTS")
	setString(&Library, "PSMBIND_LIBRARY")
	setString(&Output, "PSMBIND_OUTPUT")
	setString(&Package, "PSMBIND_PACKAGE")

	// Suffixes may legitimately be set to the empty string, so presence
	// rather than value decides.
	if _, ok := os.LookupEnv("PSMBIND_LIB_SUFFIX_32"); ok {
		LibSuffix32 = clean("PSMBIND_LIB_SUFFIX_32")
	}
	if _, ok := os.LookupEnv("PSMBIND_LIB_SUFFIX_64"); ok {
		LibSuffix64 = clean("PSMBIND_LIB_SUFFIX_64")
	}
}

func setString(dst *string, key string) {
	if v := clean(key); v != "" {
		*dst = v
	}
}

func parseDebug(s string) int {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}
	if b, err := strconv.ParseBool(s); err == nil {
		if b {
			return 1
		}
		return 0
	}
	return 1
}
