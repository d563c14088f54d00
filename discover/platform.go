package discover

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnknownPlatform = errors.New("unrecognized operating system")

// Platform is one of the operating systems the native client library is
// built for.
type Platform int

const (
	Windows Platform = iota + 1
	Darwin
	Linux
)

type naming struct {
	Prefix, Ext string
}

var namings = map[Platform]naming{
	Windows: {"", ".dll"},
	Darwin:  {"lib", ".dylib"},
	Linux:   {"lib", ".so"},
}

var platformNames = map[string]Platform{
	"windows":   Windows,
	"microsoft": Windows,
	"darwin":    Darwin,
	"linux":     Linux,
}

// ParsePlatform accepts the names reported by uname-like system queries
// (Windows, Microsoft, Darwin, Linux) as well as the matching GOOS values.
func ParsePlatform(name string) (Platform, error) {
	p, ok := platformNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPlatform, name)
	}
	return p, nil
}

func (p Platform) String() string {
	switch p {
	case Windows:
		return "Windows"
	case Darwin:
		return "Darwin"
	case Linux:
		return "Linux"
	default:
		return "Platform(" + strconv.Itoa(int(p)) + ")"
	}
}

func (p Platform) Prefix() string { return namings[p].Prefix }

func (p Platform) Ext() string { return namings[p].Ext }

// FileName returns the shared library file name for base on p, e.g.
// libPSMoveClient_CAPI.so on Linux.
func (p Platform) FileName(base, suffix string) string {
	return p.Prefix() + base + suffix + p.Ext()
}

// Valid reports whether p is one of the known platforms. The zero Platform
// is not.
func (p Platform) Valid() bool {
	_, ok := namings[p]
	return ok
}
