package discover

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlatform(t *testing.T) {
	cases := map[string]struct {
		name   string
		expect Platform
		file   string
	}{
		"linux":     {"Linux", Linux, "libPSMoveClient_CAPI.so"},
		"darwin":    {"Darwin", Darwin, "libPSMoveClient_CAPI.dylib"},
		"windows":   {"Windows", Windows, "PSMoveClient_CAPI.dll"},
		"microsoft": {"Microsoft", Windows, "PSMoveClient_CAPI.dll"},
		"goos":      {"linux", Linux, "libPSMoveClient_CAPI.so"},
		"padded":    {" Darwin ", Darwin, "libPSMoveClient_CAPI.dylib"},
	}

	for name, tt := range cases {
		t.Run(name, func(t *testing.T) {
			p, err := ParsePlatform(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.expect, p)
			assert.Equal(t, tt.file, p.FileName("PSMoveClient_CAPI", ""))
		})
	}
}

func TestParsePlatformUnknown(t *testing.T) {
	for _, name := range []string{"", "FreeBSD", "Java", "SunOS", "plan9"} {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePlatform(name)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnknownPlatform))
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestPlatformString(t *testing.T) {
	assert.Equal(t, "Windows", Windows.String())
	assert.Equal(t, "Darwin", Darwin.String())
	assert.Equal(t, "Linux", Linux.String())
	assert.Equal(t, "Platform(7)", Platform(7).String())
}

func TestFileNameSuffix(t *testing.T) {
	assert.Equal(t, "PSMoveClient_CAPI_x86.dll", Windows.FileName("PSMoveClient_CAPI", "_x86"))
	assert.Equal(t, "lib", Linux.Prefix())
	assert.Equal(t, ".dylib", Darwin.Ext())
}

func TestZeroPlatformInvalid(t *testing.T) {
	var p Platform
	assert.False(t, p.Valid())
	assert.Equal(t, "Platform(0)", p.String())
	for _, known := range []Platform{Windows, Darwin, Linux} {
		assert.True(t, known.Valid(), known.String())
	}
}
