package binding

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psmoveservice/psmbind/header"
)

func TestCType(t *testing.T) {
	cases := map[string]string{
		"void":                "",
		"int":                 "C.int",
		"unsigned int":        "C.uint",
		"unsigned char":       "C.uchar",
		"const char*":         "*C.char",
		"const char * const":  "*C.char",
		"char**":              "**C.char",
		"void*":               "unsafe.Pointer",
		"const void*":         "unsafe.Pointer",
		"void**":              "*unsafe.Pointer",
		"float":               "C.float",
		"bool":                "C.bool",
		"uint64_t":            "C.uint64_t",
		"PSMResult":           "C.PSMResult",
		"PSMController*":      "*C.PSMController",
		"struct _PSMVector3f": "C.struct__PSMVector3f",
		"enum PSMState*":      "*C.enum_PSMState",
	}

	for in, expect := range cases {
		t.Run(in, func(t *testing.T) {
			got, err := CType(in)
			require.NoError(t, err)
			assert.Equal(t, expect, got)
		})
	}
}

func TestCTypeUnsupported(t *testing.T) {
	for _, in := range []string{"", "*", "int * int", "struct", "long double complex", "my-type"} {
		t.Run(in, func(t *testing.T) {
			_, err := CType(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnsupported))
		})
	}
}

func TestParamType(t *testing.T) {
	got, err := ParamType(header.Param{Type: "int", Name: "ids", Array: true})
	require.NoError(t, err)
	assert.Equal(t, "*C.int", got)

	_, err = ParamType(header.Param{Type: "void (*cb)(int)", Name: "cb", FuncPtr: true})
	assert.True(t, errors.Is(err, ErrUnsupported))

	_, err = ParamType(header.Param{Type: "void"})
	assert.True(t, errors.Is(err, ErrUnsupported))
}
