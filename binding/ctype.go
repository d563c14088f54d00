package binding

import (
	"errors"
	"fmt"
	"strings"

	"github.com/psmoveservice/psmbind/header"
)

var ErrUnsupported = errors.New("unsupported declaration")

// cgo names for the C scalar types
var scalarTypes = map[string]string{
	"char":               "C.char",
	"signed char":        "C.schar",
	"unsigned char":      "C.uchar",
	"short":              "C.short",
	"short int":          "C.short",
	"unsigned short":     "C.ushort",
	"unsigned short int": "C.ushort",
	"int":                "C.int",
	"signed":             "C.int",
	"signed int":         "C.int",
	"unsigned":           "C.uint",
	"unsigned int":       "C.uint",
	"long":               "C.long",
	"long int":           "C.long",
	"unsigned long":      "C.ulong",
	"unsigned long int":  "C.ulong",
	"long long":          "C.longlong",
	"unsigned long long": "C.ulonglong",
	"float":              "C.float",
	"double":             "C.double",
	"bool":               "C.bool",
	"_Bool":              "C.bool",
	"size_t":             "C.size_t",
	"int8_t":             "C.int8_t",
	"int16_t":            "C.int16_t",
	"int32_t":            "C.int32_t",
	"int64_t":            "C.int64_t",
	"uint8_t":            "C.uint8_t",
	"uint16_t":           "C.uint16_t",
	"uint32_t":           "C.uint32_t",
	"uint64_t":           "C.uint64_t",
	"uintptr_t":          "C.uintptr_t",
}

var taggedKeywords = map[string]bool{"struct": true, "enum": true, "union": true}

// CType converts a C type as written in a declaration, e.g. "const char*",
// into the Go type cgo exposes for it, e.g. "*C.char". It returns the empty
// string for void.
func CType(ctype string) (string, error) {
	var words []string
	for _, w := range strings.Fields(strings.ReplaceAll(ctype, "*", " * ")) {
		switch w {
		case "const", "volatile", "restrict", "__restrict":
		default:
			words = append(words, w)
		}
	}

	stars := 0
	for len(words) > 0 && words[len(words)-1] == "*" {
		stars++
		words = words[:len(words)-1]
	}
	base := strings.Join(words, " ")
	if strings.Contains(base, "*") || base == "" {
		return "", fmt.Errorf("%w: type %q", ErrUnsupported, ctype)
	}

	var goType string
	switch {
	case base == "void" && stars == 0:
		return "", nil
	case base == "void":
		goType = "unsafe.Pointer"
		stars--
	case scalarTypes[base] != "":
		goType = scalarTypes[base]
	case len(words) == 2 && taggedKeywords[words[0]]:
		goType = "C." + words[0] + "_" + words[1]
	case len(words) == 1 && isIdent(base) && !taggedKeywords[base]:
		goType = "C." + base
	default:
		return "", fmt.Errorf("%w: type %q", ErrUnsupported, ctype)
	}

	return strings.Repeat("*", stars) + goType, nil
}

// ParamType is CType for a parameter; arrays decay to pointers.
func ParamType(p header.Param) (string, error) {
	if p.FuncPtr {
		return "", fmt.Errorf("%w: function pointer parameter %q", ErrUnsupported, p.Type)
	}

	t, err := CType(p.Type)
	if err != nil {
		return "", err
	}
	if t == "" {
		return "", fmt.Errorf("%w: void parameter", ErrUnsupported)
	}
	if p.Array {
		t = "*" + t
	}
	return t, nil
}

func isIdent(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		case i > 0 && '0' <= r && r <= '9':
		default:
			return false
		}
	}
	return s != ""
}
