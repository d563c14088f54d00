package header

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
)

// Built-in values used when the constants header cannot be found. They match
// ClientConstants.h at the time of writing.
const (
	MaxControllerCount = "5"
	MaxTrackerCount    = "4"
)

const BuiltinSource = "built-in"

func DefaultConstants() map[string]string {
	return map[string]string{
		"PSMOVESERVICE_MAX_CONTROLLER_COUNT": MaxControllerCount,
		"PSMOVESERVICE_MAX_TRACKER_COUNT":    MaxTrackerCount,
	}
}

type Constant struct {
	Name   string
	Value  string
	Source string
}

// #define NAME 42, optionally parenthesized, suffixed or commented
var defineRe = regexp.MustCompile(
	`^\s*#\s*define\s+([A-Za-z_]\w*)\s+\(?\s*([-+]?(?:0[xX][0-9a-fA-F]+|[0-9]+))[uUlL]*\s*\)?\s*(?://.*|/\*.*\*/\s*)?$`)

// ParseDefines returns the integer-valued object-like macros defined in r.
// Function-like macros and non-integer definitions are ignored.
func ParseDefines(r io.Reader) (map[string]string, error) {
	defines := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if m := defineRe.FindStringSubmatch(scanner.Text()); m != nil {
			defines[m[1]] = m[2]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return defines, nil
}

// LoadConstants merges the built-in constants with those defined in the
// header at path. Values from the header win. A missing file is not an error;
// the built-ins are returned alone.
func LoadConstants(path string) ([]Constant, error) {
	merged := make(map[string]Constant)
	for name, value := range DefaultConstants() {
		merged[name] = Constant{name, value, BuiltinSource}
	}

	if path != "" {
		f, err := os.Open(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, err
		default:
			defer f.Close()
			defines, err := ParseDefines(f)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			for name, value := range defines {
				merged[name] = Constant{name, value, path}
			}
		}
	}

	constants := make([]Constant, 0, len(merged))
	for _, c := range merged {
		constants = append(constants, c)
	}
	sort.Slice(constants, func(i, j int) bool { return constants[i].Name < constants[j].Name })
	return constants, nil
}

func ConstantMap(constants []Constant) map[string]string {
	m := make(map[string]string, len(constants))
	for _, c := range constants {
		m[c.Name] = c.Value
	}
	return m
}
