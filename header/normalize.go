// Package header turns the PSMoveClient C API header into a declaration
// surface a binding generator can consume.
//
// The header brackets its declarations between two line comments, a
// //cut_before marker after the include guards and export macros and a
// //cut_after marker before the closing guards. Everything outside the
// markers is preprocessor plumbing and is discarded.
package header

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

const (
	CutBefore = "//cut_before"
	CutAfter  = "//cut_after"

	// PublicFunction marks exported API functions, e.g.
	// PSM_PUBLIC_FUNCTION(PSMResult) PSM_Initialize(...);
	PublicFunction = "PSM_PUBLIC_FUNCTION"
)

var ErrMissingSentinel = errors.New("header is missing sentinel")

type Normalizer struct {
	CutBefore string
	CutAfter  string
	Wrapper   string

	// Constants maps identifiers to the literal they are replaced with.
	Constants map[string]string
}

// NewNormalizer returns a Normalizer using the standard markers and wrapper
// macro. A nil constants map substitutes DefaultConstants.
func NewNormalizer(constants map[string]string) *Normalizer {
	if constants == nil {
		constants = DefaultConstants()
	}
	return &Normalizer{
		CutBefore: CutBefore,
		CutAfter:  CutAfter,
		Wrapper:   PublicFunction,
		Constants: constants,
	}
}

// Clean extracts the text between the sentinels and rewrites it.
//
// Everything up to and including the cut-before marker and the character
// after it (its line terminator) is dropped, as is everything from the line
// holding the cut-after marker onward.
func (n *Normalizer) Clean(text string) (string, error) {
	i := strings.Index(text, n.CutBefore)
	if i < 0 {
		return "", fmt.Errorf("%w %q", ErrMissingSentinel, n.CutBefore)
	}
	start := min(i+len(n.CutBefore)+1, len(text))
	text = text[start:]

	j := strings.Index(text, "\n"+n.CutAfter)
	if j < 0 {
		return "", fmt.Errorf("%w %q", ErrMissingSentinel, n.CutAfter)
	}
	text = text[:j]

	return n.Rewrite(text), nil
}

// Rewrite unwraps the export macro and substitutes constants. Unlike Clean it
// needs no sentinels, and applying it twice gives the same result as once.
func (n *Normalizer) Rewrite(text string) string {
	if n.Wrapper != "" {
		wrapper := regexp.MustCompile(regexp.QuoteMeta(n.Wrapper) + `\((.*?)\)`)
		// nested wrappers unwrap one level per pass
		for {
			next := wrapper.ReplaceAllString(text, "${1}")
			if next == text {
				break
			}
			text = next
		}
	}

	for _, name := range sortedNames(n.Constants) {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
		text = re.ReplaceAllLiteralString(text, n.Constants[name])
	}
	return text
}

// NormalizeFile reads the header at path and cleans it.
func (n *Normalizer) NormalizeFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	text, err := n.Clean(string(b))
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return text, nil
}

// sortedNames orders longer names first so a constant that is a prefix of
// another never clobbers it.
func sortedNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}
