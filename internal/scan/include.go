package scan

import (
	"bytes"
	"os"
)

const directive = "#include"

// directiveWindow is how far matchesDirective walks backward from a header
// name match looking for '#' before giving up.
const directiveWindow = 100

// FindIncludes reports which of the known headers the file at path references
// via an include directive. Headers are checked, and reported, in the order
// given.
//
// This is a deliberate heuristic over raw bytes, not a preprocessor: only the
// first occurrence of each header name is examined, a name inside a comment
// or string literal can count if a real directive sits close enough before
// it, and includes assembled by macros are invisible. Changing any of this
// changes the generated dependency lines.
func FindIncludes(path string, headers []string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var includes []string
	for _, header := range headers {
		if matchesDirective(data, header) {
			includes = append(includes, header)
		}
	}
	return includes, nil
}

// matchesDirective checks whether the first occurrence of name in data sits
// inside an include directive: a '#' at most directiveWindow bytes before the
// match, whose following 8 bytes spell out "#include".
func matchesDirective(data []byte, name string) bool {
	found := bytes.Index(data, []byte(name))
	if found < 0 {
		return false
	}

	start := found
	for start >= 0 && found-start <= directiveWindow && data[start] != '#' {
		start--
	}
	if start < 0 || found-start > directiveWindow {
		return false
	}
	if start+len(directive) > len(data) {
		return false
	}
	return string(data[start:start+len(directive)]) == directive
}
