package data

import (
	"errors"
	"strings"
)

var ErrNoObject = errors.New("no json object found in answer")

// ExtractObject pulls the first complete JSON object out of a model answer.
// Models tend to wrap their JSON in prose or markdown fences, so we scan for
// balanced braces instead of trusting the whole answer to unmarshal.
func ExtractObject(ans string) (string, error) {
	start := strings.IndexByte(ans, '{')
	if start < 0 {
		return "", ErrNoObject
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(ans); i++ {
		c := ans[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return ans[start : i+1], nil
			}
		}
	}
	return "", ErrNoObject
}
