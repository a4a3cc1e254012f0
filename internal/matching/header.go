package matching

import (
	"net/http"
	"strings"
)

// MatchHeaderPattern checks if a header matches an expected value or pattern.
// Header names are case-insensitive per the HTTP spec. Patterns support
// simple prefix (value*), suffix (*value), and contains (*value*) forms.
func MatchHeaderPattern(name, pattern string, headers http.Header) bool {
	actual := headers.Get(name)
	if actual == "" {
		return false
	}

	if !strings.Contains(pattern, "*") {
		return actual == pattern
	}

	hasPrefix := strings.HasPrefix(pattern, "*")
	hasSuffix := strings.HasSuffix(pattern, "*")

	switch {
	case hasPrefix && hasSuffix:
		return strings.Contains(actual, strings.Trim(pattern, "*"))
	case hasSuffix:
		return strings.HasPrefix(actual, strings.TrimSuffix(pattern, "*"))
	case hasPrefix:
		return strings.HasSuffix(actual, strings.TrimPrefix(pattern, "*"))
	default:
		return false
	}
}
