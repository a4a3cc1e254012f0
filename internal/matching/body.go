package matching

import "regexp"

// MatchBodyPattern checks if the request body matches a regex pattern.
// Uses Go's regexp package with RE2 syntax. An invalid pattern (rejected at
// load time) gracefully returns no match.
func MatchBodyPattern(pattern string, body []byte) bool {
	if pattern == "" {
		return false
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.Match(body)
}
