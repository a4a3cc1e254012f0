package matching

import (
	"net/http"
	"strings"

	"github.com/stubwire/stubwire/pkg/contract"
)

// Matches reports whether the request fully satisfies the matcher. All
// specified predicates must hold; an unspecified predicate is a wildcard.
func Matches(m *contract.RequestMatcher, r *http.Request, body []byte) bool {
	matched, _ := MatchesWithCaptures(m, r, body)
	return matched
}

// MatchesWithCaptures is Matches plus any named capture groups produced by a
// pathPattern regex, for use as template variables.
func MatchesWithCaptures(m *contract.RequestMatcher, r *http.Request, body []byte) (bool, map[string]string) {
	if m == nil {
		return false, nil
	}

	// Path and pathPattern are mutually exclusive; the store rejects this at
	// load, but a hand-built matcher fails to match rather than panicking.
	if m.Path != "" && m.PathPattern != "" {
		return false, nil
	}

	if m.Method != "" && !MatchMethod(m.Method, r.Method) {
		return false, nil
	}

	if m.Path != "" && !MatchPath(m.Path, r.URL.Path) {
		return false, nil
	}

	var captures map[string]string
	if m.PathPattern != "" {
		ok, c := MatchPathPattern(m.PathPattern, r.URL.Path)
		if !ok {
			return false, nil
		}
		captures = c
	}

	for name, value := range m.Headers {
		if !MatchHeaderPattern(name, value, r.Header) {
			return false, nil
		}
	}

	for name, value := range m.QueryParams {
		if !MatchQueryParam(name, value, r.URL.Query()) {
			return false, nil
		}
	}

	if m.BodyEquals != "" && string(body) != m.BodyEquals {
		return false, nil
	}

	if m.BodyContains != "" && !strings.Contains(string(body), m.BodyContains) {
		return false, nil
	}

	if m.BodyPattern != "" && !MatchBodyPattern(m.BodyPattern, body) {
		return false, nil
	}

	if len(m.BodyJSONPath) > 0 && !MatchJSONPath(m.BodyJSONPath, body) {
		return false, nil
	}

	if m.BodyExpr != "" && !MatchBodyExpr(m.BodyExpr, body) {
		return false, nil
	}

	return true, captures
}

// MatchMethod checks if the request method matches, case-insensitively.
func MatchMethod(expected, actual string) bool {
	return strings.EqualFold(expected, actual)
}
