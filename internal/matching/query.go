package matching

import "net/url"

// MatchQueryParam checks if a specific query parameter matches.
func MatchQueryParam(name, expected string, params url.Values) bool {
	return params.Get(name) == expected
}
