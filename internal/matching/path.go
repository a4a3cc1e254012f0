package matching

import (
	"regexp"
	"strings"
)

// MatchPath checks if the request path matches the pattern.
// Supports:
//   - Exact match: "/api/beers" matches "/api/beers"
//   - Named params: "/api/beers/{id}" matches "/api/beers/123"
//   - Trailing wildcard: "/api/beers/*" matches "/api/beers/123"
//   - General wildcard: "/api/*/orders" matches "/api/beers/orders"
func MatchPath(pattern, path string) bool {
	if pattern == path {
		return true
	}

	if strings.Contains(pattern, "{") && strings.Contains(pattern, "}") {
		return matchNamedParams(pattern, path)
	}

	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	if strings.Contains(pattern, "*") {
		return matchWildcard(pattern, path)
	}

	return false
}

// matchNamedParams checks if path matches a pattern with named parameters.
// Example: "/beers/{id}" matches "/beers/123"
func matchNamedParams(pattern, path string) bool {
	patternParts := strings.Split(strings.Trim(pattern, "/"), "/")
	pathParts := strings.Split(strings.Trim(path, "/"), "/")

	if len(patternParts) != len(pathParts) {
		return false
	}

	for i, patternPart := range patternParts {
		// Named parameter matches any value
		if strings.HasPrefix(patternPart, "{") && strings.HasSuffix(patternPart, "}") {
			continue
		}
		if patternPart != pathParts[i] {
			return false
		}
	}

	return true
}

// matchWildcard performs simple wildcard pattern matching.
// * matches any sequence of characters.
func matchWildcard(pattern, path string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == path
	}

	pos := 0
	for i, part := range parts {
		if part == "" {
			continue
		}

		// First part must be a prefix
		if i == 0 {
			if !strings.HasPrefix(path, part) {
				return false
			}
			pos = len(part)
			continue
		}

		idx := strings.Index(path[pos:], part)
		if idx == -1 {
			return false
		}
		pos += idx + len(part)
	}

	return true
}

// MatchPathPattern checks if the request path matches a regex pattern and
// returns any named capture groups for template variable access. An invalid
// pattern (rejected at load time) gracefully returns no match.
func MatchPathPattern(pattern, path string) (bool, map[string]string) {
	if pattern == "" {
		return false, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, nil
	}

	match := re.FindStringSubmatch(path)
	if match == nil {
		return false, nil
	}

	captures := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if i > 0 && name != "" && i < len(match) {
			captures[name] = match[i]
		}
	}
	return true, captures
}

// PathVariables extracts named path parameters from a matched pattern.
// Example: pattern "/beers/{id}" with path "/beers/123" returns {"id": "123"}.
func PathVariables(pattern, path string) map[string]string {
	result := make(map[string]string)

	patternParts := strings.Split(strings.Trim(pattern, "/"), "/")
	pathParts := strings.Split(strings.Trim(path, "/"), "/")

	for i, patternPart := range patternParts {
		if i >= len(pathParts) {
			break
		}
		if strings.HasPrefix(patternPart, "{") && strings.HasSuffix(patternPart, "}") {
			result[patternPart[1:len(patternPart)-1]] = pathParts[i]
		}
	}

	return result
}
