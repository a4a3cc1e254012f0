package matching

import (
	"encoding/json"
	"reflect"

	"github.com/ohler55/ojg/jp"
)

// MatchJSONPath evaluates JSONPath conditions against a JSON body. All
// conditions must hold. An expected value of {"exists": true/false} is an
// existence (or non-existence) check instead of an equality comparison; any
// other expected value is compared for equality with type coercion between
// JSON numeric representations.
//
// Returns false if the body is not valid JSON or any condition fails.
func MatchJSONPath(conditions map[string]any, body []byte) bool {
	if len(conditions) == 0 {
		return false
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		// Not valid JSON — doesn't match, not an error.
		return false
	}

	for path, expected := range conditions {
		if !matchSingleJSONPath(path, expected, data) {
			return false
		}
	}
	return true
}

func matchSingleJSONPath(path string, expected any, data any) bool {
	expr, err := jp.ParseString(path)
	if err != nil {
		// Invalid expression (rejected at load time) — no match.
		return false
	}

	results := expr.Get(data)

	if isExistenceCheck(expected) {
		return getExistsValue(expected) == (len(results) > 0)
	}

	// Wildcard paths can return multiple results; any match suffices.
	for _, result := range results {
		if valuesEqual(result, expected) {
			return true
		}
	}
	return false
}

// isExistenceCheck determines if the expected value is a map with a single
// "exists" key containing a boolean.
func isExistenceCheck(expected any) bool {
	m, ok := expected.(map[string]any)
	if !ok {
		return false
	}
	_, hasExists := m["exists"]
	return hasExists && len(m) == 1
}

func getExistsValue(expected any) bool {
	m, ok := expected.(map[string]any)
	if !ok {
		return false
	}
	b, ok := m["exists"].(bool)
	return ok && b
}

// valuesEqual compares two values for equality, coercing numeric types
// (JSON numbers decode as float64, YAML as int).
func valuesEqual(actual, expected any) bool {
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}

	if reflect.DeepEqual(actual, expected) {
		return true
	}

	actualNum, actualIsNum := toFloat64(actual)
	expectedNum, expectedIsNum := toFloat64(expected)
	if actualIsNum && expectedIsNum {
		return actualNum == expectedNum
	}

	return false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
