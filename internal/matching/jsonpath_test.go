package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchJSONPath(t *testing.T) {
	t.Parallel()

	body := []byte(`{
		"name": "marcin",
		"age": 30,
		"active": true,
		"address": {"city": "Warsaw"},
		"tags": ["a", "b"]
	}`)

	tests := []struct {
		name       string
		conditions map[string]any
		want       bool
	}{
		{name: "string value", conditions: map[string]any{"$.name": "marcin"}, want: true},
		{name: "string mismatch", conditions: map[string]any{"$.name": "other"}, want: false},
		{name: "numeric value", conditions: map[string]any{"$.age": 30}, want: true},
		{name: "numeric coercion int vs float", conditions: map[string]any{"$.age": 30.0}, want: true},
		{name: "boolean value", conditions: map[string]any{"$.active": true}, want: true},
		{name: "nested path", conditions: map[string]any{"$.address.city": "Warsaw"}, want: true},
		{name: "array element", conditions: map[string]any{"$.tags[0]": "a"}, want: true},
		{name: "exists true on present", conditions: map[string]any{"$.name": map[string]any{"exists": true}}, want: true},
		{name: "exists true on absent", conditions: map[string]any{"$.missing": map[string]any{"exists": true}}, want: false},
		{name: "exists false on absent", conditions: map[string]any{"$.missing": map[string]any{"exists": false}}, want: true},
		{name: "all conditions must hold", conditions: map[string]any{"$.name": "marcin", "$.age": 99}, want: false},
		{name: "missing path", conditions: map[string]any{"$.nope": "x"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MatchJSONPath(tt.conditions, body))
		})
	}
}

func TestMatchJSONPath_NonJSONBody(t *testing.T) {
	t.Parallel()
	assert.False(t, MatchJSONPath(map[string]any{"$.a": 1}, []byte("not json")))
	assert.False(t, MatchJSONPath(map[string]any{"$.a": 1}, nil))
}

func TestMatchBodyExpr(t *testing.T) {
	t.Parallel()

	body := []byte(`{"age": 21, "name": "ada", "items": [1, 2, 3]}`)

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{name: "comparison", expr: "body.age >= 18", want: true},
		{name: "comparison false", expr: "body.age > 99", want: false},
		{name: "string equality", expr: `body.name == "ada"`, want: true},
		{name: "compound", expr: `body.age > 18 && body.name startsWith "a"`, want: true},
		{name: "array length", expr: "len(body.items) == 3", want: true},
		{name: "non-boolean result fails", expr: "body.age", want: false},
		{name: "missing field comparison fails", expr: "body.nope == 1", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MatchBodyExpr(tt.expr, body))
		})
	}
}

func TestMatchBodyExpr_NonJSONBody(t *testing.T) {
	t.Parallel()
	assert.False(t, MatchBodyExpr("body.a == 1", []byte("plain")))
}

func TestMatchBodyPattern(t *testing.T) {
	t.Parallel()

	assert.True(t, MatchBodyPattern(`"id":\s*\d+`, []byte(`{"id": 7}`)))
	assert.False(t, MatchBodyPattern(`"id":\s*\d+`, []byte(`{"id": "x"}`)))
	// Invalid pattern is a graceful non-match (rejected at load time anyway)
	assert.False(t, MatchBodyPattern("[broken", []byte("anything")))
}
