package matching

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stubwire/stubwire/pkg/contract"
)

func newRequest(t *testing.T, method, target string, headers map[string]string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	return r
}

func TestMatches_Conjunction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		matcher *contract.RequestMatcher
		method  string
		target  string
		headers map[string]string
		body    string
		want    bool
	}{
		{
			name:    "method and path match",
			matcher: &contract.RequestMatcher{Method: "POST", Path: "/beer"},
			method:  "POST",
			target:  "/beer",
			want:    true,
		},
		{
			name:    "method is case insensitive",
			matcher: &contract.RequestMatcher{Method: "post", Path: "/beer"},
			method:  "POST",
			target:  "/beer",
			want:    true,
		},
		{
			name:    "wrong method fails whole match",
			matcher: &contract.RequestMatcher{Method: "POST", Path: "/beer"},
			method:  "GET",
			target:  "/beer",
			want:    false,
		},
		{
			name: "all fields must match, one miss fails",
			matcher: &contract.RequestMatcher{
				Method:       "POST",
				Path:         "/beer",
				Headers:      map[string]string{"Content-Type": "application/json"},
				BodyContains: "marcin",
			},
			method:  "POST",
			target:  "/beer",
			headers: map[string]string{"Content-Type": "application/json"},
			body:    `{"name":"other"}`,
			want:    false,
		},
		{
			name: "all fields matching succeeds",
			matcher: &contract.RequestMatcher{
				Method:       "POST",
				Path:         "/beer",
				Headers:      map[string]string{"Content-Type": "application/json"},
				BodyContains: "marcin",
			},
			method:  "POST",
			target:  "/beer",
			headers: map[string]string{"Content-Type": "application/json"},
			body:    `{"name":"marcin"}`,
			want:    true,
		},
		{
			name:    "query param match",
			matcher: &contract.RequestMatcher{Path: "/search", QueryParams: map[string]string{"q": "beer"}},
			method:  "GET",
			target:  "/search?q=beer",
			want:    true,
		},
		{
			name:    "query param mismatch",
			matcher: &contract.RequestMatcher{Path: "/search", QueryParams: map[string]string{"q": "beer"}},
			method:  "GET",
			target:  "/search?q=wine",
			want:    false,
		},
		{
			name:    "missing query param",
			matcher: &contract.RequestMatcher{Path: "/search", QueryParams: map[string]string{"q": "beer"}},
			method:  "GET",
			target:  "/search",
			want:    false,
		},
		{
			name:    "header wildcard prefix",
			matcher: &contract.RequestMatcher{Headers: map[string]string{"Authorization": "Bearer *"}},
			method:  "GET",
			target:  "/any",
			headers: map[string]string{"Authorization": "Bearer abc123"},
			want:    true,
		},
		{
			name:    "body equals exact",
			matcher: &contract.RequestMatcher{BodyEquals: `{"a":1}`},
			method:  "POST",
			target:  "/x",
			body:    `{"a":1}`,
			want:    true,
		},
		{
			name:    "body pattern",
			matcher: &contract.RequestMatcher{BodyPattern: `"id":\s*\d+`},
			method:  "POST",
			target:  "/x",
			body:    `{"id": 42}`,
			want:    true,
		},
		{
			name:    "jsonpath value",
			matcher: &contract.RequestMatcher{BodyJSONPath: map[string]any{"$.name": "marcin"}},
			method:  "POST",
			target:  "/x",
			body:    `{"name":"marcin"}`,
			want:    true,
		},
		{
			name:    "jsonpath exists false on present field",
			matcher: &contract.RequestMatcher{BodyJSONPath: map[string]any{"$.name": map[string]any{"exists": false}}},
			method:  "POST",
			target:  "/x",
			body:    `{"name":"marcin"}`,
			want:    false,
		},
		{
			name:    "body expression",
			matcher: &contract.RequestMatcher{BodyExpr: `body.age > 18`},
			method:  "POST",
			target:  "/x",
			body:    `{"age": 21}`,
			want:    true,
		},
		{
			name:    "body expression false",
			matcher: &contract.RequestMatcher{BodyExpr: `body.age > 18`},
			method:  "POST",
			target:  "/x",
			body:    `{"age": 12}`,
			want:    false,
		},
		{
			name:    "path and pathPattern together never match",
			matcher: &contract.RequestMatcher{Path: "/a", PathPattern: "^/a$"},
			method:  "GET",
			target:  "/a",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := newRequest(t, tt.method, tt.target, tt.headers)
			got := Matches(tt.matcher, r, []byte(tt.body))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchesWithCaptures_PathPattern(t *testing.T) {
	t.Parallel()

	m := &contract.RequestMatcher{PathPattern: `^/api/users/(?P<id>\d+)$`}
	r := newRequest(t, "GET", "/api/users/42", nil)

	ok, captures := MatchesWithCaptures(m, r, nil)
	require.True(t, ok)
	assert.Equal(t, "42", captures["id"])
}

func TestMatchPath_NamedParams(t *testing.T) {
	t.Parallel()

	assert.True(t, MatchPath("/users/{id}", "/users/42"))
	assert.True(t, MatchPath("/users/{id}/orders/{orderId}", "/users/42/orders/7"))
	assert.False(t, MatchPath("/users/{id}", "/users/42/extra"))
	assert.True(t, MatchPath("/static/*", "/static/css/site.css"))
	assert.False(t, MatchPath("/static/*", "/other/site.css"))

	vars := PathVariables("/users/{id}", "/users/42")
	assert.Equal(t, map[string]string{"id": "42"}, vars)
}
