package template

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Context holds all available data for template evaluation.
type Context struct {
	Request  RequestContext
	Scenario ScenarioContext
}

// RequestContext contains HTTP request data available to templates.
type RequestContext struct {
	Method     string
	Path       string
	RawBody    string
	Body       any // Parsed JSON or nil
	Query      map[string][]string
	Headers    http.Header
	PathParams map[string]string // From /users/{id} style contract paths
}

// ScenarioContext describes the matched contract's scenario at render time.
// State is the pre-transition state; NewState is the state being set (empty
// when the contract declares no transition).
type ScenarioContext struct {
	Name     string
	State    string
	NewState string
}

// NewContext creates a template context from an HTTP request. The body is
// parsed as JSON when it looks like JSON, regardless of Content-Type, since
// stub clients are frequently sloppy about headers.
func NewContext(r *http.Request, bodyBytes []byte) *Context {
	ctx := &Context{
		Request: RequestContext{
			Method:     r.Method,
			Path:       r.URL.Path,
			RawBody:    string(bodyBytes),
			Query:      r.URL.Query(),
			Headers:    r.Header,
			PathParams: make(map[string]string),
		},
	}

	if len(bodyBytes) > 0 {
		var body any
		if err := json.Unmarshal(bodyBytes, &body); err == nil {
			ctx.Request.Body = body
		}
	}

	return ctx
}

// bodyField resolves a dotted path (e.g. "user.name") against the parsed
// JSON body. Missing fields or non-JSON bodies yield the empty string.
func (c *Context) bodyField(path string) string {
	current := c.Request.Body
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current, ok = obj[part]
		if !ok {
			return ""
		}
	}
	return stringify(current)
}

func (c *Context) headerValue(name string) string {
	if c.Request.Headers == nil {
		return ""
	}
	return c.Request.Headers.Get(name)
}

func (c *Context) queryValue(name string) string {
	values := c.Request.Query[name]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// stringify renders a JSON value the way it appeared in the document:
// scalars bare, composites re-marshaled.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		// JSON numbers decode as float64; render integers without a decimal.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
