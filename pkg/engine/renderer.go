package engine

import (
	"net/http"
	"strings"
	"time"

	"github.com/stubwire/stubwire/pkg/template"
)

// writeResponse renders the matched contract's response template and writes
// it. Returns the status code and rendered body for request logging.
func (h *Handler) writeResponse(w http.ResponseWriter, r *http.Request, bodyBytes []byte, result *MatchResult) (int, string) {
	resp := result.Contract.Response

	if resp.DelayMs > 0 {
		time.Sleep(time.Duration(resp.DelayMs) * time.Millisecond)
	}

	// Build the template context once, reuse for headers and body.
	tmplCtx := template.NewContext(r, bodyBytes)
	for k, v := range result.PathParams {
		tmplCtx.Request.PathParams[k] = v
	}
	for k, v := range result.PatternCaptures {
		tmplCtx.Request.PathParams[k] = v
	}
	if !result.Contract.Stateless() {
		tmplCtx.Scenario = template.ScenarioContext{
			Name:     result.Contract.Scenario,
			State:    result.StateFrom,
			NewState: result.StateTo,
		}
	}

	// Set headers with template expansion. Track whether the contract set
	// Content-Type explicitly so auto-detection knows not to override it.
	explicitContentType := false
	for name, value := range resp.Headers {
		w.Header().Set(name, h.templates.Process(value, tmplCtx))
		if strings.EqualFold(name, "Content-Type") {
			explicitContentType = true
		}
	}

	body := h.templates.Process(resp.Body, tmplCtx)

	if !explicitContentType && w.Header().Get("Content-Type") == "" {
		switch {
		case looksLikeJSON(body):
			w.Header().Set("Content-Type", "application/json")
		case looksLikeXML(body):
			w.Header().Set("Content-Type", "application/xml")
		default:
			w.Header().Set("Content-Type", "text/plain")
		}
	}

	w.WriteHeader(resp.StatusCode)
	if body != "" && r.Method != http.MethodHead {
		_, _ = w.Write([]byte(body))
	}
	return resp.StatusCode, body
}

// looksLikeJSON returns true if the string appears to be JSON content.
func looksLikeJSON(s string) bool {
	s = strings.TrimSpace(s)
	return (strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) ||
		(strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"))
}

// looksLikeXML returns true if the string appears to be XML content.
func looksLikeXML(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "<?xml") || strings.HasPrefix(s, "<")
}
