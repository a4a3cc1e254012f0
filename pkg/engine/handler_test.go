package engine

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stubwire/stubwire/pkg/config"
	"github.com/stubwire/stubwire/pkg/contract"
	"github.com/stubwire/stubwire/pkg/requestlog"
)

func newTestServer(t *testing.T, contracts []*contract.Contract) *Server {
	t.Helper()
	srv, err := NewServer(config.Default(), contracts,
		WithLogger(slogt.New(t)),
		WithHistory(requestlog.NewMemoryStore(100)),
	)
	require.NoError(t, err)
	return srv
}

func do(srv *Server, method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	r := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	return w
}

// Drinking a beer in each state advances the scenario and reports the
// transition in the rendered body.
func TestHandler_ScenarioProgression(t *testing.T) {
	t.Parallel()

	beer := func(required, from, to string) *contract.Contract {
		return &contract.Contract{
			Scenario:      "drunk",
			RequiredState: required,
			NewState:      to,
			Request: &contract.RequestMatcher{
				Method:       "POST",
				Path:         "/beer",
				BodyJSONPath: map[string]any{"$.name": "marcin"},
			},
			Response: &contract.ResponseTemplate{
				StatusCode: 200,
				Body:       `{"previousStatus":"` + from + `","currentStatus":"` + to + `"}`,
			},
		}
	}
	srv := newTestServer(t, []*contract.Contract{
		beer("", "SOBER", "TIPSY"),
		beer("TIPSY", "TIPSY", "DRUNK"),
		beer("DRUNK", "DRUNK", "WASTED"),
	})

	w := do(srv, "POST", "/beer", `{"name":"marcin"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"previousStatus":"SOBER","currentStatus":"TIPSY"}`, w.Body.String())

	w = do(srv, "POST", "/beer", `{"name":"marcin"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"previousStatus":"TIPSY","currentStatus":"DRUNK"}`, w.Body.String())

	w = do(srv, "POST", "/beer", `{"name":"marcin"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"previousStatus":"DRUNK","currentStatus":"WASTED"}`, w.Body.String())

	// The chain is exhausted
	w = do(srv, "POST", "/beer", `{"name":"marcin"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_TemplateRendering(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, []*contract.Contract{
		{
			Scenario: "greeting",
			NewState: "Greeted",
			Request:  &contract.RequestMatcher{Method: "POST", Path: "/hello"},
			Response: &contract.ResponseTemplate{
				StatusCode: 200,
				Headers:    map[string]string{"X-Scenario": "{{scenario.name}}"},
				Body:       `{"hello":"{{request.body.name}}","was":"{{scenario.state}}","now":"{{scenario.newState}}"}`,
			},
		},
	})

	w := do(srv, "POST", "/hello", `{"name":"ada"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "greeting", w.Header().Get("X-Scenario"))
	assert.JSONEq(t, `{"hello":"ada","was":"Started","now":"Greeted"}`, w.Body.String())
}

func TestHandler_NoMatch_Diagnostics(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, []*contract.Contract{
		{
			ID:            "gated",
			Scenario:      "flow",
			RequiredState: "Step1",
			Request:       &contract.RequestMatcher{Method: "POST", Path: "/go"},
			Response:      &contract.ResponseTemplate{StatusCode: 200},
		},
		{
			ID:       "shaped",
			Request:  &contract.RequestMatcher{Method: "POST", Path: "/go", BodyContains: "magic"},
			Response: &contract.ResponseTemplate{StatusCode: 200},
		},
	})

	w := do(srv, "POST", "/go", `{}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-Stubwire-Near-Misses"))

	var resp struct {
		Error      string           `json:"error"`
		StateGated []map[string]any `json:"stateGated"`
		NearMisses []map[string]any `json:"nearMisses"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "no_match", resp.Error)

	require.Len(t, resp.StateGated, 1)
	assert.Equal(t, "gated", resp.StateGated[0]["contractId"])

	require.Len(t, resp.NearMisses, 1)
	assert.Equal(t, "shaped", resp.NearMisses[0]["contractId"])
}

func TestHandler_ContentTypeDetection(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, []*contract.Contract{
		{
			Request:  &contract.RequestMatcher{Path: "/json"},
			Response: &contract.ResponseTemplate{StatusCode: 200, Body: `{"a":1}`},
		},
		{
			Request:  &contract.RequestMatcher{Path: "/xml"},
			Response: &contract.ResponseTemplate{StatusCode: 200, Body: `<?xml version="1.0"?><a/>`},
		},
		{
			Request:  &contract.RequestMatcher{Path: "/text"},
			Response: &contract.ResponseTemplate{StatusCode: 200, Body: "hello"},
		},
		{
			Request: &contract.RequestMatcher{Path: "/explicit"},
			Response: &contract.ResponseTemplate{
				StatusCode: 200,
				Headers:    map[string]string{"Content-Type": "application/vnd.custom+json"},
				Body:       `{"a":1}`,
			},
		},
	})

	assert.Equal(t, "application/json", do(srv, "GET", "/json", "").Header().Get("Content-Type"))
	assert.Equal(t, "application/xml", do(srv, "GET", "/xml", "").Header().Get("Content-Type"))
	assert.Equal(t, "text/plain", do(srv, "GET", "/text", "").Header().Get("Content-Type"))
	assert.Equal(t, "application/vnd.custom+json", do(srv, "GET", "/explicit", "").Header().Get("Content-Type"))
}

func TestHandler_RecordsHistory(t *testing.T) {
	t.Parallel()

	history := requestlog.NewMemoryStore(100)
	srv, err := NewServer(config.Default(), []*contract.Contract{
		{
			ID:       "ctr_hit",
			Scenario: "s",
			NewState: "Next",
			Request:  &contract.RequestMatcher{Method: "POST", Path: "/hit"},
			Response: &contract.ResponseTemplate{StatusCode: 201, Body: "ok"},
		},
	}, WithLogger(slogt.New(t)), WithHistory(history))
	require.NoError(t, err)

	do(srv, "POST", "/hit", `{"x":1}`)
	do(srv, "GET", "/miss", "")

	require.Equal(t, 2, history.Count())

	entries := history.List(&requestlog.Filter{Unmatched: true})
	require.Len(t, entries, 1)
	assert.Equal(t, "/miss", entries[0].Path)
	assert.Equal(t, http.StatusNotFound, entries[0].ResponseStatus)

	matched := history.List(&requestlog.Filter{MatchedID: "ctr_hit"})
	require.Len(t, matched, 1)
	assert.Equal(t, "Started", matched[0].StateFrom)
	assert.Equal(t, "Next", matched[0].StateTo)
	assert.Equal(t, 201, matched[0].ResponseStatus)
}

func TestAdminAPI(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, []*contract.Contract{
		{
			ID:       "step",
			Scenario: "flow",
			NewState: "Step1",
			Request:  &contract.RequestMatcher{Method: "POST", Path: "/step"},
			Response: &contract.ResponseTemplate{StatusCode: 200},
		},
	})

	t.Run("health", func(t *testing.T) {
		w := do(srv, "GET", "/__stubwire/health", "")
		require.Equal(t, http.StatusOK, w.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp["status"])
		assert.EqualValues(t, 1, resp["contracts"])
	})

	t.Run("scenarios reflect transitions", func(t *testing.T) {
		require.Equal(t, http.StatusOK, do(srv, "POST", "/step", "").Code)

		w := do(srv, "GET", "/__stubwire/scenarios", "")
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Scenarios []map[string]string `json:"scenarios"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Scenarios, 1)
		assert.Equal(t, "flow", resp.Scenarios[0]["name"])
		assert.Equal(t, "Step1", resp.Scenarios[0]["state"])
	})

	t.Run("reset all", func(t *testing.T) {
		w := do(srv, "POST", "/__stubwire/scenarios/reset", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, contract.StateStarted, srv.Engine().Scenarios().CurrentState("flow"))

		// The chain replays after reset
		assert.Equal(t, http.StatusOK, do(srv, "POST", "/step", "").Code)
	})

	t.Run("reset single scenario", func(t *testing.T) {
		w := do(srv, "POST", "/__stubwire/scenarios/reset", `{"scenario":"flow"}`)
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Reset []string `json:"reset"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, []string{"flow"}, resp.Reset)
	})

	t.Run("contracts", func(t *testing.T) {
		w := do(srv, "GET", "/__stubwire/contracts", "")
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Contracts []map[string]any `json:"contracts"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Contracts, 1)
		assert.Equal(t, "step", resp.Contracts[0]["id"])
	})

	t.Run("requests history", func(t *testing.T) {
		w := do(srv, "GET", "/__stubwire/requests?limit=5", "")
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Requests []map[string]any `json:"requests"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Requests)
	})

	t.Run("clear history", func(t *testing.T) {
		w := do(srv, "DELETE", "/__stubwire/requests", "")
		require.Equal(t, http.StatusOK, w.Code)
	})
}

func TestHandler_BodyTooLarge(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, []*contract.Contract{
		{Request: &contract.RequestMatcher{Path: "/x"}, Response: &contract.ResponseTemplate{StatusCode: 200}},
	})
	srv.handler.SetMaxBodyBytes(16)

	w := do(srv, "POST", "/x", strings.Repeat("a", 64))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
