package engine

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/stubwire/stubwire/pkg/metrics"
	"github.com/stubwire/stubwire/pkg/requestlog"
)

// AdminAPI exposes runtime inspection and scenario control over HTTP. It is
// mounted under AdminPrefix on the stub handler and can also be served on a
// dedicated port.
type AdminAPI struct {
	engine    *Engine
	history   requestlog.Store
	startTime time.Time
	mux       *http.ServeMux
}

// NewAdminAPI creates the admin API for an engine. History may be nil.
func NewAdminAPI(engine *Engine, history requestlog.Store) *AdminAPI {
	a := &AdminAPI{
		engine:    engine,
		history:   history,
		startTime: time.Now(),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+AdminPrefix+"health", a.handleHealth)
	mux.HandleFunc("GET "+AdminPrefix+"scenarios", a.handleScenarios)
	mux.HandleFunc("POST "+AdminPrefix+"scenarios/reset", a.handleScenarioReset)
	mux.HandleFunc("GET "+AdminPrefix+"contracts", a.handleContracts)
	mux.HandleFunc("GET "+AdminPrefix+"requests", a.handleRequests)
	mux.HandleFunc("DELETE "+AdminPrefix+"requests", a.handleRequestsClear)
	mux.Handle("GET "+AdminPrefix+"metrics", metrics.Handler())
	// Standard exposition path for scrapers hitting the admin port directly.
	mux.Handle("GET /metrics", metrics.Handler())
	a.mux = mux
	return a
}

// ServeHTTP implements the http.Handler interface.
func (a *AdminAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func (a *AdminAPI) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"contracts":     a.engine.Store().Count(),
		"scenarios":     len(a.engine.Scenarios().Names()),
		"uptimeSeconds": int(time.Since(a.startTime).Seconds()),
	})
}

func (a *AdminAPI) handleScenarios(w http.ResponseWriter, _ *http.Request) {
	states := a.engine.Scenarios().Snapshot()
	scenarios := make([]map[string]string, 0, len(states))
	for _, name := range a.engine.Scenarios().Names() {
		scenarios = append(scenarios, map[string]string{
			"name":  name,
			"state": states[name],
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"scenarios": scenarios})
}

func (a *AdminAPI) handleScenarioReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scenario string `json:"scenario"`
	}
	if r.Body != nil {
		// An empty body means "reset everything"
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON", nil)
			return
		}
	}

	if req.Scenario != "" {
		a.engine.Scenarios().Reset(req.Scenario)
		metrics.RecordScenarioReset()
		writeJSON(w, http.StatusOK, map[string]any{"reset": []string{req.Scenario}})
		return
	}

	names := a.engine.Scenarios().Names()
	a.engine.Scenarios().ResetAll()
	metrics.RecordScenarioReset()
	writeJSON(w, http.StatusOK, map[string]any{"reset": names})
}

func (a *AdminAPI) handleContracts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"contracts": a.engine.Store().All(),
	})
}

func (a *AdminAPI) handleRequests(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeJSON(w, http.StatusOK, map[string]any{"requests": []any{}})
		return
	}

	q := r.URL.Query()
	filter := &requestlog.Filter{
		Method:    q.Get("method"),
		Path:      q.Get("path"),
		MatchedID: q.Get("contractId"),
		Scenario:  q.Get("scenario"),
		Unmatched: q.Get("unmatched") == "true",
	}
	if v := q.Get("status"); v != "" {
		if status, err := strconv.Atoi(v); err == nil {
			filter.StatusCode = status
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			filter.Limit = limit
		}
	}
	if v := q.Get("offset"); v != "" {
		if offset, err := strconv.Atoi(v); err == nil {
			filter.Offset = offset
		}
	}

	entries := a.history.List(filter)
	writeJSON(w, http.StatusOK, map[string]any{
		"requests": entries,
		"total":    a.history.Count(),
	})
}

func (a *AdminAPI) handleRequestsClear(w http.ResponseWriter, _ *http.Request) {
	if a.history != nil {
		a.history.Clear()
	}
	writeJSON(w, http.StatusOK, map[string]any{"cleared": true})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
