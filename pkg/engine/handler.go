// Core HTTP request handler for the stub engine.

package engine

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"strconv"
	"time"

	"github.com/stubwire/stubwire/pkg/logging"
	"github.com/stubwire/stubwire/pkg/metrics"
	"github.com/stubwire/stubwire/pkg/requestlog"
	"github.com/stubwire/stubwire/pkg/template"
)

// MaxRequestBodySize is the maximum allowed request body size for contract
// matching (10MB). Prevents denial-of-service via oversized request bodies.
const MaxRequestBodySize = 10 << 20

// AdminPrefix is the reserved path prefix for the built-in admin API.
const AdminPrefix = "/__stubwire/"

// Handler serves stub traffic: it resolves each request through the Engine
// and renders the matched contract's response.
type Handler struct {
	engine    *Engine
	templates *template.Engine
	history   requestlog.Store
	log       *slog.Logger
	admin     http.Handler

	maxBodyBytes int64
}

// NewHandler creates a Handler over the given engine.
func NewHandler(engine *Engine) *Handler {
	return &Handler{
		engine:       engine,
		templates:    template.New(),
		log:          logging.Nop(),
		maxBodyBytes: MaxRequestBodySize,
	}
}

// SetHistory sets the request history store. Nil disables history.
func (h *Handler) SetHistory(history requestlog.Store) {
	h.history = history
}

// SetLogger sets the operational logger for error/warning messages.
func (h *Handler) SetLogger(log *slog.Logger) {
	if log != nil {
		h.log = log
	} else {
		h.log = logging.Nop()
	}
}

// SetAdmin mounts an admin API under AdminPrefix on this handler.
func (h *Handler) SetAdmin(admin http.Handler) {
	h.admin = admin
}

// SetMaxBodyBytes overrides the request body size limit.
func (h *Handler) SetMaxBodyBytes(n int64) {
	if n > 0 {
		h.maxBodyBytes = n
	}
}

// ServeHTTP implements the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	// The admin prefix always takes priority over contract matching.
	if h.admin != nil && len(r.URL.Path) >= len(AdminPrefix) && r.URL.Path[:len(AdminPrefix)] == AdminPrefix {
		h.admin.ServeHTTP(w, r)
		return
	}

	// Enforce the body limit with MaxBytesReader, which errors when the
	// limit is exceeded instead of silently truncating.
	var bodyBytes []byte
	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
		var err error
		bodyBytes, err = io.ReadAll(r.Body)
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				h.log.Warn("request body too large", "path", r.URL.Path, "limit", h.maxBodyBytes)
				writeJSONError(w, http.StatusRequestEntityTooLarge, "body_too_large",
					"Request body exceeds maximum allowed size", nil)
				h.logRequest(startTime, r, nil, nil, http.StatusRequestEntityTooLarge, "", nil)
				metrics.RecordRequest(r.Method, metrics.OutcomeError, time.Since(startTime))
				return
			}
			h.log.Warn("failed to read request body", "path", r.URL.Path, "error", err)
		}
	}

	headers := make(map[string][]string)
	maps.Copy(headers, r.Header)

	result, err := h.engine.Resolve(r, bodyBytes)
	if err != nil {
		var noMatch *NoMatchError
		var conflict *ConflictError
		switch {
		case errors.As(err, &noMatch):
			status := h.writeNoMatch(w, r, noMatch)
			h.logRequest(startTime, r, headers, bodyBytes, status, "", noMatch)
			metrics.RecordRequest(r.Method, metrics.OutcomeNoMatch, time.Since(startTime))
		case errors.As(err, &conflict):
			h.log.Warn("scenario transition conflict",
				"scenario", conflict.Scenario,
				"contract_id", conflict.ContractID,
				"attempts", conflict.Attempts,
			)
			writeJSONError(w, http.StatusConflict, "transition_conflict",
				"Concurrent scenario transitions exceeded the retry bound", map[string]any{
					"scenario":  conflict.Scenario,
					"fromState": conflict.FromState,
					"toState":   conflict.ToState,
					"attempts":  conflict.Attempts,
				})
			h.logRequest(startTime, r, headers, bodyBytes, http.StatusConflict, conflict.Error(), nil)
			metrics.RecordRequest(r.Method, metrics.OutcomeConflict, time.Since(startTime))
		default:
			h.log.Error("resolve failed", "path", r.URL.Path, "error", err)
			writeJSONError(w, http.StatusInternalServerError, "internal_error", err.Error(), nil)
			h.logRequest(startTime, r, headers, bodyBytes, http.StatusInternalServerError, err.Error(), nil)
			metrics.RecordRequest(r.Method, metrics.OutcomeError, time.Since(startTime))
		}
		return
	}

	h.log.Debug("request matched",
		"method", r.Method,
		"path", r.URL.Path,
		"contract_id", result.Contract.ID,
		"scenario", result.Contract.Scenario,
	)

	status, responseBody := h.writeResponse(w, r, bodyBytes, result)
	h.logMatched(startTime, r, headers, bodyBytes, status, responseBody, result)
	metrics.RecordRequest(r.Method, metrics.OutcomeMatched, time.Since(startTime))
}

// writeNoMatch writes the 404 diagnostics response. When no contract even
// partially matched, the built-in health path still answers so a bare server
// is probeable.
func (h *Handler) writeNoMatch(w http.ResponseWriter, r *http.Request, noMatch *NoMatchError) int {
	if r.URL.Path == "/health" && len(noMatch.NearMisses) == 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
		return http.StatusOK
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Stubwire-Near-Misses", strconv.Itoa(len(noMatch.NearMisses)))
	w.WriteHeader(http.StatusNotFound)

	errResp := map[string]any{
		"error":   "no_match",
		"message": "No contract matched the request",
		"method":  noMatch.Method,
		"path":    noMatch.Path,
	}
	var stateGated, shapeMisses []any
	for _, nm := range noMatch.NearMisses {
		if nm.StateGated {
			stateGated = append(stateGated, nm)
		} else {
			shapeMisses = append(shapeMisses, nm)
		}
	}
	if len(stateGated) > 0 {
		errResp["stateGated"] = stateGated
	}
	if len(shapeMisses) > 0 {
		errResp["nearMisses"] = shapeMisses
	}

	if jsonBytes, err := json.Marshal(errResp); err == nil {
		_, _ = w.Write(jsonBytes)
	} else {
		_, _ = w.Write([]byte(`{"error": "no_match", "message": "No contract matched the request"}`))
	}
	return http.StatusNotFound
}

// logMatched records a served request in the history store.
func (h *Handler) logMatched(startTime time.Time, r *http.Request, headers map[string][]string, bodyBytes []byte, status int, responseBody string, result *MatchResult) {
	if h.history == nil {
		return
	}
	entry := h.newEntry(startTime, r, headers, bodyBytes, status)
	entry.MatchedContractID = result.Contract.ID
	entry.Scenario = result.Contract.Scenario
	entry.ResponseBody = requestlog.Truncate(responseBody)
	if result.StateTo != "" {
		entry.StateFrom = result.StateFrom
		entry.StateTo = result.StateTo
	}
	h.history.Log(entry)
}

// logRequest records an unmatched or failed request in the history store.
func (h *Handler) logRequest(startTime time.Time, r *http.Request, headers map[string][]string, bodyBytes []byte, status int, errMsg string, noMatch *NoMatchError) {
	if h.history == nil {
		return
	}
	entry := h.newEntry(startTime, r, headers, bodyBytes, status)
	entry.Error = errMsg
	if noMatch != nil {
		for _, nm := range noMatch.NearMisses {
			entry.NearMisses = append(entry.NearMisses, requestlog.NearMissInfo{
				ContractID:      nm.ContractID,
				ContractName:    nm.ContractName,
				StateGated:      nm.StateGated,
				MatchPercentage: nm.MatchPercentage,
				Reason:          nm.Reason,
			})
		}
	}
	h.history.Log(entry)
}

func (h *Handler) newEntry(startTime time.Time, r *http.Request, headers map[string][]string, bodyBytes []byte, status int) *requestlog.Entry {
	return &requestlog.Entry{
		Timestamp:      startTime,
		Method:         r.Method,
		Path:           r.URL.Path,
		QueryString:    r.URL.RawQuery,
		Headers:        headers,
		Body:           requestlog.Truncate(string(bodyBytes)),
		BodySize:       len(bodyBytes),
		RemoteAddr:     r.RemoteAddr,
		ResponseStatus: status,
		DurationMs:     int(time.Since(startTime).Milliseconds()),
	}
}

// writeJSONError writes a JSON error envelope with optional detail fields.
func writeJSONError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := map[string]any{
		"error":   code,
		"message": message,
	}
	for k, v := range details {
		resp[k] = v
	}
	if jsonBytes, err := json.Marshal(resp); err == nil {
		_, _ = w.Write(jsonBytes)
	}
}
