// Package requestlog records request/response history for inspection via
// the admin API. Entries capture what matched, what state transition was
// applied, and near-miss diagnostics for unmatched requests.
package requestlog

import "time"

// MaxBodyCapture caps how much of a request or response body an entry keeps.
const MaxBodyCapture = 10 * 1024

// Entry captures the details of one handled request.
type Entry struct {
	// ID is a unique identifier for the log entry.
	ID string `json:"id"`

	// Timestamp is when the request was received.
	Timestamp time.Time `json:"timestamp"`

	// Method is the HTTP method.
	Method string `json:"method"`

	// Path is the request URL path.
	Path string `json:"path"`

	// QueryString is the raw query string.
	QueryString string `json:"queryString,omitempty"`

	// Headers are the request headers (multi-value).
	Headers map[string][]string `json:"headers,omitempty"`

	// Body is the request body content (truncated if > MaxBodyCapture).
	Body string `json:"body,omitempty"`

	// BodySize is the original body size in bytes.
	BodySize int `json:"bodySize"`

	// RemoteAddr is the client address.
	RemoteAddr string `json:"remoteAddr"`

	// MatchedContractID is the ID of the contract that served the request
	// (empty if no match).
	MatchedContractID string `json:"matchedContractId,omitempty"`

	// Scenario is the scenario of the matched contract, if any.
	Scenario string `json:"scenario,omitempty"`

	// StateFrom / StateTo record the scenario transition applied by this
	// request. Both empty when the matched contract was stateless or did
	// not advance the scenario.
	StateFrom string `json:"stateFrom,omitempty"`
	StateTo   string `json:"stateTo,omitempty"`

	// ResponseStatus is the HTTP status code returned.
	ResponseStatus int `json:"responseStatus"`

	// ResponseBody is the response body content (truncated if > MaxBodyCapture).
	ResponseBody string `json:"responseBody,omitempty"`

	// DurationMs is the request processing time in milliseconds.
	DurationMs int `json:"durationMs"`

	// Error contains an error message if the request failed.
	Error string `json:"error,omitempty"`

	// NearMisses summarizes partial matches for unmatched requests.
	NearMisses []NearMissInfo `json:"nearMisses,omitempty"`
}

// NearMissInfo is a log-friendly summary of a near-miss match.
// Stored on entries for unmatched requests.
type NearMissInfo struct {
	// ContractID is the ID of the contract that partially matched.
	ContractID string `json:"contractId"`

	// ContractName is the display name of the contract (may be empty).
	ContractName string `json:"contractName,omitempty"`

	// StateGated is true when the request shape matched but the scenario
	// was in the wrong state.
	StateGated bool `json:"stateGated"`

	// MatchPercentage is how close the match was (0-100).
	MatchPercentage int `json:"matchPercentage"`

	// Reason is a human-readable explanation of why it didn't fully match.
	Reason string `json:"reason"`
}

// Truncate returns s capped at MaxBodyCapture bytes with a marker appended.
func Truncate(s string) string {
	if len(s) <= MaxBodyCapture {
		return s
	}
	return s[:MaxBodyCapture] + "... (truncated)"
}
