package engine

import (
	"fmt"

	"github.com/stubwire/stubwire/internal/matching"
)

// NoMatchError reports that no eligible contract matched a request. It
// carries near-miss diagnostics so callers can explain what almost matched.
type NoMatchError struct {
	Method string
	Path   string

	// NearMisses are the closest partial matches, best first. Entries with
	// StateGated set matched the request shape fully but were gated on a
	// scenario state the scenario was not in.
	NearMisses []matching.NearMiss
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no contract matched %s %s", e.Method, e.Path)
}

// ConflictError reports that the match-and-transition cycle could not commit
// a scenario transition within the retry bound: every attempt, some
// concurrent request moved the scenario state between match and commit.
type ConflictError struct {
	Scenario   string
	ContractID string
	FromState  string
	ToState    string
	Attempts   int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("scenario %q transition %s -> %s conflicted %d times (contract %s)",
		e.Scenario, e.FromState, e.ToState, e.Attempts, e.ContractID)
}
