// Package engine matches incoming requests against the contract store,
// drives scenario state transitions, and renders stub responses.
package engine

import (
	"log/slog"
	"net/http"

	"github.com/stubwire/stubwire/internal/matching"
	"github.com/stubwire/stubwire/pkg/contract"
	"github.com/stubwire/stubwire/pkg/logging"
	"github.com/stubwire/stubwire/pkg/metrics"
	"github.com/stubwire/stubwire/pkg/scenario"
	"github.com/stubwire/stubwire/pkg/store"
)

// DefaultTransitionRetries bounds the match-and-transition cycle. Each retry
// re-runs selection against a fresh state snapshot, so concurrent traffic
// can invalidate at most this many attempts before the request fails with a
// ConflictError.
const DefaultTransitionRetries = 3

// nearMissLimit is how many near-miss candidates a NoMatchError carries.
const nearMissLimit = 3

// Engine resolves requests to contracts. It owns the matching loop and the
// compare-and-swap transition protocol; rendering and transport live in
// Handler.
type Engine struct {
	store      *store.ContractStore
	scenarios  *scenario.Registry
	log        *slog.Logger
	maxRetries int
}

// New creates an Engine over a loaded contract store. Every scenario
// referenced by a contract is registered with the state registry so that
// resets and snapshots see scenarios that have not yet transitioned.
func New(contracts *store.ContractStore, scenarios *scenario.Registry, log *slog.Logger) *Engine {
	if log == nil {
		log = logging.Nop()
	}
	for _, name := range contracts.Scenarios() {
		scenarios.Ensure(name)
	}
	return &Engine{
		store:      contracts,
		scenarios:  scenarios,
		log:        log,
		maxRetries: DefaultTransitionRetries,
	}
}

// SetTransitionRetries overrides the transition retry bound. Values below 1
// are ignored.
func (e *Engine) SetTransitionRetries(n int) {
	if n >= 1 {
		e.maxRetries = n
	}
}

// Scenarios returns the scenario state registry.
func (e *Engine) Scenarios() *scenario.Registry {
	return e.scenarios
}

// Store returns the contract store.
func (e *Engine) Store() *store.ContractStore {
	return e.store
}

// MatchResult describes a resolved request: the contract that will serve it
// and the scenario transition committed on its behalf, if any.
type MatchResult struct {
	Contract *contract.Contract

	// PathParams holds values captured from {param} path segments.
	PathParams map[string]string

	// PatternCaptures holds named regex captures from pathPattern matching.
	PatternCaptures map[string]string

	// StateFrom is the scenario state the contract matched in. Empty for
	// stateless contracts.
	StateFrom string

	// StateTo is the committed new scenario state. Empty when the contract
	// declares no transition.
	StateTo string
}

// Resolve finds the contract serving the request and commits its scenario
// transition atomically. The cycle is: snapshot scenario states, select the
// first eligible contract that fully matches, then compare-and-swap the
// scenario from its required state to its new state. A failed swap means a
// concurrent request moved the scenario after the snapshot; the whole cycle
// restarts against fresh state, bounded by the retry limit.
//
// Returns *NoMatchError when nothing matches and *ConflictError when the
// retry bound is exhausted.
func (e *Engine) Resolve(r *http.Request, body []byte) (*MatchResult, error) {
	var last *contract.Contract

	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		states := e.scenarios.Snapshot()

		match, captures := e.selectMatch(r, body, states)
		if match == nil {
			return nil, e.noMatch(r, body, states)
		}
		last = match

		result := &MatchResult{
			Contract:        match,
			PatternCaptures: captures,
		}
		if match.Request.Path != "" {
			result.PathParams = matching.PathVariables(match.Request.Path, r.URL.Path)
		}

		if match.Stateless() {
			return result, nil
		}

		from := match.EffectiveRequiredState()
		result.StateFrom = from

		// Scenario contract without a transition: served on the snapshot
		// state, nothing to commit.
		if match.NewState == "" {
			return result, nil
		}

		if e.scenarios.Transition(match.Scenario, from, match.NewState) {
			metrics.RecordTransition(match.Scenario)
			result.StateTo = match.NewState
			e.log.Debug("scenario transition committed",
				"scenario", match.Scenario,
				"from", from,
				"to", match.NewState,
				"contract_id", match.ID,
			)
			return result, nil
		}

		metrics.RecordTransitionConflict(match.Scenario)
		e.log.Debug("scenario transition conflict, retrying",
			"scenario", match.Scenario,
			"expected", from,
			"attempt", attempt,
		)
	}

	return nil, &ConflictError{
		Scenario:   last.Scenario,
		ContractID: last.ID,
		FromState:  last.EffectiveRequiredState(),
		ToState:    last.NewState,
		Attempts:   e.maxRetries,
	}
}

// selectMatch returns the first contract, in registration order, that is
// eligible under the given state snapshot and fully matches the request.
// Partial matches count for nothing.
func (e *Engine) selectMatch(r *http.Request, body []byte, states map[string]string) (*contract.Contract, map[string]string) {
	for _, c := range e.store.All() {
		if !c.Stateless() && states[c.Scenario] != c.EffectiveRequiredState() {
			continue
		}
		if ok, captures := matching.MatchesWithCaptures(c.Request, r, body); ok {
			return c, captures
		}
	}
	return nil, nil
}

// noMatch builds a NoMatchError with near-miss diagnostics, annotating
// contracts whose shape matched fully but whose scenario was in the wrong
// state.
func (e *Engine) noMatch(r *http.Request, body []byte, states map[string]string) *NoMatchError {
	nearMisses := matching.CollectNearMisses(e.store.All(), r, body, nearMissLimit)
	for i := range nearMisses {
		nm := &nearMisses[i]
		if nm.Scenario == "" {
			continue
		}
		current, ok := states[nm.Scenario]
		if !ok {
			current = contract.StateStarted
		}
		nm.CurrentState = current
		if nm.ShapeMatched && current != nm.RequiredState {
			nm.StateGated = true
		}
	}
	return &NoMatchError{
		Method:     r.Method,
		Path:       r.URL.Path,
		NearMisses: nearMisses,
	}
}
