// Package store holds the set of registered contracts, loaded once at
// startup and read-only afterwards. Insertion order is preserved and used as
// matching precedence.
package store

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/stubwire/stubwire/internal/id"
	"github.com/stubwire/stubwire/pkg/contract"
	"github.com/stubwire/stubwire/pkg/logging"
)

// ContractStore is the read-only ordered collection of loaded contracts.
// Load must be called exactly once before serving; after that the store is
// immutable and safe for unsynchronized concurrent reads.
type ContractStore struct {
	contracts []*contract.Contract
	byID      map[string]*contract.Contract
	loaded    bool
	log       *slog.Logger
}

// NewContractStore creates an empty ContractStore. A nil logger falls back
// to a no-op logger.
func NewContractStore(log *slog.Logger) *ContractStore {
	if log == nil {
		log = logging.Nop()
	}
	return &ContractStore{
		byID: make(map[string]*contract.Contract),
		log:  log,
	}
}

// Load validates and registers the given contracts in order. It fails with a
// *contract.ConfigError on the first malformed contract, duplicate ID, or
// destructive precondition collision: two contracts in the same scenario
// requiring the same state with equivalent request shapes where both declare
// a state transition — the second could match instead of the first yet move
// the scenario somewhere else, so the configuration is rejected outright.
//
// Non-destructive duplicates of a (scenario, state) precondition are legal
// but flagged as a load-time warning: matching is still deterministic
// (first-registered wins), but the ordering dependence is usually an
// authoring mistake.
func (s *ContractStore) Load(contracts []*contract.Contract) error {
	if s.loaded {
		return fmt.Errorf("contract store already loaded")
	}

	type preKey struct {
		scenario string
		state    string
	}
	seen := make(map[preKey][]*contract.Contract)

	for i, c := range contracts {
		if c == nil {
			return &contract.ConfigError{
				ContractID: fmt.Sprintf("#%d", i),
				Message:    "contract is nil",
			}
		}
		if c.ID == "" {
			c.ID = id.Contract()
		}
		if _, exists := s.byID[c.ID]; exists {
			return &contract.ConfigError{
				ContractID: c.ID,
				Message:    "duplicate contract ID",
			}
		}
		if err := c.Validate(); err != nil {
			return err
		}

		if !c.Stateless() {
			key := preKey{scenario: c.Scenario, state: c.EffectiveRequiredState()}
			for _, prev := range seen[key] {
				if reflect.DeepEqual(prev.Request, c.Request) && prev.NewState != "" && c.NewState != "" {
					return &contract.ConfigError{
						ContractID: c.ID,
						Message: fmt.Sprintf(
							"destructive precondition collision with contract %q: scenario %q state %q, equivalent request shape, both transition state",
							prev.ID, c.Scenario, key.state),
					}
				}
				s.log.Warn("ambiguous contract precondition, first-registered wins",
					"scenario", c.Scenario,
					"state", key.state,
					"contract_id", c.ID,
					"shadowed_by", prev.ID,
				)
			}
			seen[key] = append(seen[key], c)
		}

		s.contracts = append(s.contracts, c)
		s.byID[c.ID] = c
	}

	s.loaded = true
	s.log.Info("contracts loaded", "count", len(s.contracts), "scenarios", len(s.Scenarios()))
	return nil
}

// All returns the loaded contracts in insertion order. The returned slice is
// shared; callers must not mutate it.
func (s *ContractStore) All() []*contract.Contract {
	return s.contracts
}

// Get returns a contract by ID, or nil if not found.
func (s *ContractStore) Get(contractID string) *contract.Contract {
	return s.byID[contractID]
}

// Count returns the number of loaded contracts.
func (s *ContractStore) Count() int {
	return len(s.contracts)
}

// Scenarios returns the distinct scenario names referenced by any loaded
// contract, in first-reference order.
func (s *ContractStore) Scenarios() []string {
	seen := make(map[string]bool)
	var names []string
	for _, c := range s.contracts {
		if c.Scenario != "" && !seen[c.Scenario] {
			seen[c.Scenario] = true
			names = append(names, c.Scenario)
		}
	}
	return names
}
