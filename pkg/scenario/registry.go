// Package scenario tracks the current state of every named scenario.
//
// A scenario is a process-wide state machine advanced by matched contracts.
// Each scenario owns an independently synchronized state cell, so requests
// against different scenarios never contend; within one scenario, concurrent
// transitions are serialized by compare-and-swap semantics.
package scenario

import (
	"sort"
	"sync"

	"github.com/stubwire/stubwire/pkg/contract"
)

// Registry is the single source of truth for all scenario current-states.
// The zero value is not usable; create one with NewRegistry.
type Registry struct {
	mu    sync.RWMutex
	cells map[string]*cell
}

// cell holds one scenario's mutable state behind its own lock.
type cell struct {
	mu    sync.Mutex
	state string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{cells: make(map[string]*cell)}
}

// Ensure registers a scenario name, initializing its state to "Started" if it
// is not already tracked. Called at load time for every scenario referenced
// by a contract so that admin listings include untouched scenarios.
func (r *Registry) Ensure(name string) {
	if name == "" {
		return
	}
	r.getOrCreate(name)
}

// CurrentState returns the scenario's current state. An unknown scenario
// yields the "Started" sentinel without being registered; reads never mutate.
func (r *Registry) CurrentState(name string) string {
	r.mu.RLock()
	c := r.cells[name]
	r.mu.RUnlock()
	if c == nil {
		return contract.StateStarted
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transition atomically moves the scenario from `from` to `to`. It succeeds
// only if the current state still equals `from` at the moment of the call;
// otherwise it returns false and leaves the state untouched. This is the
// single concurrency-critical primitive in the engine.
func (r *Registry) Transition(name, from, to string) bool {
	c := r.getOrCreate(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != from {
		return false
	}
	c.state = to
	return true
}

// Reset sets one scenario back to "Started". Unknown names are a no-op.
func (r *Registry) Reset(name string) {
	r.mu.RLock()
	c := r.cells[name]
	r.mu.RUnlock()
	if c == nil {
		return
	}
	c.mu.Lock()
	c.state = contract.StateStarted
	c.mu.Unlock()
}

// ResetAll sets every tracked scenario back to "Started". Used between
// independent test runs.
func (r *Registry) ResetAll() {
	r.mu.RLock()
	cells := make([]*cell, 0, len(r.cells))
	for _, c := range r.cells {
		cells = append(cells, c)
	}
	r.mu.RUnlock()

	for _, c := range cells {
		c.mu.Lock()
		c.state = contract.StateStarted
		c.mu.Unlock()
	}
}

// Snapshot returns the current state of every tracked scenario. Each state is
// read atomically per scenario; the map as a whole is not a global atomic
// snapshot, which is fine: the engine re-validates the matched scenario's
// state via Transition before committing.
func (r *Registry) Snapshot() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	states := make(map[string]string, len(r.cells))
	for name, c := range r.cells {
		c.mu.Lock()
		states[name] = c.state
		c.mu.Unlock()
	}
	return states
}

// Names returns all tracked scenario names in sorted order for deterministic
// output.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.cells))
	for name := range r.cells {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) getOrCreate(name string) *cell {
	r.mu.RLock()
	c := r.cells[name]
	r.mu.RUnlock()
	if c != nil {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c = r.cells[name]; c == nil {
		c = &cell{state: contract.StateStarted}
		r.cells[name] = c
	}
	return c
}
