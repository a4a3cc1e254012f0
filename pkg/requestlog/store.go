package requestlog

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store defines the interface for request history storage.
// Implementations store request/response entries for inspection via the
// admin API.
type Store interface {
	// Log records a request log entry.
	Log(entry *Entry)

	// Get retrieves a log entry by ID.
	Get(id string) *Entry

	// List returns log entries newest-first, optionally filtered.
	List(filter *Filter) []*Entry

	// Clear removes all log entries.
	Clear()

	// Count returns the number of log entries.
	Count() int
}

// Filter defines criteria for filtering request logs.
type Filter struct {
	// Method filters by HTTP method.
	Method string

	// Path filters by path prefix.
	Path string

	// MatchedID filters by matched contract ID.
	MatchedID string

	// Scenario filters by scenario name.
	Scenario string

	// StatusCode filters by response status code.
	StatusCode int

	// Unmatched selects only entries that no contract served.
	Unmatched bool

	// Limit is the maximum number of entries to return (0 = no limit).
	Limit int

	// Offset is the number of entries to skip.
	Offset int
}

// MemoryStore implements Store with a bounded in-memory buffer.
// Oldest entries are evicted first once the capacity is reached.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    []*Entry
	maxEntries int
}

// NewMemoryStore creates a MemoryStore with the given capacity.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &MemoryStore{
		entries:    make([]*Entry, 0, maxEntries),
		maxEntries: maxEntries,
	}
}

// Log records a request log entry.
func (s *MemoryStore) Log(entry *Entry) {
	if entry == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	// FIFO eviction: drop oldest at capacity
	if len(s.entries) >= s.maxEntries {
		s.entries = s.entries[1:]
	}
	s.entries = append(s.entries, entry)
}

// Get retrieves a log entry by ID.
func (s *MemoryStore) Get(id string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.entries {
		if entry.ID == id {
			return entry
		}
	}
	return nil
}

// List returns log entries newest-first, optionally filtered.
func (s *MemoryStore) List(filter *Filter) []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Entry, 0, len(s.entries))
	skipped := 0
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if filter != nil {
			if !matchesFilter(entry, filter) {
				continue
			}
			if skipped < filter.Offset {
				skipped++
				continue
			}
			if filter.Limit > 0 && len(result) >= filter.Limit {
				break
			}
		}
		result = append(result, entry)
	}
	return result
}

// Clear removes all log entries.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.entries[:0]
}

// Count returns the number of log entries.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func matchesFilter(entry *Entry, filter *Filter) bool {
	if filter.Method != "" && !strings.EqualFold(entry.Method, filter.Method) {
		return false
	}
	if filter.Path != "" && !strings.HasPrefix(entry.Path, filter.Path) {
		return false
	}
	if filter.MatchedID != "" && entry.MatchedContractID != filter.MatchedID {
		return false
	}
	if filter.Scenario != "" && entry.Scenario != filter.Scenario {
		return false
	}
	if filter.StatusCode != 0 && entry.ResponseStatus != filter.StatusCode {
		return false
	}
	if filter.Unmatched && entry.MatchedContractID != "" {
		return false
	}
	return true
}
