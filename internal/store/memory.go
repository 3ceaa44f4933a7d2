package store

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when no probe result is available.
	ErrNotFound = errors.New("no probe results recorded")
)

// ProbeResult is the outcome of one upstream reachability check.
type ProbeResult struct {
	Provider  string        `json:"provider"`
	Timestamp time.Time     `json:"timestamp"` // always UTC
	OK        bool          `json:"ok"`
	Latency   time.Duration `json:"latencyNs"`
	Records   int           `json:"records,omitempty"`
	Kind      string        `json:"kind,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// MemoryStore is a concurrency-safe, time-ordered history of probe results.
type MemoryStore struct {
	mu sync.RWMutex

	probes []ProbeResult

	// retention configuration
	maxHistory int           // max number of results kept
	maxAge     time.Duration // optional max age for results
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// Save appends a probe result and enforces retention.
func (s *MemoryStore) Save(result ProbeResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.probes = append(s.probes, result)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(s.probes) > s.maxHistory {
		over := len(s.probes) - s.maxHistory
		s.probes = append([]ProbeResult(nil), s.probes[over:]...)
	}

	// Enforce retention by age; the newest result is always kept.
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(s.probes)-1; i++ {
			if !s.probes[i].Timestamp.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			s.probes = append([]ProbeResult(nil), s.probes[i:]...)
		}
	}
}

// Latest returns the most recent probe result.
func (s *MemoryStore) Latest() (ProbeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.probes) == 0 {
		return ProbeResult{}, ErrNotFound
	}
	return s.probes[len(s.probes)-1], nil
}

// Range returns all probe results between from and to (inclusive).
func (s *MemoryStore) Range(from, to time.Time) ([]ProbeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []ProbeResult
	for _, p := range s.probes {
		if !p.Timestamp.Before(from) && !p.Timestamp.After(to) {
			result = append(result, p)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
