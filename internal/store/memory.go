package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/weather-display/internal/weather"
)

// ErrNotFound is returned when no snapshot is recorded for a location.
var ErrNotFound = errors.New("no snapshot for location")

// MemoryStore keeps the summaries of displayed snapshots per location,
// ordered by timestamp and bounded by count and age.
type MemoryStore struct {
	mu      sync.RWMutex
	history map[string][]weather.SnapshotSummary

	maxHistory int
	maxAge     time.Duration
	now        func() time.Time
}

// NewMemoryStore creates a store. Zero limits mean unbounded.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		history:    make(map[string][]weather.SnapshotSummary),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveSnapshot records a summary in timestamp order and applies retention.
func (s *MemoryStore) SaveSnapshot(summary weather.SnapshotSummary) {
	key := summary.Location.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.history[key]
	i := sort.Search(len(list), func(i int) bool { return list[i].Timestamp.After(summary.Timestamp) })
	list = append(list, weather.SnapshotSummary{})
	copy(list[i+1:], list[i:])
	list[i] = summary

	s.history[key] = s.retain(list)
}

// retain drops the oldest summaries beyond the limits. The newest one
// always survives.
func (s *MemoryStore) retain(list []weather.SnapshotSummary) []weather.SnapshotSummary {
	if s.maxHistory > 0 && len(list) > s.maxHistory {
		list = list[len(list)-s.maxHistory:]
	}
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := sort.Search(len(list), func(i int) bool { return !list[i].Timestamp.Before(cutoff) })
		list = list[min(i, len(list)-1):]
	}
	return list
}

// GetLatest returns the newest summary for a location.
func (s *MemoryStore) GetLatest(loc weather.Location) (weather.SnapshotSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.history[loc.Key()]
	if len(list) == 0 {
		return weather.SnapshotSummary{}, ErrNotFound
	}
	return list[len(list)-1], nil
}

// GetRange returns the summaries for a location with from <= ts <= to.
func (s *MemoryStore) GetRange(loc weather.Location, from, to time.Time) ([]weather.SnapshotSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.history[loc.Key()]
	lo := sort.Search(len(list), func(i int) bool { return !list[i].Timestamp.Before(from) })
	hi := sort.Search(len(list), func(i int) bool { return list[i].Timestamp.After(to) })
	if lo >= hi {
		return nil, ErrNotFound
	}
	return append([]weather.SnapshotSummary(nil), list[lo:hi]...), nil
}
