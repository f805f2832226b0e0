package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/mobilitydash/mobility-data-aggregation/internal/mobility"
)

// ErrNotFound is returned when no snapshot exists for a location.
var ErrNotFound = errors.New("no snapshots for location")

// snapshotHistory holds a time-ordered list of snapshots for one location.
type snapshotHistory struct {
	snapshots []mobility.Snapshot
}

// MemoryStore is a concurrency-safe in-memory history of aggregated
// snapshots, keyed by location. It backs the latest/history endpoints and
// is populated by the scheduler.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*snapshotHistory

	maxHistory int           // max snapshots per location, <= 0 means unlimited
	maxAge     time.Duration // max snapshot age, <= 0 means unlimited
}

// NewMemoryStore creates a MemoryStore with optional retention limits.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*snapshotHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

func locationKey(location string) string {
	return strings.ToLower(strings.TrimSpace(location))
}

// SaveSnapshot appends a snapshot under its location and enforces retention.
func (s *MemoryStore) SaveSnapshot(snap mobility.Snapshot) {
	key := locationKey(snap.Location)

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &snapshotHistory{}
		s.data[key] = history
	}

	history.snapshots = append(history.snapshots, snap)

	if s.maxHistory > 0 && len(history.snapshots) > s.maxHistory {
		over := len(history.snapshots) - s.maxHistory
		history.snapshots = history.snapshots[over:]
	}

	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.snapshots); i++ {
			if !history.snapshots[i].Timestamp.Before(cutoff) {
				break
			}
		}
		history.snapshots = history.snapshots[i:]
	}
}

// GetLatest returns the most recent snapshot for a location.
func (s *MemoryStore) GetLatest(location string) (mobility.Snapshot, error) {
	key := locationKey(location)

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.snapshots) == 0 {
		return mobility.Snapshot{}, ErrNotFound
	}
	return history.snapshots[len(history.snapshots)-1], nil
}

// GetRange returns all snapshots for a location between from and to,
// inclusive.
func (s *MemoryStore) GetRange(location string, from, to time.Time) ([]mobility.Snapshot, error) {
	key := locationKey(location)

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.snapshots) == 0 {
		return nil, ErrNotFound
	}

	var result []mobility.Snapshot
	for _, snap := range history.snapshots {
		if !snap.Timestamp.Before(from) && !snap.Timestamp.After(to) {
			result = append(result, snap)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
