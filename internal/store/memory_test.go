package store

import (
	"errors"
	"testing"
	"time"

	"github.com/mobilitydash/mobility-data-aggregation/internal/mobility"
)

func snapAt(location string, ts time.Time) mobility.Snapshot {
	return mobility.Snapshot{
		Location:     location,
		Timestamp:    ts,
		SourceStatus: map[string]mobility.SourceStatus{},
	}
}

func TestGetLatestEmpty(t *testing.T) {
	s := NewMemoryStore(0, 0)

	if _, err := s.GetLatest("dublin"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveAndGetLatest(t *testing.T) {
	s := NewMemoryStore(0, 0)
	now := time.Now().UTC()

	s.SaveSnapshot(snapAt("dublin", now.Add(-time.Hour)))
	s.SaveSnapshot(snapAt("dublin", now))

	latest, err := s.GetLatest("dublin")
	if err != nil {
		t.Fatalf("GetLatest() failed: %v", err)
	}
	if !latest.Timestamp.Equal(now) {
		t.Errorf("got %v, want %v", latest.Timestamp, now)
	}
}

func TestLocationKeyIsCaseInsensitive(t *testing.T) {
	s := NewMemoryStore(0, 0)
	s.SaveSnapshot(snapAt("Dublin", time.Now()))

	if _, err := s.GetLatest("dublin"); err != nil {
		t.Errorf("lookup should be case-insensitive: %v", err)
	}
}

func TestRetentionByCount(t *testing.T) {
	s := NewMemoryStore(2, 0)
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		s.SaveSnapshot(snapAt("dublin", base.Add(time.Duration(i)*time.Minute)))
	}

	all, err := s.GetRange("dublin", base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("GetRange() failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("retention should keep 2 snapshots, got %d", len(all))
	}
	if !all[len(all)-1].Timestamp.Equal(base.Add(4 * time.Minute)) {
		t.Errorf("newest snapshot should survive retention")
	}
}

func TestRetentionByAge(t *testing.T) {
	s := NewMemoryStore(0, time.Hour)
	now := time.Now().UTC()

	s.SaveSnapshot(snapAt("dublin", now.Add(-3*time.Hour)))
	s.SaveSnapshot(snapAt("dublin", now.Add(-2*time.Hour)))

	// Every stored snapshot is over the age limit, so the history is empty.
	if _, err := s.GetLatest("dublin"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired snapshots should not be served, got %v", err)
	}

	s.SaveSnapshot(snapAt("dublin", now))

	got, err := s.GetRange("dublin", now.Add(-4*time.Hour), now)
	if err != nil {
		t.Fatalf("GetRange() failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("stale snapshots should be trimmed, got %d", len(got))
	}
	if !got[0].Timestamp.Equal(now) {
		t.Errorf("wrong snapshot survived: %v", got[0].Timestamp)
	}
}

func TestGetRangeBounds(t *testing.T) {
	s := NewMemoryStore(0, 0)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		s.SaveSnapshot(snapAt("dublin", base.Add(time.Duration(i)*time.Hour)))
	}

	got, err := s.GetRange("dublin", base.Add(time.Hour), base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("GetRange() failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("range should be inclusive on both ends, got %d snapshots", len(got))
	}

	if _, err := s.GetRange("dublin", base.Add(10*time.Hour), base.Add(11*time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty range should be ErrNotFound, got %v", err)
	}
}
