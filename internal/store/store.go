// Package store holds the working observation dataset in memory.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bird-map-service/internal/domain"
	"bird-map-service/internal/observability"
)

// Store is a read-mostly container for the working dataset. Snapshot hands
// out the current slice without copying; callers must treat it as
// read-only, which the filter pipeline guarantees. Append never modifies a
// slice a previous Snapshot returned, so in-flight filter calls keep a
// consistent view.
type Store struct {
	mu           sync.RWMutex
	observations []domain.Observation
	metrics      *observability.Metrics
}

// New creates a Store seeded with the loaded dataset.
func New(initial []domain.Observation, metrics *observability.Metrics) *Store {
	s := &Store{
		observations: append([]domain.Observation(nil), initial...),
		metrics:      metrics,
	}
	metrics.DatasetSize.Set(float64(len(s.observations)))
	return s
}

// Snapshot returns the current dataset. The returned slice is immutable by
// contract; it is never written to after publication.
func (s *Store) Snapshot() []domain.Observation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.observations
}

// Len returns the current dataset size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observations)
}

// Append adds a live-ingested sighting, re-applying the load-time
// invariants: year bounds and the count default. Copy-on-write keeps
// previously returned snapshots intact.
func (s *Store) Append(obs domain.Observation) error {
	if obs.ScientificName == "" {
		return errors.New("append observation: missing scientific name")
	}
	if obs.Year < domain.MinYear || obs.Year > domain.MaxYear {
		return fmt.Errorf("append observation: year %d outside dataset bounds [%d, %d]",
			obs.Year, domain.MinYear, domain.MaxYear)
	}
	if obs.Count < 0 {
		obs.Count = domain.DefaultCount
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]domain.Observation, 0, len(s.observations)+1)
	next = append(next, s.observations...)
	next = append(next, obs)
	s.observations = next
	s.metrics.DatasetSize.Set(float64(len(next)))
	return nil
}

// CheckReadiness reports nil once the dataset is present. Wired to the
// /readyz endpoint.
func (s *Store) CheckReadiness(_ context.Context) error {
	if s.Len() == 0 {
		return errors.New("dataset is empty")
	}
	return nil
}
