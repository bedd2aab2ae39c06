// Package store holds the most recently loaded snapshot of each resource collection.
package store

import (
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/pkg/metrics"
)

// Store keeps exactly one snapshot per resource type. Snapshots never expire;
// they are only replaced wholesale by the next successful load.
type Store struct {
	snapshots *cache.Cache
	metrics   *metrics.Metrics
}

func New(m *metrics.Metrics) *Store {
	if m == nil {
		m = metrics.NewNop()
	}
	return &Store{
		snapshots: cache.New(cache.NoExpiration, 0),
		metrics:   m,
	}
}

// Replace overwrites the snapshot for t. The slice is adopted as-is.
func (s *Store) Replace(t model.ResourceType, records []model.Record) {
	if records == nil {
		records = []model.Record{}
	}
	s.snapshots.Set(string(t), records, cache.NoExpiration)
	s.metrics.StoreRecords.WithLabelValues(string(t)).Set(float64(len(records)))
}

// Get returns the current snapshot for t, or an empty slice if nothing was loaded.
// Callers must not modify the returned slice.
func (s *Store) Get(t model.ResourceType) []model.Record {
	if v, ok := s.snapshots.Get(string(t)); ok {
		return v.([]model.Record)
	}
	return []model.Record{}
}

// Loaded reports whether a snapshot exists for t.
func (s *Store) Loaded(t model.ResourceType) bool {
	_, ok := s.snapshots.Get(string(t))
	return ok
}
