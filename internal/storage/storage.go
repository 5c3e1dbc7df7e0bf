// Package storage keeps the latest pipeline run's outputs in memory for the
// preview server. Exactly one writer (a pipeline run) and many readers (the
// HTTP handlers) are expected.
package storage

import (
	"sync"
	"time"

	"github.com/mthomas-dev/vaccine-analytics/internal/export"
)

// Results is the combined output of one pipeline run.
type Results struct {
	GeneratedAt time.Time
	KeyNumbers  map[string]string
	Artifacts   map[string]export.Table
	Diagnostics []string
}

// Storage provides access to the latest pipeline results.
type Storage interface {
	Latest() (Results, bool)
	Put(results Results)
}

// MemoryStorage keeps the latest results in memory and guards access with a
// RWMutex.
type MemoryStorage struct {
	mu      sync.RWMutex
	results Results
	hasRun  bool
}

// NewMemoryStorage initialises an empty results store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Latest returns a defensive copy of the most recent run's results. The
// second return is false until the first Put.
func (s *MemoryStorage) Latest() (Results, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasRun {
		return Results{}, false
	}
	return cloneResults(s.results), true
}

// Put replaces the stored results with a defensive copy of the provided run.
func (s *MemoryStorage) Put(results Results) {
	copied := cloneResults(results)

	s.mu.Lock()
	s.results = copied
	s.hasRun = true
	s.mu.Unlock()
}

func cloneResults(in Results) Results {
	out := Results{
		GeneratedAt: in.GeneratedAt,
		KeyNumbers:  make(map[string]string, len(in.KeyNumbers)),
		Artifacts:   make(map[string]export.Table, len(in.Artifacts)),
		Diagnostics: append([]string(nil), in.Diagnostics...),
	}
	for name, value := range in.KeyNumbers {
		out.KeyNumbers[name] = value
	}
	for name, table := range in.Artifacts {
		out.Artifacts[name] = table.Clone()
	}
	return out
}
