// Package store holds the drive samples of a run in memory.
package store

import (
	"sort"
	"sync"
	"time"

	"cellsim/internal/model"
)

// Store holds drive samples sorted by timestamp.
type Store struct {
	mu      sync.RWMutex
	samples []model.Sample
}

func New() *Store {
	return &Store{}
}

// AddSamples adds samples, then sorts by timestamp. A sample with the same
// timestamp as an existing one replaces it.
func (s *Store) AddSamples(samples []model.Sample) {
	if len(samples) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.samples = append(s.samples, samples...)
	sort.SliceStable(s.samples, func(i, j int) bool {
		return s.samples[i].Timestamp.Before(s.samples[j].Timestamp)
	})

	// keep the last added sample per timestamp
	out := s.samples[:0]
	for i, smp := range s.samples {
		if i+1 < len(s.samples) && s.samples[i+1].Timestamp.Equal(smp.Timestamp) {
			continue
		}
		out = append(out, smp)
	}
	s.samples = out
}

// Len returns the number of samples.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples)
}

// TimeRange returns the time range covered by the samples.
func (s *Store) TimeRange() (model.TimeRange, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.samples) == 0 {
		return model.TimeRange{}, false
	}
	return model.TimeRange{
		Start: s.samples[0].Timestamp,
		End:   s.samples[len(s.samples)-1].Timestamp,
	}, true
}

// SamplesInRange returns samples between start (inclusive) and end (exclusive).
func (s *Store) SamplesInRange(start, end time.Time) []model.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	startIdx := sort.Search(len(s.samples), func(i int) bool {
		return !s.samples[i].Timestamp.Before(start)
	})
	endIdx := sort.Search(len(s.samples), func(i int) bool {
		return !s.samples[i].Timestamp.Before(end)
	})
	if startIdx >= endIdx {
		return nil
	}

	result := make([]model.Sample, endIdx-startIdx)
	copy(result, s.samples[startIdx:endIdx])
	return result
}

// SampleAt returns the most recent sample at or before t.
func (s *Store) SampleAt(t time.Time) (model.Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Find first sample after t
	idx := sort.Search(len(s.samples), func(i int) bool {
		return s.samples[i].Timestamp.After(t)
	})
	if idx == 0 {
		return model.Sample{}, false
	}
	return s.samples[idx-1], true
}
