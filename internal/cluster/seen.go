package cluster

import (
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type seen struct {
	mu     sync.Mutex
	values map[int64]struct{}
}

// Observe records a broadcast value. It returns true only the first time v is
// observed.
func (s *State) Observe(v int64) bool {
	s.seen.mu.Lock()
	defer s.seen.mu.Unlock()
	if _, ok := s.seen.values[v]; ok {
		return false
	}
	s.seen.values[v] = struct{}{}
	return true
}

// Values returns an ascending snapshot of every value observed so far.
func (s *State) Values() []int64 {
	s.seen.mu.Lock()
	values := maps.Keys(s.seen.values)
	s.seen.mu.Unlock()
	slices.Sort(values)
	return values
}
