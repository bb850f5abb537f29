package cluster

import (
	"github.com/arya-analytics/glomers/internal/node"
	"github.com/cockroachdb/errors"
)

// SetNeighbors assigns the host's neighbors from the topology. The neighbor
// set never changes once assigned: later topologies are validated and then
// ignored.
func (s *State) SetNeighbors(topology map[node.ID]node.Group) error {
	if !s.Initialized() {
		return ErrNotInitialized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	neighbors, ok := topology[s.host]
	if !ok {
		return errors.Wrapf(ErrNoTopologyEntry, "node %s", s.host)
	}
	if s.neighbors == nil {
		n := neighbors.Copy()
		s.neighbors = &n
	}
	return nil
}

// Neighbors returns the host's neighbors. It returns an empty group until a
// topology has been received.
func (s *State) Neighbors() node.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.neighbors == nil {
		return nil
	}
	return s.neighbors.Copy()
}
