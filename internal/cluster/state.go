// Package cluster holds the state a node learns about the cluster it belongs
// to: its own identity, the membership list, the neighbors it gossips with,
// and the broadcast values it has seen.
//
// Identity and membership are set exactly once by the handshake. Everything
// else is safe to read and mutate from any number of goroutines.
package cluster

import (
	"sync"

	"github.com/arya-analytics/glomers/internal/node"
	"github.com/cockroachdb/errors"
	"go.uber.org/atomic"
)

var (
	// ErrNotMember is returned by Init when the host does not appear in the
	// membership list.
	ErrNotMember = errors.New("[cluster] - host is not a member of the cluster")
	// ErrNotInitialized is returned by operations that need the handshake to
	// have completed.
	ErrNotInitialized = errors.New("[cluster] - handshake has not completed")
	// ErrNoTopologyEntry is returned by SetNeighbors when the topology has no
	// entry for the host.
	ErrNoTopologyEntry = errors.New("[cluster] - topology has no entry for host")
	// ErrIDSpaceExhausted is returned by NextID instead of wrapping around.
	ErrIDSpaceExhausted = errors.New("[cluster] - id space exhausted")
)

type State struct {
	mu      sync.RWMutex
	host    node.ID
	members node.Group
	// stride is the size of the membership. It is zero until the handshake
	// completes.
	stride atomic.Int64
	// next is the next id this node hands out.
	next      atomic.Int64
	neighbors *node.Group
	seen      seen
}

func New() *State { return &State{seen: seen{values: make(map[int64]struct{})}} }

// Init completes the handshake. The membership is sorted so that every node
// agrees on each member's index without communicating. Calls after the first
// successful one are ignored.
func (s *State) Init(host node.ID, ids node.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stride.Load() != 0 {
		return nil
	}
	members := ids.Sorted()
	index, ok := members.Index(host)
	if !ok {
		return errors.Wrapf(ErrNotMember, "node %s, members %v", host, members)
	}
	s.host = host
	s.members = members
	s.next.Store(int64(index))
	s.stride.Store(int64(len(members)))
	return nil
}

func (s *State) Initialized() bool { return s.stride.Load() != 0 }

func (s *State) Host() node.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.host
}

// Members returns the sorted membership.
func (s *State) Members() node.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.members.Copy()
}
