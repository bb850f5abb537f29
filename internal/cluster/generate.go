package cluster

import (
	"math"

	"github.com/cockroachdb/errors"
)

// NextID returns an id that no other member of the cluster will ever return.
//
// The member at index i of an N node cluster hands out i, i+N, i+2N, ... so
// the sequences of two members never intersect.
func (s *State) NextID() (int64, error) {
	stride := s.stride.Load()
	if stride == 0 {
		return 0, ErrNotInitialized
	}
	for {
		cur := s.next.Load()
		if cur > math.MaxInt64-stride {
			return 0, errors.Wrapf(ErrIDSpaceExhausted, "next id %d, stride %d", cur, stride)
		}
		if s.next.CAS(cur, cur+stride) {
			return cur, nil
		}
	}
}
