package message

import "go.uber.org/atomic"

// Sequence hands out message IDs. The zero value is ready to use and starts
// at zero.
type Sequence struct {
	next atomic.Int64
}

// Next returns an ID that has never been returned by this Sequence.
func (s *Sequence) Next() ID { return ID(s.next.Inc() - 1) }
