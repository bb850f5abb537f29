package cluster

import (
	"math"

	"github.com/arya-analytics/glomers/internal/node"
	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NextID overflow", func() {
	It("Should refuse to wrap around the id space", func() {
		s := New()
		Expect(s.Init("n1", node.Group{"n1", "n2", "n3"})).To(Succeed())
		s.next.Store(math.MaxInt64 - 5)
		Expect(s.NextID()).To(Equal(int64(math.MaxInt64 - 5)))
		_, err := s.NextID()
		Expect(errors.Is(err, ErrIDSpaceExhausted)).To(BeTrue())
		_, err = s.NextID()
		Expect(errors.Is(err, ErrIDSpaceExhausted)).To(BeTrue())
	})
})
