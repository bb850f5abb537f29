package gossip_test

import (
	"context"
	"sync"

	"github.com/arya-analytics/glomers/internal/cluster"
	"github.com/arya-analytics/glomers/internal/cluster/gossip"
	"github.com/arya-analytics/glomers/internal/message"
	"github.com/arya-analytics/glomers/internal/node"
	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
)

type forward struct {
	from, to node.ID
	payload  message.RequestPayload
}

type deliverer struct {
	mu   sync.Mutex
	sent []forward
	err  error
}

func (d *deliverer) Send(_ context.Context, from, to node.ID, p message.RequestPayload) (message.ID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return 0, d.err
	}
	d.sent = append(d.sent, forward{from: from, to: to, payload: p})
	return message.ID(len(d.sent)), nil
}

func (d *deliverer) recipients() (ids node.Group) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, f := range d.sent {
		ids = append(ids, f.to)
	}
	return ids
}

var _ = Describe("Gossip", func() {
	var (
		ctx   = context.Background()
		state *cluster.State
		del   *deliverer
		g     *gossip.Gossip
	)
	BeforeEach(func() {
		state = cluster.New()
		del = &deliverer{}
		var err error
		g, err = gossip.New(gossip.Config{Store: state, Delivery: del, Logger: zap.NewNop()})
		Expect(err).ToNot(HaveOccurred())
	})

	It("Should require the handshake", func() {
		_, err := g.Receive(ctx, "c1", 1)
		Expect(errors.Is(err, cluster.ErrNotInitialized)).To(BeTrue())
	})

	Context("Initialized", func() {
		BeforeEach(func() {
			Expect(state.Init("n1", node.Group{"n1", "n2", "n3", "n4"})).To(Succeed())
		})
		It("Should forward a new value to every neighbor but the source", func() {
			Expect(state.SetNeighbors(map[node.ID]node.Group{"n1": {"n2", "n3", "n4"}})).To(Succeed())
			first, err := g.Receive(ctx, "n3", 42)
			Expect(err).ToNot(HaveOccurred())
			Expect(first).To(BeTrue())
			Expect(del.recipients()).To(ConsistOf(node.ID("n2"), node.ID("n4")))
			for _, f := range del.sent {
				Expect(f.from).To(Equal(node.ID("n1")))
				Expect(f.payload).To(Equal(message.Broadcast{Message: 42}))
			}
		})
		It("Should forward to every neighbor when the source is a client", func() {
			Expect(state.SetNeighbors(map[node.ID]node.Group{"n1": {"n2", "n3"}})).To(Succeed())
			_, err := g.Receive(ctx, "c7", 1)
			Expect(err).ToNot(HaveOccurred())
			Expect(del.recipients()).To(ConsistOf(node.ID("n2"), node.ID("n3")))
		})
		It("Should not forward a value it has already seen", func() {
			Expect(state.SetNeighbors(map[node.ID]node.Group{"n1": {"n2"}})).To(Succeed())
			_, err := g.Receive(ctx, "c1", 5)
			Expect(err).ToNot(HaveOccurred())
			for i := 0; i < 3; i++ {
				first, err := g.Receive(ctx, "c1", 5)
				Expect(err).ToNot(HaveOccurred())
				Expect(first).To(BeFalse())
			}
			Expect(del.recipients()).To(HaveLen(1))
			Expect(state.Values()).To(Equal([]int64{5}))
		})
		It("Should store without forwarding when the source is the only neighbor", func() {
			Expect(state.SetNeighbors(map[node.ID]node.Group{"n1": {"n2"}})).To(Succeed())
			first, err := g.Receive(ctx, "n2", 42)
			Expect(err).ToNot(HaveOccurred())
			Expect(first).To(BeTrue())
			Expect(del.recipients()).To(BeEmpty())
			Expect(state.Values()).To(Equal([]int64{42}))
		})
		It("Should store without forwarding before a topology arrives", func() {
			first, err := g.Receive(ctx, "c1", 3)
			Expect(err).ToNot(HaveOccurred())
			Expect(first).To(BeTrue())
			Expect(del.recipients()).To(BeEmpty())
		})
		It("Should never forward to itself", func() {
			Expect(state.SetNeighbors(map[node.ID]node.Group{"n1": {"n1", "n2"}})).To(Succeed())
			_, err := g.Receive(ctx, "c1", 3)
			Expect(err).ToNot(HaveOccurred())
			Expect(del.recipients()).To(Equal(node.Group{"n2"}))
		})
		It("Should return delivery failures", func() {
			Expect(state.SetNeighbors(map[node.ID]node.Group{"n1": {"n2"}})).To(Succeed())
			del.err = errors.New("broken pipe")
			_, err := g.Receive(ctx, "c1", 3)
			Expect(err).To(MatchError(ContainSubstring("broken pipe")))
		})
	})

	Describe("Config", func() {
		It("Should require a delivery", func() {
			_, err := gossip.New(gossip.Config{Store: state})
			Expect(err).To(MatchError("[gossip] - delivery required"))
		})
	})
})
