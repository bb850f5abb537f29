package glomers_test

import (
	"context"
	"time"

	"github.com/arya-analytics/glomers"
	"github.com/arya-analytics/glomers/internal/cluster"
	"github.com/arya-analytics/glomers/internal/message"
	"github.com/arya-analytics/glomers/internal/node"
	"github.com/arya-analytics/glomers/mock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Node", func() {
	var (
		net    *mock.Network
		t      *mock.Transport
		n      *glomers.Node
		client *mock.Client
		errC   chan error
	)
	BeforeEach(func() {
		net = mock.NewNetwork()
		t = net.Route("n1")
		var err error
		n, err = glomers.Open(t, glomers.WithRetryInterval(10*time.Millisecond))
		Expect(err).ToNot(HaveOccurred())
		errC = make(chan error, 1)
		go func() {
			errC <- n.Run(context.Background())
			close(errC)
		}()
		client = net.Client("c1")
	})
	AfterEach(func() {
		Expect(t.Close()).To(Succeed())
		Expect(client.Close()).To(Succeed())
		Eventually(errC).Should(BeClosed())
	})
	requestFrom := func(c *mock.Client, p message.RequestPayload) message.Response {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		res, err := c.Request(ctx, "n1", p)
		ExpectWithOffset(1, err).ToNot(HaveOccurred())
		return res
	}
	request := func(p message.RequestPayload) message.Response { return requestFrom(client, p) }
	initialize := func() {
		res := request(message.Init{NodeID: "n1", NodeIDs: node.Group{"n3", "n1", "n2"}})
		ExpectWithOffset(1, res.Payload).To(Equal(message.InitOk{}))
	}
	read := func() []int64 {
		res := request(message.Read{})
		ExpectWithOffset(1, res.Type()).To(Equal(message.TypeReadOk))
		return res.Payload.(message.ReadOk).Messages
	}

	Describe("Echo", func() {
		It("Should return the payload verbatim before the handshake", func() {
			res := request(message.Echo{Echo: []byte(`{"a":[1,"b",null]}`)})
			Expect(res.Type()).To(Equal(message.TypeEchoOk))
			Expect(string(res.Payload.(message.EchoOk).Echo)).To(MatchJSON(`{"a":[1,"b",null]}`))
		})
	})

	Describe("Handshake", func() {
		It("Should answer requests before the handshake with a temporary error", func() {
			for _, p := range []message.RequestPayload{
				message.Generate{},
				message.Broadcast{Message: 1},
				message.Read{},
				message.Topology{Topology: map[node.ID]node.Group{"n1": {}}},
			} {
				e, ok := request(p).Err()
				Expect(ok).To(BeTrue())
				Expect(e.Code).To(Equal(message.CodeTemporarilyUnavailable))
			}
		})
		It("Should ignore a second init", func() {
			initialize()
			res := request(message.Init{NodeID: "n1", NodeIDs: node.Group{"n0", "n1"}})
			Expect(res.Payload).To(Equal(message.InitOk{}))
			Expect(request(message.Generate{}).Payload).To(Equal(message.GenerateOk{ID: 0}))
			Expect(request(message.Generate{}).Payload).To(Equal(message.GenerateOk{ID: 3}))
		})
		It("Should exit with an error when the host is not a member", func() {
			Expect(t.Send(context.Background(), message.Envelope{
				Source:      "c1",
				Destination: "n1",
				Body:        message.Request{ID: 1, Payload: message.Init{NodeID: "n1", NodeIDs: node.Group{"n2"}}},
			})).To(Succeed())
			var err error
			Eventually(errC).Should(Receive(&err))
			Expect(err).To(MatchError(cluster.ErrNotMember))
		})
	})

	Describe("Generate", func() {
		It("Should stride ids by the cluster size from the host's index", func() {
			initialize()
			Expect(request(message.Generate{}).Payload).To(Equal(message.GenerateOk{ID: 0}))
			Expect(request(message.Generate{}).Payload).To(Equal(message.GenerateOk{ID: 3}))
			Expect(request(message.Generate{}).Payload).To(Equal(message.GenerateOk{ID: 6}))
		})
	})

	Describe("Responses", func() {
		It("Should reply to the request's msg_id with a fresh msg_id", func() {
			initialize()
			a, b := request(message.Read{}), request(message.Read{})
			Expect(a.ID).ToNot(Equal(b.ID))
			Expect(b.InReplyTo).To(BeNumerically(">", a.InReplyTo))
		})
	})

	Describe("Broadcast", func() {
		It("Should store a value without a topology", func() {
			initialize()
			Expect(request(message.Broadcast{Message: 5}).Payload).To(Equal(message.BroadcastOk{}))
			Expect(read()).To(Equal([]int64{5}))
		})
		It("Should not forward a value back to its source", func() {
			initialize()
			peer := net.Client("n2")
			defer peer.Close()
			Expect(request(message.Topology{Topology: map[node.ID]node.Group{"n1": {"n2"}}}).Payload).
				To(Equal(message.TopologyOk{}))
			Expect(requestFrom(peer, message.Broadcast{Message: 42}).Payload).To(Equal(message.BroadcastOk{}))
			Expect(read()).To(Equal([]int64{42}))
			Consistently(peer.Requests, 50*time.Millisecond).Should(BeEmpty())
			Expect(n.Pending()).To(BeZero())
		})
		It("Should forward a new value to its neighbors until acknowledged", func() {
			initialize()
			peer := net.Client("n2")
			defer peer.Close()
			request(message.Topology{Topology: map[node.ID]node.Group{"n1": {"n2"}}})
			request(message.Broadcast{Message: 7})
			Eventually(func() int { return len(peer.Requests()) }).Should(BeNumerically(">=", 2))
			env := peer.Requests()[0]
			Expect(env.Source).To(Equal(node.ID("n1")))
			Expect(env.Body.(message.Request).Payload).To(Equal(message.Broadcast{Message: 7}))
			Expect(n.Pending()).To(Equal(1))
		})
		It("Should ignore duplicate values", func() {
			initialize()
			request(message.Broadcast{Message: 9})
			request(message.Broadcast{Message: 9})
			request(message.Broadcast{Message: 1})
			Expect(read()).To(Equal([]int64{1, 9}))
		})
	})

	Describe("Topology", func() {
		It("Should exit with an error when the host has no entry", func() {
			initialize()
			Expect(t.Send(context.Background(), message.Envelope{
				Source:      "c1",
				Destination: "n1",
				Body: message.Request{
					ID:      100,
					Payload: message.Topology{Topology: map[node.ID]node.Group{"n2": {"n1"}}},
				},
			})).To(Succeed())
			var err error
			Eventually(errC).Should(Receive(&err))
			Expect(err).To(MatchError(cluster.ErrNoTopologyEntry))
		})
	})

	Describe("Run", func() {
		It("Should exit cleanly at the end of its input", func() {
			initialize()
			Expect(t.Close()).To(Succeed())
			Eventually(errC).Should(Receive(BeNil()))
		})
	})
})
