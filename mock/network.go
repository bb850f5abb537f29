// Package mock provides an in-memory network for running several nodes in a
// single process. Envelopes pass through the wire codec on every hop, and the
// network can be partitioned to drop traffic between groups of nodes.
package mock

import (
	"context"
	"io"
	"sync"

	"github.com/arya-analytics/glomers/internal/message"
	"github.com/arya-analytics/glomers/internal/node"
	"go.uber.org/atomic"
)

// InboxSize is the number of envelopes a Transport buffers before the network
// starts dropping traffic addressed to it.
const InboxSize = 4096

type Network struct {
	mu         sync.RWMutex
	routes     map[node.ID]*Transport
	partitions map[node.ID]int
	sent       atomic.Int64
	dropped    atomic.Int64
}

func NewNetwork() *Network {
	return &Network{routes: make(map[node.ID]*Transport)}
}

// Route returns the Transport for id, creating it if necessary.
func (n *Network) Route(id node.ID) *Transport {
	n.mu.Lock()
	defer n.mu.Unlock()
	if t, ok := n.routes[id]; ok {
		return t
	}
	t := &Transport{
		net:   n,
		ID:    id,
		inbox: make(chan message.Envelope, InboxSize),
		done:  make(chan struct{}),
	}
	n.routes[id] = t
	return t
}

// Partition splits the network into the given groups. Traffic between nodes
// in different groups is dropped. Endpoints not listed in any group, such as
// clients, still reach everyone.
func (n *Network) Partition(groups ...node.Group) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.partitions = make(map[node.ID]int)
	for i, g := range groups {
		for _, id := range g {
			n.partitions[id] = i + 1
		}
	}
}

// Heal removes all partitions.
func (n *Network) Heal() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.partitions = nil
}

// Sent returns the number of envelopes handed to the network, including those
// it dropped.
func (n *Network) Sent() int { return int(n.sent.Load()) }

// Dropped returns the number of envelopes lost to partitions or full inboxes.
func (n *Network) Dropped() int { return int(n.dropped.Load()) }

func (n *Network) reachable(from, to node.ID) bool {
	pf, okf := n.partitions[from]
	pt, okt := n.partitions[to]
	return !okf || !okt || pf == pt
}

func (n *Network) deliver(env message.Envelope) error {
	n.sent.Inc()
	b, err := message.Encode(env)
	if err != nil {
		return err
	}
	env, err = message.Decode(b)
	if err != nil {
		return err
	}
	n.mu.RLock()
	t, ok := n.routes[env.Destination]
	ok = ok && n.reachable(env.Source, env.Destination)
	n.mu.RUnlock()
	if !ok || !t.push(env) {
		n.dropped.Inc()
	}
	return nil
}

// Transport is a single endpoint on a Network. It implements
// glomers.Transport.
type Transport struct {
	net   *Network
	ID    node.ID
	inbox chan message.Envelope
	done  chan struct{}
	once  sync.Once
}

func (t *Transport) push(env message.Envelope) bool {
	select {
	case <-t.done:
		return false
	default:
	}
	select {
	case t.inbox <- env:
		return true
	default:
		return false
	}
}

// Receive implements glomers.Transport.
func (t *Transport) Receive(ctx context.Context) (message.Envelope, error) {
	select {
	case <-ctx.Done():
		return message.Envelope{}, ctx.Err()
	case <-t.done:
		return message.Envelope{}, io.EOF
	case env := <-t.inbox:
		return env, nil
	}
}

// Send implements glomers.Transport. Sending never fails because of the
// network; lost envelopes are silently dropped.
func (t *Transport) Send(_ context.Context, env message.Envelope) error {
	return t.net.deliver(env)
}

// Close ends the endpoint's input. Receive returns io.EOF afterwards.
func (t *Transport) Close() error {
	t.once.Do(func() { close(t.done) })
	return nil
}
