package mock

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/arya-analytics/glomers"
	"github.com/arya-analytics/glomers/internal/message"
	"github.com/arya-analytics/glomers/internal/node"
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// AdminID is the id of the client a Builder uses to drive the handshake.
const AdminID node.ID = "c0"

type NodeInfo struct {
	Node      *glomers.Node
	Transport *Transport
}

// Builder opens and runs nodes over a shared in-memory Network.
type Builder struct {
	Network        *Network
	DefaultOptions []glomers.Option
	Nodes          map[node.ID]NodeInfo
	mu             sync.Mutex
	admin          *Client
	runs           errgroup.Group
}

func NewMemBuilder(defaultOpts ...glomers.Option) *Builder {
	net := NewNetwork()
	return &Builder{
		Network: net,
		DefaultOptions: append([]glomers.Option{
			glomers.WithRetryInterval(10 * time.Millisecond),
		}, defaultOpts...),
		Nodes: make(map[node.ID]NodeInfo),
		admin: net.Client(AdminID),
	}
}

// New opens a node with the given id and starts running it. The node does
// not know its id until it is initialized.
func (b *Builder) New(id node.ID, opts ...glomers.Option) (*glomers.Node, error) {
	t := b.Network.Route(id)
	n, err := glomers.Open(t, append(b.DefaultOptions, opts...)...)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.Nodes[id] = NodeInfo{Node: n, Transport: t}
	b.mu.Unlock()
	b.runs.Go(func() error {
		return errors.Wrapf(n.Run(context.Background()), "[mock] - node %s failed", id)
	})
	return n, nil
}

// Cluster opens count nodes named n0, n1, ... and completes the handshake
// with each of them.
func (b *Builder) Cluster(ctx context.Context, count int) (node.Group, error) {
	ids := make(node.Group, count)
	for i := range ids {
		ids[i] = node.ID("n" + strconv.Itoa(i))
		if _, err := b.New(ids[i]); err != nil {
			return nil, err
		}
	}
	return ids, b.Init(ctx, ids)
}

// Init sends the handshake to every node in ids.
func (b *Builder) Init(ctx context.Context, ids node.Group) error {
	for _, id := range ids {
		if err := b.expect(ctx, id, message.Init{NodeID: id, NodeIDs: ids}); err != nil {
			return err
		}
	}
	return nil
}

// Topology sends the same topology to every node in it.
func (b *Builder) Topology(ctx context.Context, topology map[node.ID]node.Group) error {
	for id := range topology {
		if err := b.expect(ctx, id, message.Topology{Topology: topology}); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) expect(ctx context.Context, id node.ID, req message.RequestPayload) error {
	res, err := b.admin.Request(ctx, id, req)
	if err != nil {
		return err
	}
	if e, ok := res.Err(); ok {
		return errors.Newf("[mock] - %s rejected %s: %s", id, res.Type(), e.Text)
	}
	return nil
}

// Stop ends the input of every node and waits for them to exit. It returns
// the first error a node exited with.
func (b *Builder) Stop() error {
	b.mu.Lock()
	for _, info := range b.Nodes {
		_ = info.Transport.Close()
	}
	b.mu.Unlock()
	_ = b.admin.Close()
	return b.runs.Wait()
}

// Line connects each node to its predecessor and successor in ids.
func Line(ids node.Group) map[node.ID]node.Group {
	top := make(map[node.ID]node.Group, len(ids))
	for i, id := range ids {
		var neighbors node.Group
		if i > 0 {
			neighbors = append(neighbors, ids[i-1])
		}
		if i < len(ids)-1 {
			neighbors = append(neighbors, ids[i+1])
		}
		top[id] = neighbors
	}
	return top
}

// Full connects every node to every other node.
func Full(ids node.Group) map[node.ID]node.Group {
	top := make(map[node.ID]node.Group, len(ids))
	for _, id := range ids {
		top[id] = ids.WhereNot(id)
	}
	return top
}
