// Package gossip diffuses broadcast values through the cluster. A value is
// forwarded by every node the first time it sees it, to every neighbor but
// the one it came from, so each node's set of values converges as long as the
// topology is connected.
package gossip

import (
	"context"

	"github.com/arya-analytics/glomers/internal/cluster"
	"github.com/arya-analytics/glomers/internal/message"
	"github.com/arya-analytics/glomers/internal/node"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

type Gossip struct {
	Config
}

func New(cfg Config) (*Gossip, error) {
	cfg = cfg.Merge(DefaultConfig())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Gossip{Config: cfg}, nil
}

// Receive records v, which was delivered by source. It returns true if v had
// not been seen before, in which case it has been handed off for delivery to
// the host's neighbors.
func (g *Gossip) Receive(ctx context.Context, source node.ID, v int64) (bool, error) {
	if !g.Store.Initialized() {
		return false, cluster.ErrNotInitialized
	}
	if !g.Store.Observe(v) {
		return false, nil
	}
	host := g.Store.Host()
	peers := g.Store.Neighbors().WhereNot(source, host)
	g.Logger.Debug("diffusing",
		zap.Stringer("host", host),
		zap.Stringer("source", source),
		zap.Int64("value", v),
		zap.Int("peers", len(peers)),
	)
	for _, peer := range peers {
		if _, err := g.Delivery.Send(ctx, host, peer, message.Broadcast{Message: v}); err != nil {
			return true, errors.Wrapf(err, "[gossip] - failed to forward %d to %s", v, peer)
		}
	}
	return true, nil
}
