package glomers

import (
	"github.com/arya-analytics/glomers/internal/cluster"
	"github.com/arya-analytics/glomers/internal/cluster/gossip"
	"github.com/arya-analytics/glomers/internal/delivery"
	"github.com/arya-analytics/glomers/internal/message"
)

// Open builds a Node that communicates over t. The node knows nothing about
// the cluster until it receives the init handshake from t.
func Open(t Transport, opts ...Option) (*Node, error) {
	o := newOptions(opts...)

	state := cluster.New()
	ids := &message.Sequence{}

	dm, err := delivery.New(delivery.Config{
		Interval:  o.retryInterval,
		Transport: t,
		IDs:       ids,
		Logger:    o.logger.Named("delivery"),
	})
	if err != nil {
		return nil, err
	}

	g, err := gossip.New(gossip.Config{
		Store:    state,
		Delivery: dm,
		Logger:   o.logger.Named("gossip"),
	})
	if err != nil {
		return nil, err
	}

	return &Node{
		options:   o,
		transport: t,
		state:     state,
		ids:       ids,
		delivery:  dm,
		gossip:    g,
	}, nil
}
