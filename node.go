// Package glomers implements a node of a simulated cluster driven by an
// external test harness. A node answers the harness's requests, hands out
// cluster-wide unique ids without coordination, and reliably diffuses
// broadcast values to the rest of the cluster over a lossy, partitioned
// network.
package glomers

import (
	"context"
	"io"

	"github.com/arya-analytics/glomers/internal/cluster"
	"github.com/arya-analytics/glomers/internal/cluster/gossip"
	"github.com/arya-analytics/glomers/internal/delivery"
	"github.com/arya-analytics/glomers/internal/message"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Node struct {
	*options
	transport Transport
	state     *cluster.State
	ids       *message.Sequence
	delivery  *delivery.Manager
	gossip    *gossip.Gossip
}

// Run processes envelopes from the transport until it is exhausted, ctx is
// cancelled, or an envelope violates the protocol. Every envelope is handled
// on its own goroutine. Run returns nil when the transport reaches the end
// of its input, and the first fatal error otherwise.
func (n *Node) Run(ctx context.Context) error {
	defer func() {
		if err := n.delivery.Close(); err != nil {
			n.logger.Error("failed to stop delivery", zap.Error(err))
		}
	}()
	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		for {
			env, err := n.transport.Receive(ctx)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			wg.Go(func() error { return n.handle(ctx, env) })
		}
	})
	return wg.Wait()
}

// Pending returns the number of outbound requests awaiting acknowledgment.
func (n *Node) Pending() int { return n.delivery.Pending() }

func (n *Node) handle(ctx context.Context, env message.Envelope) error {
	switch body := env.Body.(type) {
	case message.Request:
		return n.serve(ctx, env, body)
	case message.Response:
		n.delivery.Ack(env.Source, body)
		return nil
	}
	return errors.AssertionFailedf("unexpected body %T from %s", env.Body, env.Source)
}
