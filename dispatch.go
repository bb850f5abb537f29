package glomers

import (
	"context"

	"github.com/arya-analytics/glomers/internal/cluster"
	"github.com/arya-analytics/glomers/internal/message"
	"github.com/arya-analytics/glomers/internal/node"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// serve answers a single request. Requests that arrive before the handshake
// are answered with a temporarily-unavailable error so the sender retries;
// every other failure is fatal.
func (n *Node) serve(ctx context.Context, env message.Envelope, req message.Request) error {
	n.logger.Debug("serving",
		zap.Stringer("peer", env.Source),
		zap.Int64("msg_id", int64(req.ID)),
		zap.String("type", string(req.Type())),
	)
	res, err := n.respond(ctx, env.Source, req.Payload)
	if errors.Is(err, cluster.ErrNotInitialized) {
		res, err = message.Error{Code: message.CodeTemporarilyUnavailable, Text: err.Error()}, nil
	}
	if err != nil {
		return errors.Wrapf(err, "[glomers] - failed to serve %s from %s", req.Type(), env.Source)
	}
	reply := message.Reply(env, req, n.ids.Next(), res)
	return errors.Wrapf(n.transport.Send(ctx, reply), "[glomers] - failed to reply to %s", env.Source)
}

func (n *Node) respond(
	ctx context.Context,
	source node.ID,
	req message.RequestPayload,
) (message.ResponsePayload, error) {
	switch req := req.(type) {
	case message.Init:
		return message.InitOk{}, n.state.Init(req.NodeID, req.NodeIDs)
	case message.Echo:
		return message.EchoOk{Echo: req.Echo}, nil
	case message.Generate:
		id, err := n.state.NextID()
		return message.GenerateOk{ID: id}, err
	case message.Broadcast:
		_, err := n.gossip.Receive(ctx, source, req.Message)
		return message.BroadcastOk{}, err
	case message.Read:
		if !n.state.Initialized() {
			return nil, cluster.ErrNotInitialized
		}
		return message.ReadOk{Messages: n.state.Values()}, nil
	case message.Topology:
		return message.TopologyOk{}, n.state.SetNeighbors(req.Topology)
	}
	return nil, errors.AssertionFailedf("unhandled request %T", req)
}
