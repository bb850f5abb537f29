package glomers

import (
	"context"

	"github.com/arya-analytics/glomers/internal/message"
)

// Transport moves envelopes between a Node and the rest of the cluster.
// transport/stdio provides the line-oriented implementation used in
// production and mock provides an in-memory one.
type Transport interface {
	// Receive blocks until the next envelope arrives. It returns io.EOF once
	// no more envelopes will arrive.
	Receive(ctx context.Context) (message.Envelope, error)
	// Send writes a single envelope. It is safe to call concurrently.
	Send(ctx context.Context, env message.Envelope) error
}
