package gossip

import (
	"context"

	"github.com/arya-analytics/glomers/internal/message"
	"github.com/arya-analytics/glomers/internal/node"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Store is the slice of cluster state that diffusion reads and writes.
// *cluster.State implements it.
type Store interface {
	Initialized() bool
	Host() node.ID
	Neighbors() node.Group
	Observe(v int64) bool
}

// Deliverer sends a request and takes responsibility for it being
// acknowledged. *delivery.Manager implements it.
type Deliverer interface {
	Send(ctx context.Context, from, to node.ID, payload message.RequestPayload) (message.ID, error)
}

type Config struct {
	Store    Store
	Delivery Deliverer
	Logger   *zap.Logger
}

func (cfg Config) Merge(def Config) Config {
	if cfg.Store == nil {
		cfg.Store = def.Store
	}
	if cfg.Delivery == nil {
		cfg.Delivery = def.Delivery
	}
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}
	return cfg
}

func (cfg Config) Validate() error {
	if cfg.Store == nil {
		return errors.New("[gossip] - store required")
	}
	if cfg.Delivery == nil {
		return errors.New("[gossip] - delivery required")
	}
	return nil
}

func DefaultConfig() Config { return Config{Logger: zap.NewNop()} }
