package delivery

import (
	"context"
	"time"

	"github.com/arya-analytics/glomers/internal/message"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// DefaultInterval is the cadence at which unacknowledged requests are
// retransmitted.
const DefaultInterval = 1 * time.Second

// Sender writes a single envelope to the network.
type Sender interface {
	Send(ctx context.Context, env message.Envelope) error
}

// IDs hands out message IDs. *message.Sequence implements it.
type IDs interface {
	Next() message.ID
}

type Config struct {
	// Interval is the time between retransmissions of an unacknowledged request.
	Interval time.Duration
	// Transport is where requests are written.
	Transport Sender
	// IDs assigns an ID to every outgoing request.
	IDs IDs
	// Logger
	Logger *zap.Logger
}

func (cfg Config) Merge(def Config) Config {
	if cfg.Interval == 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Transport == nil {
		cfg.Transport = def.Transport
	}
	if cfg.IDs == nil {
		cfg.IDs = def.IDs
	}
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}
	return cfg
}

func (cfg Config) Validate() error {
	if cfg.Transport == nil {
		return errors.New("[delivery] - transport required")
	}
	if cfg.IDs == nil {
		return errors.New("[delivery] - id sequence required")
	}
	if cfg.Interval <= 0 {
		return errors.Newf("[delivery] - retry interval must be positive, got %s", cfg.Interval)
	}
	return nil
}

func DefaultConfig() Config {
	return Config{
		Interval: DefaultInterval,
		Logger:   zap.NewNop(),
	}
}
