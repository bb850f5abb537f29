package glomers

import (
	"time"

	"github.com/arya-analytics/glomers/internal/delivery"
	"go.uber.org/zap"
)

type Option func(*options)

type options struct {
	// logger is the root logger. Components log under named children of it.
	logger *zap.Logger
	// retryInterval is the time between retransmissions of unacknowledged
	// requests. It is not exposed on the wire.
	retryInterval time.Duration
}

func newOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	mergeDefaultOptions(o)
	return o
}

func mergeDefaultOptions(o *options) {
	def := defaultOptions()

	// |||| LOGGER ||||

	if o.logger == nil {
		o.logger = def.logger
	}

	// |||| DELIVERY ||||

	if o.retryInterval <= 0 {
		o.retryInterval = def.retryInterval
	}
}

func defaultOptions() *options {
	return &options{
		logger:        zap.NewNop(),
		retryInterval: delivery.DefaultInterval,
	}
}

func WithLogger(logger *zap.Logger) Option { return func(o *options) { o.logger = logger } }

func WithRetryInterval(d time.Duration) Option { return func(o *options) { o.retryInterval = d } }
