// Package delivery implements at-least-once delivery of outbound requests.
// A request is retransmitted verbatim, on a fixed interval and without limit,
// until a response referencing its message ID arrives.
package delivery

import (
	"context"
	"sync"
	"time"

	"github.com/arya-analytics/glomers/internal/message"
	"github.com/arya-analytics/glomers/internal/node"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrClosed = errors.New("[delivery] - manager closed")

// Manager tracks every request that has been sent but not yet acknowledged.
type Manager struct {
	Config
	mu      sync.Mutex
	closed  bool
	pending map[message.ID]pending
	tasks   errgroup.Group
}

type pending struct {
	env    message.Envelope
	cancel context.CancelFunc
}

func New(cfg Config) (*Manager, error) {
	cfg = cfg.Merge(DefaultConfig())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Manager{Config: cfg, pending: make(map[message.ID]pending)}, nil
}

// Send transmits the request to the given node and keeps retransmitting it
// until it is acknowledged, ctx is cancelled, or the Manager is closed. If the
// first transmission fails the request is dropped and the error returned.
func (m *Manager) Send(
	ctx context.Context,
	from, to node.ID,
	payload message.RequestPayload,
) (message.ID, error) {
	id := m.IDs.Next()
	env := message.Envelope{
		Source:      from,
		Destination: to,
		Body:        message.Request{ID: id, Payload: payload},
	}
	if err := m.track(ctx, id, env); err != nil {
		return 0, err
	}
	if err := m.Transport.Send(ctx, env); err != nil {
		m.remove(id)
		return 0, errors.Wrapf(err, "[delivery] - failed to send %s to %s", env.Body.Type(), to)
	}
	m.Logger.Debug("sent",
		zap.Stringer("peer", to),
		zap.Int64("msg_id", int64(id)),
		zap.String("type", string(env.Body.Type())),
	)
	return id, nil
}

func (m *Manager) track(ctx context.Context, id message.ID, env message.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if _, ok := m.pending[id]; ok {
		return errors.AssertionFailedf("message id %d is already pending", id)
	}
	ctx, cancel := context.WithCancel(ctx)
	m.pending[id] = pending{env: env, cancel: cancel}
	m.tasks.Go(func() error {
		m.retransmit(ctx, id, env)
		return nil
	})
	return nil
}

func (m *Manager) retransmit(ctx context.Context, id message.ID, env message.Envelope) {
	t := time.NewTicker(m.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if !m.isPending(id) {
				return
			}
			m.Logger.Debug("retransmitting",
				zap.Stringer("peer", env.Destination),
				zap.Int64("msg_id", int64(id)),
			)
			if err := m.Transport.Send(ctx, env); err != nil {
				m.Logger.Warn("retransmission failed",
					zap.Stringer("peer", env.Destination),
					zap.Int64("msg_id", int64(id)),
					zap.Error(err),
				)
			}
		}
	}
}

// Ack settles the request that res answers. It returns false if no such
// request is pending, which happens routinely when duplicate responses arrive.
// Error responses leave the request pending.
func (m *Manager) Ack(from node.ID, res message.Response) bool {
	if e, ok := res.Err(); ok {
		m.Logger.Warn("request rejected, will retry",
			zap.Stringer("peer", from),
			zap.Int64("in_reply_to", int64(res.InReplyTo)),
			zap.Int("code", int(e.Code)),
			zap.String("text", e.Text),
		)
		return false
	}
	ok := m.remove(res.InReplyTo)
	if !ok {
		m.Logger.Debug("ignoring unmatched response",
			zap.Stringer("peer", from),
			zap.Int64("in_reply_to", int64(res.InReplyTo)),
		)
	}
	return ok
}

// Pending returns the number of requests awaiting acknowledgment.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Close stops every retransmission and waits for them to exit. Subsequent
// calls to Send fail with ErrClosed.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	for id, p := range m.pending {
		p.cancel()
		delete(m.pending, id)
	}
	m.mu.Unlock()
	return m.tasks.Wait()
}

func (m *Manager) isPending(id message.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[id]
	return ok
}

// remove deletes the entry and stops its retransmission in one step, so an
// entry is only ever removed once.
func (m *Manager) remove(id message.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pending[id]
	if ok {
		delete(m.pending, id)
		p.cancel()
	}
	return ok
}
