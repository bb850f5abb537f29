// Package stdio implements the node transport over a pair of byte streams,
// one JSON envelope per line in each direction. In production the streams
// are the process's stdin and stdout.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/arya-analytics/glomers/internal/message"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// MaxLineSize bounds the length of a single inbound line. Topologies of large
// clusters are the longest messages the harness sends.
const MaxLineSize = 16 << 20

type Config struct {
	Logger *zap.Logger
}

func DefaultConfig() Config { return Config{Logger: zap.NewNop()} }

func (cfg Config) Merge(def Config) Config {
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}
	return cfg
}

// Transport reads envelopes from an io.Reader and writes them to an
// io.Writer. Lines are read on a dedicated goroutine so that Receive can
// return early when its context is cancelled.
type Transport struct {
	Config
	lines chan line
	done  chan struct{}
	once  sync.Once
	mu    sync.Mutex
	w     *bufio.Writer
}

type line struct {
	b   []byte
	err error
}

func New(r io.Reader, w io.Writer, cfgs ...Config) *Transport {
	cfg := DefaultConfig()
	for _, c := range cfgs {
		cfg = c.Merge(cfg)
	}
	t := &Transport{
		Config: cfg,
		lines:  make(chan line),
		done:   make(chan struct{}),
		w:      bufio.NewWriter(w),
	}
	go t.scan(r)
	return t
}

func (t *Transport) scan(r io.Reader) {
	defer close(t.lines)
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), MaxLineSize)
	for s.Scan() {
		b := bytes.TrimSpace(s.Bytes())
		if len(b) == 0 {
			continue
		}
		if !t.push(line{b: append([]byte(nil), b...)}) {
			return
		}
	}
	if err := s.Err(); err != nil {
		t.push(line{err: errors.Wrap(err, "[stdio] - failed to read input")})
	}
}

func (t *Transport) push(l line) bool {
	select {
	case t.lines <- l:
		return true
	case <-t.done:
		return false
	}
}

// Receive implements glomers.Transport. It returns io.EOF once the reader is
// exhausted or the transport is closed.
func (t *Transport) Receive(ctx context.Context) (message.Envelope, error) {
	select {
	case <-ctx.Done():
		return message.Envelope{}, ctx.Err()
	case <-t.done:
		return message.Envelope{}, io.EOF
	case l, ok := <-t.lines:
		if !ok {
			return message.Envelope{}, io.EOF
		}
		if l.err != nil {
			return message.Envelope{}, l.err
		}
		t.Logger.Debug("received", zap.ByteString("line", l.b))
		return t.translateForward(l.b)
	}
}

// Send implements glomers.Transport. Each envelope is written as a single
// line and flushed before Send returns.
func (t *Transport) Send(_ context.Context, env message.Envelope) error {
	b, err := t.translateBackward(env)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.w.Write(append(b, '\n')); err != nil {
		return errors.Wrap(err, "[stdio] - failed to write envelope")
	}
	return errors.Wrap(t.w.Flush(), "[stdio] - failed to flush output")
}

// Close stops delivering inbound lines. Subsequent calls to Receive return
// io.EOF.
func (t *Transport) Close() error {
	t.once.Do(func() { close(t.done) })
	return nil
}

func (t *Transport) translateForward(b []byte) (message.Envelope, error) {
	return message.Decode(b)
}

func (t *Transport) translateBackward(env message.Envelope) ([]byte, error) {
	return message.Encode(env)
}
