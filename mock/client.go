package mock

import (
	"context"
	"sync"

	"github.com/arya-analytics/glomers/internal/message"
	"github.com/arya-analytics/glomers/internal/node"
	"github.com/cockroachdb/errors"
)

// Client is a network endpoint that plays the part of the test harness. It
// issues requests and matches responses by in_reply_to.
type Client struct {
	transport *Transport
	ids       message.Sequence
	mu        sync.Mutex
	waiting   map[message.ID]chan message.Response
	requests  []message.Envelope
}

// Client creates a client endpoint with the given id and starts receiving on
// it. The client stops when it is closed.
func (n *Network) Client(id node.ID) *Client {
	c := &Client{transport: n.Route(id), waiting: make(map[message.ID]chan message.Response)}
	go c.receive()
	return c
}

func (c *Client) ID() node.ID { return c.transport.ID }

func (c *Client) receive() {
	for {
		env, err := c.transport.Receive(context.Background())
		if err != nil {
			return
		}
		c.mu.Lock()
		switch body := env.Body.(type) {
		case message.Response:
			if ch, ok := c.waiting[body.InReplyTo]; ok {
				delete(c.waiting, body.InReplyTo)
				ch <- body
			}
		case message.Request:
			c.requests = append(c.requests, env)
		}
		c.mu.Unlock()
	}
}

// Request sends payload to dest and waits for the matching response. Requests
// lost to the network are not retried; ctx bounds the wait.
func (c *Client) Request(
	ctx context.Context,
	dest node.ID,
	payload message.RequestPayload,
) (message.Response, error) {
	id := c.ids.Next()
	ch := make(chan message.Response, 1)
	c.mu.Lock()
	c.waiting[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.waiting, id)
		c.mu.Unlock()
	}()
	req := message.Request{ID: id, Payload: payload}
	env := message.Envelope{Source: c.ID(), Destination: dest, Body: req}
	if err := c.transport.Send(ctx, env); err != nil {
		return message.Response{}, err
	}
	select {
	case res := <-ch:
		return res, nil
	case <-ctx.Done():
		return message.Response{}, errors.Wrapf(ctx.Err(), "[mock] - no response to %s from %s", req.Type(), dest)
	}
}

// Requests returns the requests other endpoints have sent to the client.
func (c *Client) Requests() []message.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]message.Envelope(nil), c.requests...)
}

func (c *Client) Close() error { return c.transport.Close() }
