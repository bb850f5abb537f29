// Package message defines the envelopes exchanged between nodes and clients,
// along with their line-oriented JSON encoding.
//
// A Body is either a Request or a Response. Request and response payloads are
// closed unions: every kind the node understands is declared in this package
// and nothing outside of it can add one.
package message

import "github.com/arya-analytics/glomers/internal/node"

// ID is a message identifier, unique among the messages sent by a single node.
type ID int64

// Type is the kind tag carried in a body's "type" field.
type Type string

// Envelope is a single message on the wire.
type Envelope struct {
	Source      node.ID
	Destination node.ID
	Body        Body
}

// Body is implemented by Request and Response only.
type Body interface {
	Type() Type
	body()
}

// Request is a body that expects a Response.
type Request struct {
	ID      ID
	Payload RequestPayload
}

func (r Request) Type() Type { return r.Payload.requestType() }

func (Request) body() {}

// Response answers the request whose ID equals InReplyTo.
type Response struct {
	ID        ID
	InReplyTo ID
	Payload   ResponsePayload
}

func (r Response) Type() Type { return r.Payload.responseType() }

// Err returns the error payload carried by the response, if any.
func (r Response) Err() (Error, bool) {
	e, ok := r.Payload.(Error)
	return e, ok
}

func (Response) body() {}

// Reply builds the envelope answering req, which must have arrived in env.
// The reply is addressed back to the sender and sourced from the node the
// request was addressed to.
func Reply(env Envelope, req Request, id ID, payload ResponsePayload) Envelope {
	return Envelope{
		Source:      env.Destination,
		Destination: env.Source,
		Body:        Response{ID: id, InReplyTo: req.ID, Payload: payload},
	}
}
