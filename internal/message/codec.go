package message

import (
	"encoding/json"

	"github.com/arya-analytics/glomers/internal/node"
	"github.com/cockroachdb/errors"
)

// ErrMalformed marks envelopes that cannot be decoded. The harness never
// sends one unless it is broken, so callers treat it as fatal.
var ErrMalformed = errors.New("[message] - malformed envelope")

// Decode parses a single envelope (one line of input, without the newline).
func Decode(b []byte) (env Envelope, err error) {
	if err = json.Unmarshal(b, &env); err != nil {
		return Envelope{}, errors.Mark(errors.Wrap(err, "[message] - failed to decode envelope"), ErrMalformed)
	}
	return env, nil
}

// Encode serializes env as a single line of JSON, without the trailing newline.
func Encode(env Envelope) ([]byte, error) {
	b, err := json.Marshal(env)
	return b, errors.Wrap(err, "[message] - failed to encode envelope")
}

type wireEnvelope struct {
	Source      node.ID         `json:"src"`
	Destination node.ID         `json:"dest"`
	Body        json.RawMessage `json:"body"`
}

type header struct {
	MsgID     *ID  `json:"msg_id,omitempty"`
	InReplyTo *ID  `json:"in_reply_to,omitempty"`
	Type      Type `json:"type"`
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	body, err := encodeBody(e.Body)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireEnvelope{Source: e.Source, Destination: e.Destination, Body: body})
}

func (e *Envelope) UnmarshalJSON(b []byte) error {
	var w wireEnvelope
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if len(w.Body) == 0 {
		return errors.New("envelope has no body")
	}
	body, err := decodeBody(w.Body)
	if err != nil {
		return err
	}
	*e = Envelope{Source: w.Source, Destination: w.Destination, Body: body}
	return nil
}

func encodeBody(b Body) (json.RawMessage, error) {
	var (
		h       header
		payload interface{}
	)
	switch b := b.(type) {
	case Request:
		if b.Payload == nil {
			return nil, errors.AssertionFailedf("request %d has no payload", b.ID)
		}
		h = header{MsgID: &b.ID, Type: b.Type()}
		payload = b.Payload
	case Response:
		if b.Payload == nil {
			return nil, errors.AssertionFailedf("response %d has no payload", b.ID)
		}
		h = header{MsgID: &b.ID, InReplyTo: &b.InReplyTo, Type: b.Type()}
		payload = b.Payload
	default:
		return nil, errors.AssertionFailedf("unexpected body %T", b)
	}
	// Kind-specific fields sit next to the header fields in a flat object.
	fields := make(map[string]json.RawMessage)
	if err := mergeFields(fields, payload); err != nil {
		return nil, err
	}
	if err := mergeFields(fields, h); err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

func mergeFields(into map[string]json.RawMessage, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, &into)
}

func decodeBody(raw json.RawMessage) (Body, error) {
	var h header
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, err
	}
	if dec, ok := requestDecoders[h.Type]; ok {
		p, err := dec(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s body", h.Type)
		}
		req := Request{Payload: p}
		if h.MsgID != nil {
			req.ID = *h.MsgID
		}
		return req, nil
	}
	if dec, ok := responseDecoders[h.Type]; ok {
		if h.InReplyTo == nil {
			return nil, errors.Newf("%s body has no in_reply_to", h.Type)
		}
		p, err := dec(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s body", h.Type)
		}
		res := Response{InReplyTo: *h.InReplyTo, Payload: p}
		if h.MsgID != nil {
			res.ID = *h.MsgID
		}
		return res, nil
	}
	return nil, errors.Newf("unknown message type %q", h.Type)
}

var requestDecoders = map[Type]func(json.RawMessage) (RequestPayload, error){
	TypeInit:      decodeRequest[Init],
	TypeEcho:      decodeRequest[Echo],
	TypeGenerate:  decodeRequest[Generate],
	TypeBroadcast: decodeRequest[Broadcast],
	TypeRead:      decodeRequest[Read],
	TypeTopology:  decodeRequest[Topology],
}

var responseDecoders = map[Type]func(json.RawMessage) (ResponsePayload, error){
	TypeInitOk:      decodeResponse[InitOk],
	TypeEchoOk:      decodeResponse[EchoOk],
	TypeGenerateOk:  decodeResponse[GenerateOk],
	TypeBroadcastOk: decodeResponse[BroadcastOk],
	TypeReadOk:      decodeResponse[ReadOk],
	TypeTopologyOk:  decodeResponse[TopologyOk],
	TypeError:       decodeResponse[Error],
}

func decodeRequest[P RequestPayload](raw json.RawMessage) (RequestPayload, error) {
	var p P
	err := json.Unmarshal(raw, &p)
	return p, err
}

func decodeResponse[P ResponsePayload](raw json.RawMessage) (ResponsePayload, error) {
	var p P
	err := json.Unmarshal(raw, &p)
	return p, err
}
