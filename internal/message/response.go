package message

import "encoding/json"

const (
	TypeInitOk      Type = "init_ok"
	TypeEchoOk      Type = "echo_ok"
	TypeGenerateOk  Type = "generate_ok"
	TypeBroadcastOk Type = "broadcast_ok"
	TypeReadOk      Type = "read_ok"
	TypeTopologyOk  Type = "topology_ok"
	TypeError       Type = "error"
)

// ResponsePayload is the kind-specific part of a Response.
type ResponsePayload interface{ responseType() Type }

type InitOk struct{}

func (InitOk) responseType() Type { return TypeInitOk }

type EchoOk struct {
	Echo json.RawMessage `json:"echo"`
}

func (EchoOk) responseType() Type { return TypeEchoOk }

type GenerateOk struct {
	ID int64 `json:"id"`
}

func (GenerateOk) responseType() Type { return TypeGenerateOk }

type BroadcastOk struct{}

func (BroadcastOk) responseType() Type { return TypeBroadcastOk }

type ReadOk struct {
	Messages []int64 `json:"messages"`
}

func (ReadOk) responseType() Type { return TypeReadOk }

type TopologyOk struct{}

func (TopologyOk) responseType() Type { return TypeTopologyOk }

// ErrorCode is a harness-defined error code.
type ErrorCode int

const (
	CodeTimeout                ErrorCode = 0
	CodeNodeNotFound           ErrorCode = 1
	CodeNotSupported           ErrorCode = 10
	CodeTemporarilyUnavailable ErrorCode = 11
	CodeMalformedRequest       ErrorCode = 12
	CodeCrash                  ErrorCode = 13
	CodeAbort                  ErrorCode = 14
)

// Error is the response sent in place of the regular reply when a request
// cannot be served.
type Error struct {
	Code ErrorCode `json:"code"`
	Text string    `json:"text,omitempty"`
}

func (Error) responseType() Type { return TypeError }

// Definite reports whether the request is known not to have taken effect.
func (e Error) Definite() bool { return e.Code != CodeTimeout && e.Code != CodeCrash }
