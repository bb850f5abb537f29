package message

import (
	"encoding/json"

	"github.com/arya-analytics/glomers/internal/node"
)

const (
	TypeInit      Type = "init"
	TypeEcho      Type = "echo"
	TypeGenerate  Type = "generate"
	TypeBroadcast Type = "broadcast"
	TypeRead      Type = "read"
	TypeTopology  Type = "topology"
)

// RequestPayload is the kind-specific part of a Request.
type RequestPayload interface{ requestType() Type }

// Init is the handshake. It is the first message every node receives.
type Init struct {
	NodeID  node.ID    `json:"node_id"`
	NodeIDs node.Group `json:"node_ids"`
}

func (Init) requestType() Type { return TypeInit }

// Echo carries an arbitrary JSON value that is returned verbatim.
type Echo struct {
	Echo json.RawMessage `json:"echo"`
}

func (Echo) requestType() Type { return TypeEcho }

type Generate struct{}

func (Generate) requestType() Type { return TypeGenerate }

type Broadcast struct {
	Message int64 `json:"message"`
}

func (Broadcast) requestType() Type { return TypeBroadcast }

type Read struct{}

func (Read) requestType() Type { return TypeRead }

// Topology maps every node to the neighbors it should gossip with.
type Topology struct {
	Topology map[node.ID]node.Group `json:"topology"`
}

func (Topology) requestType() Type { return TypeTopology }
