package ws

import (
	"encoding/json"

	"gameroom/internal/game"
)

const (
	// client -> server
	MsgCreate = "create"
	MsgJoin   = "join"
	MsgLeave  = "leave"
	MsgAction = "action"

	// server -> client handshake; game events come from the lobby layer
	MsgReady = "ready"
)

// Envelope is the outbound wire frame.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// inboundMsg defers payload decoding until the type is known.
type inboundMsg struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// client -> server payloads
type CreatePayload struct {
	GameName string         `json:"game_name"`
	Params   map[string]any `json:"params"`
}

type JoinPayload struct {
	GameName     string         `json:"game_name"`
	Params       map[string]any `json:"params"`
	CreateIfNone bool           `json:"create_if_not_found"`
}

type ActionPayload struct {
	Action any `json:"action"`
}

// ReadyPayload tells the client its session ID right after the upgrade.
type ReadyPayload struct {
	UserID string `json:"user_id"`
}

// Session is the inbound surface the transport drives. The lobby
// coordinator implements it.
type Session interface {
	Connect(userID string)
	Disconnect(userID string)
	Create(userID string, kind game.Kind, params game.Params)
	Join(userID string, kind game.Kind, params game.Params, createIfNone bool)
	Leave(userID string)
	Action(userID string, act game.Action)
}
