package net

import (
	"encoding/json"
	"fmt"

	"github.com/mjgo/server/internal/event"
)

// Client → server message types.
const (
	MsgJoinGame   = "join_game"
	MsgReconnect  = "reconnect"
	MsgGameAction = "game_action"
	MsgChat       = "chat"
	MsgPing       = "ping"
	MsgCreateRoom = "create_room"
	MsgJoinRoom   = "join_room"
	MsgLeaveRoom  = "leave_room"
	MsgSetReady   = "set_ready"
)

// Game action names carried by MsgGameAction.
const (
	ActionDiscard       = "discard"
	ActionDeclareRiichi = "declare_riichi"
	ActionDeclareTsumo  = "declare_tsumo"
	ActionCallRon       = "call_ron"
	ActionCallPon       = "call_pon"
	ActionCallChi       = "call_chi"
	ActionCallKan       = "call_kan"
	ActionPass          = "pass"
	ActionCallKyuushu   = "call_kyuushu"
	ActionConfirmRound  = "confirm_round"
)

// Kan variants for ActionCallKan.
const (
	KanClosed = "closed"
	KanOpen   = "open"
	KanAdded  = "added"
)

// ClientMessage is the inbound JSON envelope. Fields are a union over all
// message types; the router validates presence per type.
type ClientMessage struct {
	Type string `json:"type"`

	// join_game / reconnect
	GameTicket   string `json:"game_ticket,omitempty"`
	GameID       string `json:"game_id,omitempty"`
	SessionToken string `json:"session_token,omitempty"`

	// game_action
	Action        string  `json:"action,omitempty"`
	TileID        *int    `json:"tile_id,omitempty"`
	SequenceTiles *[2]int `json:"sequence_tiles,omitempty"`
	KanType       string  `json:"kan_type,omitempty"`

	// chat
	Text string `json:"text,omitempty"`

	// rooms
	RoomID string `json:"room_id,omitempty"`
	Name   string `json:"name,omitempty"`
	Ready  *bool  `json:"ready,omitempty"`
}

// DecodeClient parses one inbound frame.
func DecodeClient(data []byte) (ClientMessage, error) {
	var m ClientMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode client message: %w", err)
	}
	if m.Type == "" {
		return m, fmt.Errorf("client message missing type")
	}
	return m, nil
}

// serverMessage is the outbound envelope: the event type tag plus its payload.
type serverMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// EncodeEvent renders a server event for the wire.
func EncodeEvent(ev event.Event) ([]byte, error) {
	b, err := json.Marshal(serverMessage{Type: ev.Type, Data: ev.Data})
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", ev.Type, err)
	}
	return b, nil
}
