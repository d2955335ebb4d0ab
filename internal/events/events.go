// Package events defines the outbound wire payloads the coordinator
// fans out. Inbound payloads are parsed in the signal adapter; only
// what leaves the server lives here.
package events

import (
	"encoding/json"

	"github.com/dkeye/Together/internal/core"
	"github.com/dkeye/Together/internal/domain"
)

const (
	TypeRoomCreated    = "room_created"
	TypeRoomUsers      = "room_users"
	TypeRoomClosed     = "room_closed"
	TypeRoomDirectory  = "room_directory"
	TypeQueueUpdated   = "queue_updated"
	TypeNowPlaying     = "now_playing"
	TypeChatMessage    = "chat_message"
	TypeChatError      = "chat_error"
	TypeHostStatus     = "host_status"
	TypePlaybackAction = "playback_action"
	TypeStateRequest   = "player_state_request"
	TypePlayerState    = "player_state"
	TypeKicked         = "kicked"
	TypeLeft           = "left"
	TypeError          = "error"
	TypePong           = "pong"
)

// RoomCreated acks a successful create with the generated id.
type RoomCreated struct {
	Type string        `json:"type"`
	Room domain.RoomID `json:"room"`
}

// RoomUsers carries the join-ordered member list.
type RoomUsers struct {
	Type  string           `json:"type"`
	Room  domain.RoomID    `json:"room"`
	Users []core.MemberDTO `json:"users"`
}

// RoomClosed notifies members and the lobby that a room is gone.
type RoomClosed struct {
	Type string        `json:"type"`
	Room domain.RoomID `json:"room"`
}

// RoomDirectory is the activity-ranked room listing.
type RoomDirectory struct {
	Type  string          `json:"type"`
	Rooms []core.RoomInfo `json:"rooms"`
}

// QueueUpdated carries the full queue snapshot in play order.
type QueueUpdated struct {
	Type  string         `json:"type"`
	Room  domain.RoomID  `json:"room"`
	Queue []domain.Video `json:"queue"`
}

// NowPlaying announces the front of the queue. A nil Video is the
// empty sentinel broadcast when the queue drains.
type NowPlaying struct {
	Type  string        `json:"type"`
	Room  domain.RoomID `json:"room"`
	Video *domain.Video `json:"video"`
}

// ChatMessage is echoed to the whole room including the sender.
type ChatMessage struct {
	Type     string        `json:"type"`
	Room     domain.RoomID `json:"room"`
	Username string        `json:"username"`
	Text     string        `json:"text"`
	Ts       int64         `json:"ts"`
}

// ChatError goes point-to-point to a rejected sender.
type ChatError struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// HostStatus tells one connection whether it currently drives playback.
type HostStatus struct {
	Type string        `json:"type"`
	Room domain.RoomID `json:"room"`
	Host bool          `json:"host"`
}

// PlaybackAction relays a host transport action with its position.
type PlaybackAction struct {
	Type   string        `json:"type"`
	Room   domain.RoomID `json:"room"`
	Action string        `json:"action"`
	Time   float64       `json:"time"`
}

// StateRequest asks the host for its live position on behalf of a
// freshly joined member.
type StateRequest struct {
	Type string        `json:"type"`
	Room domain.RoomID `json:"room"`
	From domain.UserID `json:"from"`
}

// PlayerState is the host's point-to-point answer to a StateRequest.
type PlayerState struct {
	Type  string        `json:"type"`
	Room  domain.RoomID `json:"room"`
	Time  float64       `json:"time"`
	State string        `json:"state"`
}

// Kicked is the dedicated notice a removed member receives, distinct
// from an ordinary leave so the client can redirect away.
type Kicked struct {
	Type string        `json:"type"`
	Room domain.RoomID `json:"room"`
}

// Left acks an explicit leave to the leaver.
type Left struct {
	Type string        `json:"type"`
	Room domain.RoomID `json:"room"`
}

// Error is the generic per-operation failure, sent to the originating
// connection only.
type Error struct {
	Type   string `json:"type"`
	Op     string `json:"op,omitempty"`
	Reason string `json:"reason"`
}

type Pong struct {
	Type string `json:"type"`
}

// Marshal encodes an event to a frame. Payloads are plain structs, so
// a marshal failure is a programming error; it yields a nil frame,
// which the websocket send path drops.
func Marshal(v any) core.Frame {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
