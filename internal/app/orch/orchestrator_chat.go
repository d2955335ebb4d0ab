package orch

import (
	"time"
	"unicode/utf8"

	"github.com/dkeye/Together/internal/core"
	"github.com/dkeye/Together/internal/domain"
	"github.com/dkeye/Together/internal/events"
)

// ChatMessage relays a room-scoped message. Rejections go back to the
// sender only; a success is echoed to the whole room including the
// sender so every UI renders from the same authoritative path.
func (o *Orchestrator) ChatMessage(id domain.UserID, roomID domain.RoomID, text string) error {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	sess, ok := room.Session(id)
	if !ok {
		return core.ErrNotMember
	}
	if text == "" {
		o.rejectChat("empty")
		return ErrMessageEmpty
	}
	if utf8.RuneCountInString(text) > o.ChatMaxLen {
		o.rejectChat("too_long")
		return ErrMessageTooLong
	}
	if !o.Chat.Allow(id) {
		o.rejectChat("rate_limited")
		return ErrRateLimited
	}

	o.broadcast(room, "", events.ChatMessage{
		Type:     events.TypeChatMessage,
		Room:     roomID,
		Username: sess.User().Username,
		Text:     text,
		Ts:       time.Now().Unix(),
	})
	return nil
}

func (o *Orchestrator) rejectChat(reason string) {
	if o.Metrics != nil {
		o.Metrics.IncChatRejected(reason)
	}
}
