package orch

import (
	"github.com/dkeye/Together/internal/core"
	"github.com/dkeye/Together/internal/domain"
	"github.com/dkeye/Together/internal/events"
)

const (
	ActionPlay  = "play"
	ActionPause = "pause"
)

// PlaybackAction relays a host transport action to the rest of the
// room. A non-host action is dropped without an error: followers'
// stray actions are ignored, not rejected.
func (o *Orchestrator) PlaybackAction(requester domain.UserID, roomID domain.RoomID, action string, position float64) error {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}

	var state core.PlaybackState
	switch action {
	case ActionPlay:
		state = core.PlaybackPlaying
	case ActionPause:
		state = core.PlaybackPaused
	default:
		return nil
	}

	if !room.ApplyPlayback(requester, state) {
		return nil
	}
	o.broadcast(room, requester, events.PlaybackAction{
		Type:   events.TypePlaybackAction,
		Room:   roomID,
		Action: action,
		Time:   position,
	})
	return nil
}

// TransferHost hands playback authority to another member. Both sides
// of the hand-off get a host-status notice.
func (o *Orchestrator) TransferHost(requester domain.UserID, roomID domain.RoomID, target domain.UserID) error {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	if err := room.TransferHost(requester, target); err != nil {
		return err
	}
	room.SendTo(target, events.Marshal(events.HostStatus{
		Type: events.TypeHostStatus,
		Room: roomID,
		Host: true,
	}))
	room.SendTo(requester, events.Marshal(events.HostStatus{
		Type: events.TypeHostStatus,
		Room: roomID,
		Host: false,
	}))
	return nil
}

// SendPlayerState is the host's answer to a player_state_request: a
// point-to-point snapshot of its live position for one catching-up
// member. Non-host senders are ignored.
func (o *Orchestrator) SendPlayerState(sender domain.UserID, roomID domain.RoomID, target domain.UserID, position float64, state string) error {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	if room.HostID() != sender {
		return nil
	}
	room.SendTo(target, events.Marshal(events.PlayerState{
		Type:  events.TypePlayerState,
		Room:  roomID,
		Time:  position,
		State: state,
	}))
	return nil
}
