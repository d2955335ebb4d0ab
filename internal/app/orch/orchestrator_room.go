package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Together/internal/core"
	"github.com/dkeye/Together/internal/domain"
	"github.com/dkeye/Together/internal/events"
)

// CreateRoom allocates a fresh room. The creator is recorded as host
// but is not auto-joined; joining is a separate explicit step.
func (o *Orchestrator) CreateRoom(
	user *domain.User,
	name domain.RoomName,
	visibility domain.Visibility,
	genre string,
	maxMembers int,
) (domain.RoomID, error) {
	room, err := o.Rooms.Create(name, user, visibility, genre, maxMembers)
	if err != nil {
		return "", err
	}
	if o.Metrics != nil {
		o.Metrics.IncRoomsCreated()
	}
	o.pushDirectory()
	return room.Room().ID, nil
}

func (o *Orchestrator) JoinRoom(id domain.UserID, roomID domain.RoomID) error {
	sess, ok := o.Registry.Session(id)
	if !ok {
		return ErrNoSession
	}
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	if _, err := room.Join(sess); err != nil {
		return err
	}
	o.Registry.AddRoom(id, roomID)

	// Catch the newcomer up: ask the host for its live position, then
	// hand over the currently-playing item. Both are point-to-point
	// and both tolerate an unreachable peer.
	hostID := room.HostID()
	if hostID != id {
		room.SendTo(hostID, events.Marshal(events.StateRequest{
			Type: events.TypeStateRequest,
			Room: roomID,
			From: id,
		}))
	}
	if queue := room.QueueSnapshot(); len(queue) > 0 {
		front := queue[0]
		room.SendTo(id, events.Marshal(events.NowPlaying{
			Type:  events.TypeNowPlaying,
			Room:  roomID,
			Video: &front,
		}))
	}

	o.broadcast(room, "", events.QueueUpdated{
		Type:  events.TypeQueueUpdated,
		Room:  roomID,
		Queue: room.QueueSnapshot(),
	})
	room.SendTo(id, events.Marshal(events.HostStatus{
		Type: events.TypeHostStatus,
		Room: roomID,
		Host: hostID == id,
	}))
	o.broadcast(room, "", events.RoomUsers{
		Type:  events.TypeRoomUsers,
		Room:  roomID,
		Users: room.MembersSnapshot(),
	})
	return nil
}

func (o *Orchestrator) LeaveRoom(id domain.UserID, roomID domain.RoomID) error {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	res := room.Leave(id)
	if !res.Left {
		return core.ErrNotMember
	}
	o.Registry.RemoveRoom(id, roomID)
	o.sendTo(id, events.Left{Type: events.TypeLeft, Room: roomID})

	if res.Empty {
		o.Rooms.Delete(roomID)
		if o.Metrics != nil {
			o.Metrics.IncRoomsDeleted()
		}
		o.sendTo(id, events.RoomUsers{Type: events.TypeRoomUsers, Room: roomID, Users: []core.MemberDTO{}})
		o.pushDirectory()
		return nil
	}

	o.broadcast(room, "", events.RoomUsers{
		Type:  events.TypeRoomUsers,
		Room:  roomID,
		Users: room.MembersSnapshot(),
	})
	if res.NewHost != nil {
		room.SendTo(res.NewHost.ID, events.Marshal(events.HostStatus{
			Type: events.TypeHostStatus,
			Room: roomID,
			Host: true,
		}))
	}
	return nil
}

// DeleteRoom tears a room down on the host's request. Members are
// force-removed and notified; the lobby gets a directory refresh.
func (o *Orchestrator) DeleteRoom(id domain.UserID, roomID domain.RoomID) error {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	if room.HostID() != id {
		return core.ErrForbidden
	}

	o.broadcast(room, "", events.RoomClosed{Type: events.TypeRoomClosed, Room: roomID})
	for _, m := range room.MembersSnapshot() {
		room.Leave(m.ID)
		o.Registry.RemoveRoom(m.ID, roomID)
	}
	o.Rooms.Delete(roomID)
	if o.Metrics != nil {
		o.Metrics.IncRoomsDeleted()
	}
	o.pushDirectory()
	log.Info().Str("module", "orch").Str("room", string(roomID)).Str("host", string(id)).Msg("room deleted by host")
	return nil
}

// ListRooms subscribes the caller to directory refreshes and returns
// the current activity-ranked listing.
func (o *Orchestrator) ListRooms(id domain.UserID) ([]core.RoomInfo, error) {
	sess, ok := o.Registry.Session(id)
	if !ok {
		return nil, ErrNoSession
	}
	o.subscribeLobby(id, sess)
	return o.Rooms.ListByActivity(), nil
}

func (o *Orchestrator) KickUser(requester domain.UserID, roomID domain.RoomID, target domain.UserID) error {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	if err := room.Kick(requester, target); err != nil {
		return err
	}
	o.Registry.RemoveRoom(target, roomID)
	o.sendTo(target, events.Kicked{Type: events.TypeKicked, Room: roomID})
	o.broadcast(room, "", events.RoomUsers{
		Type:  events.TypeRoomUsers,
		Room:  roomID,
		Users: room.MembersSnapshot(),
	})
	return nil
}

// Disconnect applies the leave logic to every room the identity is a
// member of, then drops the identity map entry. Idempotent: safe to
// run for identities that never fully registered.
func (o *Orchestrator) Disconnect(id domain.UserID, sess core.MemberSession) {
	// Unbind first. If this session was already superseded by a newer
	// connection, the identity's rooms belong to that connection now and
	// none of the cleanup below may touch them.
	rooms, ok := o.Registry.UnbindIf(id, sess)
	if !ok {
		return
	}
	for _, roomID := range rooms {
		room, ok := o.Rooms.Get(roomID)
		if !ok {
			continue
		}
		res := room.Leave(id)
		if !res.Left {
			continue
		}
		if res.Empty {
			o.Rooms.Delete(roomID)
			if o.Metrics != nil {
				o.Metrics.IncRoomsDeleted()
			}
			o.pushDirectory()
			continue
		}
		o.broadcast(room, "", events.RoomUsers{
			Type:  events.TypeRoomUsers,
			Room:  roomID,
			Users: room.MembersSnapshot(),
		})
		if res.NewHost != nil {
			room.SendTo(res.NewHost.ID, events.Marshal(events.HostStatus{
				Type: events.TypeHostStatus,
				Room: roomID,
				Host: true,
			}))
		}
	}
	o.unsubscribeLobby(id)
	log.Info().Str("module", "orch").Str("user", string(id)).Msg("disconnected")
}
