package signal

import (
	"encoding/json"

	"github.com/dkeye/Together/internal/domain"
	"github.com/dkeye/Together/internal/events"
)

func (ctl *SignalWSController) handleCreateRoom(id domain.UserID, c *WsSignalConn, data []byte) {
	type payload struct {
		Type       string `json:"type"`
		Name       string `json:"name"`
		Visibility string `json:"visibility"`
		Genre      string `json:"genre"`
		MaxMembers int    `json:"max_members"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendBadPayload(c, "create_room", err)
		return
	}

	sess, ok := ctl.Orch.Registry.Session(id)
	if !ok {
		return
	}
	roomID, err := ctl.Orch.CreateRoom(
		sess.User(),
		domain.RoomName(p.Name),
		domain.Visibility(p.Visibility),
		p.Genre,
		p.MaxMembers,
	)
	if err != nil {
		ctl.sendOpError(c, "create_room", err)
		return
	}
	ctl.sendJSON(c, events.RoomCreated{Type: events.TypeRoomCreated, Room: roomID})
}

func (ctl *SignalWSController) handleJoin(id domain.UserID, c *WsSignalConn, data []byte) {
	type payload struct {
		Type string `json:"type"`
		Room string `json:"room"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendBadPayload(c, "join_room", err)
		return
	}
	if err := ctl.Orch.JoinRoom(id, domain.RoomID(p.Room)); err != nil {
		ctl.sendOpError(c, "join_room", err)
	}
}

func (ctl *SignalWSController) handleLeave(id domain.UserID, c *WsSignalConn, data []byte) {
	type payload struct {
		Type string `json:"type"`
		Room string `json:"room"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendBadPayload(c, "leave_room", err)
		return
	}
	if err := ctl.Orch.LeaveRoom(id, domain.RoomID(p.Room)); err != nil {
		ctl.sendOpError(c, "leave_room", err)
	}
}

func (ctl *SignalWSController) handleDelete(id domain.UserID, c *WsSignalConn, data []byte) {
	type payload struct {
		Type string `json:"type"`
		Room string `json:"room"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendBadPayload(c, "delete_room", err)
		return
	}
	if err := ctl.Orch.DeleteRoom(id, domain.RoomID(p.Room)); err != nil {
		ctl.sendOpError(c, "delete_room", err)
	}
}

func (ctl *SignalWSController) handleListRooms(id domain.UserID, c *WsSignalConn) {
	rooms, err := ctl.Orch.ListRooms(id)
	if err != nil {
		ctl.sendOpError(c, "list_rooms", err)
		return
	}
	ctl.sendJSON(c, events.RoomDirectory{Type: events.TypeRoomDirectory, Rooms: rooms})
}
