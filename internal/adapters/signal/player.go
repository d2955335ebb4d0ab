package signal

import (
	"encoding/json"

	"github.com/dkeye/Together/internal/domain"
)

func (ctl *SignalWSController) handlePlaybackAction(id domain.UserID, c *WsSignalConn, data []byte) {
	type payload struct {
		Type   string `json:"type"`
		Room   string `json:"room"`
		Action struct {
			Type string  `json:"type"`
			Time float64 `json:"time"`
		} `json:"action"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendBadPayload(c, "playback_action", err)
		return
	}
	if err := ctl.Orch.PlaybackAction(id, domain.RoomID(p.Room), p.Action.Type, p.Action.Time); err != nil {
		ctl.sendOpError(c, "playback_action", err)
	}
}

func (ctl *SignalWSController) handleTransferHost(id domain.UserID, c *WsSignalConn, data []byte) {
	type payload struct {
		Type    string `json:"type"`
		Room    string `json:"room"`
		NewHost string `json:"new_host"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendBadPayload(c, "transfer_host", err)
		return
	}
	if err := ctl.Orch.TransferHost(id, domain.RoomID(p.Room), domain.UserID(p.NewHost)); err != nil {
		ctl.sendOpError(c, "transfer_host", err)
	}
}

func (ctl *SignalWSController) handleKickUser(id domain.UserID, c *WsSignalConn, data []byte) {
	type payload struct {
		Type   string `json:"type"`
		Room   string `json:"room"`
		Target string `json:"target"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendBadPayload(c, "kick_user", err)
		return
	}
	if err := ctl.Orch.KickUser(id, domain.RoomID(p.Room), domain.UserID(p.Target)); err != nil {
		ctl.sendOpError(c, "kick_user", err)
	}
}

// handlePlayerState is the host answering a player_state_request for a
// freshly joined member.
func (ctl *SignalWSController) handlePlayerState(id domain.UserID, c *WsSignalConn, data []byte) {
	type payload struct {
		Type   string  `json:"type"`
		Room   string  `json:"room"`
		Target string  `json:"target"`
		Time   float64 `json:"time"`
		State  string  `json:"state"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendBadPayload(c, "player_state", err)
		return
	}
	if err := ctl.Orch.SendPlayerState(id, domain.RoomID(p.Room), domain.UserID(p.Target), p.Time, p.State); err != nil {
		ctl.sendOpError(c, "player_state", err)
	}
}
