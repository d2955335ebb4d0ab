package signal

import (
	"context"
	"encoding/json"

	"github.com/dkeye/Together/internal/domain"
)

// handleAddVideo may suspend on the catalog lookup, so it runs in its
// own goroutine and must not block the read loop of other events.
func (ctl *SignalWSController) handleAddVideo(ctx context.Context, id domain.UserID, c *WsSignalConn, data []byte) {
	type payload struct {
		Type string `json:"type"`
		Room string `json:"room"`
		URL  string `json:"url"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendBadPayload(c, "add_video", err)
		return
	}
	go func() {
		if err := ctl.Orch.AddVideo(ctx, id, domain.RoomID(p.Room), p.URL); err != nil {
			ctl.sendOpError(c, "add_video", err)
		}
	}()
}

func (ctl *SignalWSController) handleRemoveVideo(id domain.UserID, c *WsSignalConn, data []byte) {
	type payload struct {
		Type  string `json:"type"`
		Room  string `json:"room"`
		Index int    `json:"index"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendBadPayload(c, "remove_video", err)
		return
	}
	if err := ctl.Orch.RemoveVideo(id, domain.RoomID(p.Room), p.Index); err != nil {
		ctl.sendOpError(c, "remove_video", err)
	}
}

func (ctl *SignalWSController) handleNextVideo(id domain.UserID, c *WsSignalConn, data []byte) {
	type payload struct {
		Type string `json:"type"`
		Room string `json:"room"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendBadPayload(c, "next_video", err)
		return
	}
	if err := ctl.Orch.NextVideo(id, domain.RoomID(p.Room)); err != nil {
		ctl.sendOpError(c, "next_video", err)
	}
}

func (ctl *SignalWSController) handleClearPlaylist(id domain.UserID, c *WsSignalConn, data []byte) {
	type payload struct {
		Type string `json:"type"`
		Room string `json:"room"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendBadPayload(c, "clear_playlist", err)
		return
	}
	if err := ctl.Orch.ClearPlaylist(id, domain.RoomID(p.Room)); err != nil {
		ctl.sendOpError(c, "clear_playlist", err)
	}
}
