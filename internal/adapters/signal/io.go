package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Together/internal/core"
	"github.com/dkeye/Together/internal/domain"
	"github.com/dkeye/Together/internal/events"
)

const writeWait = 5 * time.Second

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, sess core.MemberSession, c *WsSignalConn) {
	id := sess.User().ID
	defer func() {
		log.Info().Str("module", "signal").Str("user", string(id)).Msg("readPump closing")
		c.Close()
		ctl.Orch.Disconnect(id, sess)
	}()

	c.conn.SetReadLimit(ctl.ReadLimit)
	readWait := ctl.PingPeriod + writeWait
	_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
			_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
			ctl.handleSignal(ctx, id, c, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, id domain.UserID, c *WsSignalConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}
	if m := ctl.Orch.Metrics; m != nil {
		m.IncEvent(env.Type)
	}

	switch env.Type {
	case "create_room":
		ctl.handleCreateRoom(id, c, data)
	case "join_room":
		ctl.handleJoin(id, c, data)
	case "leave_room":
		ctl.handleLeave(id, c, data)
	case "delete_room":
		ctl.handleDelete(id, c, data)
	case "list_rooms":
		ctl.handleListRooms(id, c)
	case "chat_message":
		ctl.handleChat(id, c, data)
	case "add_video":
		ctl.handleAddVideo(ctx, id, c, data)
	case "remove_video":
		ctl.handleRemoveVideo(id, c, data)
	case "next_video":
		ctl.handleNextVideo(id, c, data)
	case "clear_playlist":
		ctl.handleClearPlaylist(id, c, data)
	case "playback_action":
		ctl.handlePlaybackAction(id, c, data)
	case "transfer_host":
		ctl.handleTransferHost(id, c, data)
	case "kick_user":
		ctl.handleKickUser(id, c, data)
	case "player_state":
		ctl.handlePlayerState(id, c, data)
	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
	}
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

// sendOpError reports a recoverable per-operation failure back to the
// originating connection only. Room state is untouched by then.
func (ctl *SignalWSController) sendOpError(c *WsSignalConn, op string, err error) {
	ctl.sendJSON(c, events.Error{
		Type:   events.TypeError,
		Op:     op,
		Reason: err.Error(),
	})
}

func (ctl *SignalWSController) sendBadPayload(c *WsSignalConn, op string, err error) {
	log.Error().Err(err).Str("module", "signal").Str("op", op).Msg("bad payload")
	ctl.sendJSON(c, events.Error{
		Type:   events.TypeError,
		Op:     op,
		Reason: "bad_payload",
	})
}
