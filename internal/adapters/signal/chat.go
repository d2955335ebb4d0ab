package signal

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/Together/internal/app/orch"
	"github.com/dkeye/Together/internal/domain"
	"github.com/dkeye/Together/internal/events"
)

func (ctl *SignalWSController) handleChat(id domain.UserID, c *WsSignalConn, data []byte) {
	type payload struct {
		Type string `json:"type"`
		Room string `json:"room"`
		Text string `json:"text"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendBadPayload(c, "chat_message", err)
		return
	}
	err := ctl.Orch.ChatMessage(id, domain.RoomID(p.Room), p.Text)
	if err == nil {
		return
	}
	// Content and cooldown rejections have a dedicated event so chat
	// UIs can render them inline; the rest use the generic error.
	if errors.Is(err, orch.ErrMessageEmpty) || errors.Is(err, orch.ErrMessageTooLong) || errors.Is(err, orch.ErrRateLimited) {
		ctl.sendJSON(c, events.ChatError{Type: events.TypeChatError, Reason: err.Error()})
		return
	}
	ctl.sendOpError(c, "chat_message", err)
}
