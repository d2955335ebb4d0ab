package signal

import "github.com/dkeye/Together/internal/events"

func (ctl *SignalWSController) handlePing(c *WsSignalConn) {
	ctl.sendJSON(c, events.Pong{Type: events.TypePong})
}
