package signal

import (
	"errors"
	"testing"

	"github.com/dkeye/Together/internal/core"
)

func TestTrySend_dropsEmptyFrames(t *testing.T) {
	c := &WsSignalConn{send: make(chan core.Frame, 1)}

	if err := c.TrySend(nil); err != nil {
		t.Fatalf("empty frame: %v", err)
	}
	select {
	case f := <-c.send:
		t.Errorf("empty frame queued: %q", f)
	default:
	}
}

func TestTrySend_backpressure(t *testing.T) {
	c := &WsSignalConn{send: make(chan core.Frame, 1)}

	if err := c.TrySend(core.Frame("one")); err != nil {
		t.Fatalf("first frame: %v", err)
	}
	if err := c.TrySend(core.Frame("two")); !errors.Is(err, ErrBackpressure) {
		t.Errorf("full buffer: got %v, want ErrBackpressure", err)
	}
}
