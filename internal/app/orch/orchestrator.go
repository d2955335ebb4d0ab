// Package orch is the room session coordinator. Every inbound event
// lands here after the signal adapter parses it; each method mutates
// room state through core.RoomService (atomic per room) and fans the
// results back out.
package orch

import (
	"context"
	"errors"
	"sync"

	"github.com/dkeye/Together/internal/app"
	"github.com/dkeye/Together/internal/core"
	"github.com/dkeye/Together/internal/domain"
	"github.com/dkeye/Together/internal/events"
	"github.com/dkeye/Together/internal/metrics"
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrNoSession      = errors.New("no live session")
	ErrMessageEmpty   = errors.New("message too short")
	ErrMessageTooLong = errors.New("message too long")
	ErrRateLimited    = errors.New("too fast")
	ErrCouldNotAdd    = errors.New("could not add video")
)

// Resolver is the external catalog collaborator contract.
type Resolver interface {
	Resolve(ctx context.Context, url string) (title string, durationSeconds int, err error)
}

type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomRegistry
	Resolver Resolver
	Chat     *app.ChatLimiter
	Metrics  *metrics.Metrics

	ChatMaxLen        int
	QueuePendingLimit int

	// lobby holds connections that asked for the room directory and
	// should receive refreshes when rooms appear or disappear.
	lobbyMu sync.RWMutex
	lobby   map[domain.UserID]core.MemberSession
}

func New(
	registry *app.Registry,
	rooms core.RoomRegistry,
	resolver Resolver,
	chat *app.ChatLimiter,
	m *metrics.Metrics,
	chatMaxLen, queuePendingLimit int,
) *Orchestrator {
	return &Orchestrator{
		Registry:          registry,
		Rooms:             rooms,
		Resolver:          resolver,
		Chat:              chat,
		Metrics:           m,
		ChatMaxLen:        chatMaxLen,
		QueuePendingLimit: queuePendingLimit,
		lobby:             make(map[domain.UserID]core.MemberSession),
	}
}

func (o *Orchestrator) broadcast(room core.RoomService, except domain.UserID, v any) {
	res := room.Broadcast(except, events.Marshal(v))
	if o.Metrics != nil {
		o.Metrics.IncBroadcasts()
		o.Metrics.AddDroppedSends(len(res.Dropped))
	}
}

// sendTo delivers point-to-point through the identity map; a gone
// connection is a no-op.
func (o *Orchestrator) sendTo(id domain.UserID, v any) {
	sess, ok := o.Registry.Session(id)
	if !ok {
		return
	}
	if err := sess.Signal().TrySend(events.Marshal(v)); err != nil && o.Metrics != nil {
		o.Metrics.AddDroppedSends(1)
	}
}

func (o *Orchestrator) subscribeLobby(id domain.UserID, sess core.MemberSession) {
	o.lobbyMu.Lock()
	o.lobby[id] = sess
	o.lobbyMu.Unlock()
}

func (o *Orchestrator) unsubscribeLobby(id domain.UserID) {
	o.lobbyMu.Lock()
	delete(o.lobby, id)
	o.lobbyMu.Unlock()
}

// pushDirectory refreshes every lobby subscriber after a room is
// created or deleted. Dead subscribers are pruned on send failure.
func (o *Orchestrator) pushDirectory() {
	frame := events.Marshal(events.RoomDirectory{
		Type:  events.TypeRoomDirectory,
		Rooms: o.Rooms.ListByActivity(),
	})

	o.lobbyMu.Lock()
	defer o.lobbyMu.Unlock()
	for id, sess := range o.lobby {
		if err := sess.Signal().TrySend(frame); err != nil {
			delete(o.lobby, id)
		}
	}
}
