package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Together/internal/core"
	"github.com/dkeye/Together/internal/domain"
)

type sessionEntry struct {
	Session core.MemberSession
	Cancel  context.CancelFunc
	Rooms   map[domain.RoomID]struct{}
}

// Registry is the identity map: stable user id -> live session. Rooms
// key membership by identity, never by connection, so this is the only
// place a connection handle is looked up.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.UserID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[domain.UserID]*sessionEntry)}
}

// Bind registers the identity's current connection. A later connection
// silently supersedes an earlier one; the superseded connection's
// context is canceled so its pumps wind down.
func (r *Registry) Bind(id domain.UserID, sess core.MemberSession, cancel context.CancelFunc) {
	r.mu.Lock()
	old := r.sessions[id]
	// Membership is keyed by identity, not connection, so it carries
	// over when a reconnect supersedes the entry.
	rooms := make(map[domain.RoomID]struct{})
	if old != nil {
		rooms = old.Rooms
	}
	r.sessions[id] = &sessionEntry{
		Session: sess,
		Cancel:  cancel,
		Rooms:   rooms,
	}
	r.mu.Unlock()
	if old != nil && old.Cancel != nil {
		old.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("user", string(id)).Msg("bound session")
}

func (r *Registry) Session(id domain.UserID) (core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[id]; ok {
		return e.Session, true
	}
	return nil, false
}

// UnbindIf removes the entry only when it still refers to the given
// session, so a superseded connection's cleanup cannot evict its
// replacement. On success it returns the memberships the entry held,
// letting the caller run room cleanup exactly once. Safe to call for
// identities that never registered.
func (r *Registry) UnbindIf(id domain.UserID, sess core.MemberSession) ([]domain.RoomID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok || e.Session != sess {
		return nil, false
	}
	delete(r.sessions, id)
	rooms := make([]domain.RoomID, 0, len(e.Rooms))
	for rid := range e.Rooms {
		rooms = append(rooms, rid)
	}
	log.Info().Str("module", "app.registry").Str("user", string(id)).Msg("unbound session")
	return rooms, true
}

func (r *Registry) AddRoom(id domain.UserID, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[id]; ok {
		e.Rooms[roomID] = struct{}{}
	}
}

func (r *Registry) RemoveRoom(id domain.UserID, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[id]; ok {
		delete(e.Rooms, roomID)
	}
}

// RoomsOf snapshots the identity's active memberships.
func (r *Registry) RoomsOf(id domain.UserID) []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil
	}
	out := make([]domain.RoomID, 0, len(e.Rooms))
	for rid := range e.Rooms {
		out = append(out, rid)
	}
	return out
}

func (r *Registry) Cancel(id domain.UserID) bool {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	return true
}
