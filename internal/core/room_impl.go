package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Together/internal/domain"
)

// roomImpl is a threadsafe in-memory room. Members keep join order so
// host re-election is deterministic (oldest member first). It never
// closes adapter-owned resources.
type roomImpl struct {
	room *domain.Room

	mu       sync.RWMutex
	hostID   domain.UserID
	members  []MemberSession // join order
	byID     map[domain.UserID]MemberSession
	queue    []domain.Video
	playback PlaybackState
	pending  map[domain.UserID]int
}

func NewRoomService(room *domain.Room, host domain.UserID) RoomService {
	return &roomImpl{
		room:     room,
		hostID:   host,
		byID:     make(map[domain.UserID]MemberSession),
		playback: PlaybackPaused,
		pending:  make(map[domain.UserID]int),
	}
}

func (r *roomImpl) Room() *domain.Room { return r.room }

func (r *roomImpl) HostID() domain.UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hostID
}

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *roomImpl) IsMember(id domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok
}

func (r *roomImpl) Session(id domain.UserID) (MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ms, ok := r.byID[id]
	return ms, ok
}

func (r *roomImpl) MembersSnapshot() []MemberDTO {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MemberDTO, 0, len(r.members))
	for _, ms := range r.members {
		u := ms.User()
		out = append(out, MemberDTO{ID: u.ID, Username: u.Username})
	}
	return out
}

func (r *roomImpl) QueueSnapshot() []domain.Video {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Video, len(r.queue))
	copy(out, r.queue)
	return out
}

func (r *roomImpl) Playback() PlaybackState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.playback
}

// Join is idempotent: joining twice reports rejoined=true and leaves
// the member list untouched. The first member to arrive becomes host,
// which covers the creator joining their fresh room.
func (r *roomImpl) Join(ms MemberSession) (bool, error) {
	id := ms.User().ID
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; ok {
		// A reconnect replaces the stored session so fan-out reaches
		// the live connection, not the superseded one.
		r.byID[id] = ms
		for i, m := range r.members {
			if m.User().ID == id {
				r.members[i] = ms
				break
			}
		}
		return true, nil
	}
	if len(r.members) >= r.room.MaxMembers {
		return false, ErrRoomFull
	}
	r.members = append(r.members, ms)
	r.byID[id] = ms
	if len(r.members) == 1 {
		r.hostID = id
	}
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("user", string(id)).Msg("member joined")
	return false, nil
}

func (r *roomImpl) Leave(id domain.UserID) LeaveResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return LeaveResult{}
	}
	r.removeLocked(id)
	res := LeaveResult{Left: true}
	if len(r.members) == 0 {
		res.Empty = true
		r.queue = nil
		return res
	}
	if r.hostID == id {
		oldest := r.members[0].User()
		r.hostID = oldest.ID
		res.NewHost = oldest
		log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("host", string(oldest.ID)).Msg("host re-elected")
	}
	return res
}

func (r *roomImpl) removeLocked(id domain.UserID) {
	delete(r.byID, id)
	delete(r.pending, id)
	for i, m := range r.members {
		if m.User().ID == id {
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}
}

func (r *roomImpl) Kick(requester, target domain.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if requester != r.hostID {
		return ErrForbidden
	}
	if target == requester {
		return ErrBadTarget
	}
	if _, ok := r.byID[target]; !ok {
		return ErrNotMember
	}
	r.removeLocked(target)
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("user", string(target)).Msg("member kicked")
	return nil
}

func (r *roomImpl) TransferHost(requester, target domain.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if requester != r.hostID {
		return ErrForbidden
	}
	if target == requester {
		return ErrBadTarget
	}
	if _, ok := r.byID[target]; !ok {
		return ErrNotMember
	}
	r.hostID = target
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("host", string(target)).Msg("host transferred")
	return nil
}

// ApplyPlayback accepts transport actions from the host only. A
// follower's stray action is dropped, not rejected.
func (r *roomImpl) ApplyPlayback(requester domain.UserID, state PlaybackState) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if requester != r.hostID {
		return false
	}
	r.playback = state
	return true
}

// BeginSubmission reserves a pending queue slot before the catalog
// round-trip. limit<=0 disables the cap.
func (r *roomImpl) BeginSubmission(id domain.UserID, limit int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return ErrNotMember
	}
	if limit > 0 && r.pending[id] >= limit {
		return ErrPendingLimit
	}
	r.pending[id]++
	return nil
}

func (r *roomImpl) EndSubmission(id domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending[id] > 0 {
		r.pending[id]--
	}
}

// AppendVideo re-validates membership: the submitter may have left (or
// been kicked) while the catalog lookup was in flight.
func (r *roomImpl) AppendVideo(v domain.Video) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[v.SubmittedBy]; !ok {
		return false, ErrNotMember
	}
	r.queue = append(r.queue, v)
	return len(r.queue) == 1, nil
}

// RemoveVideo removes by index. Only the submitter or the host may
// remove an item; an out-of-range index is a silent no-op.
func (r *roomImpl) RemoveVideo(requester domain.UserID, index int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.queue) {
		return false, nil
	}
	if requester != r.hostID && requester != r.queue[index].SubmittedBy {
		return false, ErrForbidden
	}
	r.queue = append(r.queue[:index], r.queue[index+1:]...)
	return true, nil
}

func (r *roomImpl) Advance() (*domain.Video, []domain.Video) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return nil, []domain.Video{}
	}
	r.queue = r.queue[1:]
	snapshot := make([]domain.Video, len(r.queue))
	copy(snapshot, r.queue)
	if len(r.queue) == 0 {
		return nil, snapshot
	}
	next := r.queue[0]
	return &next, snapshot
}

// ClearQueue keeps the currently-playing front item, if any.
func (r *roomImpl) ClearQueue(requester domain.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if requester != r.hostID {
		return ErrForbidden
	}
	if len(r.queue) > 1 {
		r.queue = r.queue[:1]
	}
	return nil
}

// Broadcast fans a frame out to every member except the one named.
// Pass an empty id to include everyone.
func (r *roomImpl) Broadcast(except domain.UserID, data Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for _, ms := range r.members {
		if except != "" && ms.User().ID == except {
			continue
		}
		if err := ms.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, ms)
			continue
		}
		res.SentTo++
	}
	return res
}

// SendTo delivers point-to-point; a dead or missing member is a no-op.
func (r *roomImpl) SendTo(id domain.UserID, data Frame) bool {
	r.mu.RLock()
	ms, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	return ms.Signal().TrySend(data) == nil
}
