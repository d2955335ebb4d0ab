package app

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Together/internal/core"
	"github.com/dkeye/Together/internal/domain"
)

// RoomManagerImpl implements core.RoomRegistry with an in-memory table.
// It is the single owner of room creation and deletion.
type RoomManagerImpl struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]core.RoomService
}

func NewRoomManager() *RoomManagerImpl {
	return &RoomManagerImpl{rooms: make(map[domain.RoomID]core.RoomService)}
}

func (f *RoomManagerImpl) Create(
	name domain.RoomName,
	host *domain.User,
	visibility domain.Visibility,
	genre string,
	maxMembers int,
) (core.RoomService, error) {
	id := domain.RoomID(uuid.NewString())
	meta, err := domain.NewRoom(id, name, visibility, genre, maxMembers)
	if err != nil {
		return nil, err
	}
	room := core.NewRoomService(meta, host.ID)

	f.mu.Lock()
	f.rooms[id] = room
	f.mu.Unlock()

	log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("name", string(name)).Str("host", string(host.ID)).Msg("room created")
	return room, nil
}

func (f *RoomManagerImpl) Get(id domain.RoomID) (core.RoomService, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[id]
	return room, ok
}

func (f *RoomManagerImpl) Delete(id domain.RoomID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[id]; !ok {
		return false
	}
	delete(f.rooms, id)
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room deleted")
	return true
}

// ListByActivity orders by member count descending; ties go to the
// older room.
func (f *RoomManagerImpl) ListByActivity() []core.RoomInfo {
	f.mu.RLock()
	type entry struct {
		info    core.RoomInfo
		created int64
	}
	entries := make([]entry, 0, len(f.rooms))
	for _, r := range f.rooms {
		meta := r.Room()
		entries = append(entries, entry{
			info: core.RoomInfo{
				ID:          meta.ID,
				Name:        meta.Name,
				Visibility:  meta.Visibility,
				Genre:       meta.Genre,
				MemberCount: r.MemberCount(),
				MaxMembers:  meta.MaxMembers,
			},
			created: meta.CreatedAt.UnixNano(),
		})
	}
	f.mu.RUnlock()

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].info.MemberCount != entries[j].info.MemberCount {
			return entries[i].info.MemberCount > entries[j].info.MemberCount
		}
		return entries[i].created < entries[j].created
	})

	out := make([]core.RoomInfo, len(entries))
	for i, e := range entries {
		out[i] = e.info
	}
	return out
}
