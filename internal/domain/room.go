package domain

import (
	"errors"
	"time"
)

type (
	RoomName string
	RoomID   string
)

const (
	MaxRoomNameLen = 36

	// MaxRoomCapacity is the system-wide ceiling for max_members.
	MaxRoomCapacity = 12
)

type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

var (
	ErrRoomNameEmpty   = errors.New("room name empty")
	ErrRoomNameTooLong = errors.New("room name too long")
	ErrBadVisibility   = errors.New("visibility must be private or public")
	ErrBadGenre        = errors.New("unrecognized genre")
	ErrBadCapacity     = errors.New("capacity out of range")
)

// Genres recognized for a room's genre tag.
var Genres = map[string]struct{}{
	"pop":        {},
	"rock":       {},
	"hiphop":     {},
	"electronic": {},
	"jazz":       {},
	"classical":  {},
	"metal":      {},
	"mixed":      {},
}

// Room holds the immutable descriptor of a watch room. Mutable session
// state (members, host, queue, playback) lives in core.
type Room struct {
	ID         RoomID     `json:"id"`
	Name       RoomName   `json:"name"`
	Visibility Visibility `json:"visibility"`
	Genre      string     `json:"genre"`
	MaxMembers int        `json:"max_members"`
	CreatedAt  time.Time  `json:"-"`
}

// NewRoom validates descriptor fields against the system limits.
// The caller supplies the generated id.
func NewRoom(id RoomID, name RoomName, visibility Visibility, genre string, maxMembers int) (*Room, error) {
	if len(name) == 0 {
		return nil, ErrRoomNameEmpty
	}
	if len(name) > MaxRoomNameLen {
		return nil, ErrRoomNameTooLong
	}
	if visibility != VisibilityPrivate && visibility != VisibilityPublic {
		return nil, ErrBadVisibility
	}
	if _, ok := Genres[genre]; !ok {
		return nil, ErrBadGenre
	}
	if maxMembers < 1 || maxMembers > MaxRoomCapacity {
		return nil, ErrBadCapacity
	}
	return &Room{
		ID:         id,
		Name:       name,
		Visibility: visibility,
		Genre:      genre,
		MaxMembers: maxMembers,
		CreatedAt:  time.Now(),
	}, nil
}
