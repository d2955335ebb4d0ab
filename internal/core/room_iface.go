package core

import (
	"errors"

	"github.com/dkeye/Together/internal/domain"
)

var (
	ErrRoomFull     = errors.New("room full")
	ErrNotMember    = errors.New("not a member")
	ErrForbidden    = errors.New("not authorized")
	ErrBadTarget    = errors.New("bad target")
	ErrPendingLimit = errors.New("too many pending submissions")
)

type PlaybackState string

const (
	PlaybackPaused  PlaybackState = "paused"
	PlaybackPlaying PlaybackState = "playing"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SentTo  int
	Dropped []MemberSession
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	ID       domain.UserID `json:"id"`
	Username string        `json:"username"`
}

// LeaveResult tells the caller what a removal changed.
type LeaveResult struct {
	Left    bool
	Empty   bool
	NewHost *domain.User
}

// RoomService is the core-facing API of a room. It owns membership,
// host, queue and playback state behind a single mutex, so every
// operation below is atomic with respect to the same room. It never
// touches transport resources beyond TrySend.
type RoomService interface {
	Room() *domain.Room
	HostID() domain.UserID
	MemberCount() int
	IsMember(id domain.UserID) bool
	MembersSnapshot() []MemberDTO
	QueueSnapshot() []domain.Video
	Playback() PlaybackState
	Session(id domain.UserID) (MemberSession, bool)

	Join(ms MemberSession) (rejoined bool, err error)
	Leave(id domain.UserID) LeaveResult
	Kick(requester, target domain.UserID) error
	TransferHost(requester, target domain.UserID) error
	ApplyPlayback(requester domain.UserID, state PlaybackState) bool

	BeginSubmission(id domain.UserID, limit int) error
	EndSubmission(id domain.UserID)
	AppendVideo(v domain.Video) (first bool, err error)
	RemoveVideo(requester domain.UserID, index int) (removed bool, err error)
	Advance() (next *domain.Video, queue []domain.Video)
	ClearQueue(requester domain.UserID) error

	Broadcast(except domain.UserID, data Frame) PublishResult
	SendTo(id domain.UserID, data Frame) bool
}

// RoomInfo is the directory view for the active-rooms listing.
type RoomInfo struct {
	ID          domain.RoomID     `json:"id"`
	Name        domain.RoomName   `json:"name"`
	Visibility  domain.Visibility `json:"visibility"`
	Genre       string            `json:"genre"`
	MemberCount int               `json:"member_count"`
	MaxMembers  int               `json:"max_members"`
}

// RoomRegistry owns creation, lookup and deletion of rooms. All other
// components receive a RoomService by id and mutate it in place.
type RoomRegistry interface {
	Create(name domain.RoomName, host *domain.User, visibility domain.Visibility, genre string, maxMembers int) (RoomService, error)
	Get(id domain.RoomID) (RoomService, bool)
	Delete(id domain.RoomID) bool
	ListByActivity() []RoomInfo
}
