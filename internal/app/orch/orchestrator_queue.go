package orch

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Together/internal/core"
	"github.com/dkeye/Together/internal/domain"
	"github.com/dkeye/Together/internal/events"
)

// AddVideo resolves the URL through the catalog and appends the item.
// The catalog round-trip runs outside any room lock; a pending slot is
// reserved first so one member cannot flood the queue with in-flight
// submissions, and membership is re-validated before the queue
// mutates.
func (o *Orchestrator) AddVideo(ctx context.Context, id domain.UserID, roomID domain.RoomID, url string) error {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	if err := room.BeginSubmission(id, o.QueuePendingLimit); err != nil {
		return err
	}
	defer room.EndSubmission(id)

	title, duration, err := o.Resolver.Resolve(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("url", url).Msg("catalog resolve failed")
		return ErrCouldNotAdd
	}

	video := domain.Video{
		URL:             url,
		Title:           title,
		DurationSeconds: duration,
		SubmittedBy:     id,
	}
	first, err := room.AppendVideo(video)
	if err != nil {
		return err
	}

	o.broadcast(room, "", events.QueueUpdated{
		Type:  events.TypeQueueUpdated,
		Room:  roomID,
		Queue: room.QueueSnapshot(),
	})
	if first {
		// Announce the item we appended. A later snapshot is not safe
		// here: another member's next_video can drain the queue between
		// the append and the read.
		o.broadcast(room, "", events.NowPlaying{
			Type:  events.TypeNowPlaying,
			Room:  roomID,
			Video: &video,
		})
	}
	return nil
}

// RemoveVideo removes by index; only the submitter or the host may do
// it. Removing the front does not auto-advance.
func (o *Orchestrator) RemoveVideo(id domain.UserID, roomID domain.RoomID, index int) error {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	removed, err := room.RemoveVideo(id, index)
	if err != nil {
		return err
	}
	if !removed {
		return nil
	}
	o.broadcast(room, "", events.QueueUpdated{
		Type:  events.TypeQueueUpdated,
		Room:  roomID,
		Queue: room.QueueSnapshot(),
	})
	return nil
}

// NextVideo pops the front and announces the new now-playing item, or
// the empty sentinel when the queue drains.
func (o *Orchestrator) NextVideo(id domain.UserID, roomID domain.RoomID) error {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	if !room.IsMember(id) {
		return core.ErrNotMember
	}
	next, queue := room.Advance()
	o.broadcast(room, "", events.NowPlaying{
		Type:  events.TypeNowPlaying,
		Room:  roomID,
		Video: next,
	})
	o.broadcast(room, "", events.QueueUpdated{
		Type:  events.TypeQueueUpdated,
		Room:  roomID,
		Queue: queue,
	})
	return nil
}

// ClearPlaylist drops everything behind the currently-playing item.
func (o *Orchestrator) ClearPlaylist(id domain.UserID, roomID domain.RoomID) error {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	if err := room.ClearQueue(id); err != nil {
		return err
	}
	o.broadcast(room, "", events.QueueUpdated{
		Type:  events.TypeQueueUpdated,
		Room:  roomID,
		Queue: room.QueueSnapshot(),
	})
	return nil
}
