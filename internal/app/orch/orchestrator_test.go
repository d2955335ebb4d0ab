package orch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Together/internal/app"
	"github.com/dkeye/Together/internal/core"
	"github.com/dkeye/Together/internal/domain"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() {}

// typed decodes captured frames and returns those with the given type.
func (f *fakeConn) typed(t *testing.T, eventType string) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []map[string]any
	for _, fr := range f.frames {
		var m map[string]any
		if err := json.Unmarshal(fr, &m); err != nil {
			t.Fatalf("bad frame %s: %v", fr, err)
		}
		if m["type"] == eventType {
			out = append(out, m)
		}
	}
	return out
}

type stubResolver struct {
	title     string
	duration  int
	err       error
	onResolve func()
}

func (s *stubResolver) Resolve(ctx context.Context, url string) (string, int, error) {
	if s.onResolve != nil {
		s.onResolve()
	}
	return s.title, s.duration, s.err
}

func newCoordinator(resolver Resolver) *Orchestrator {
	if resolver == nil {
		resolver = &stubResolver{title: "a song", duration: 240}
	}
	return New(
		app.NewRegistry(),
		app.NewRoomManager(),
		resolver,
		app.NewChatLimiter(1, 50*time.Millisecond),
		nil,
		500,
		3,
	)
}

func connect(o *Orchestrator, id, name string) *fakeConn {
	conn := &fakeConn{}
	sess := core.NewMemberSession(&domain.User{ID: domain.UserID(id), Username: name}, conn)
	o.Registry.Bind(domain.UserID(id), sess, nil)
	return conn
}

func mustCreate(t *testing.T, o *Orchestrator, hostID string, maxMembers int) domain.RoomID {
	t.Helper()
	sess, ok := o.Registry.Session(domain.UserID(hostID))
	if !ok {
		t.Fatalf("no session for %s", hostID)
	}
	roomID, err := o.CreateRoom(sess.User(), "movie night", domain.VisibilityPublic, "mixed", maxMembers)
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	return roomID
}

func TestCreateRoom_doesNotAutoJoin(t *testing.T) {
	o := newCoordinator(nil)
	connect(o, "a", "A")
	roomID := mustCreate(t, o, "a", 5)

	room, ok := o.Rooms.Get(roomID)
	if !ok {
		t.Fatal("created room not resolvable")
	}
	if got := room.MemberCount(); got != 0 {
		t.Errorf("member count = %d, creator must join explicitly", got)
	}
}

func TestCreateRoom_validationPropagates(t *testing.T) {
	o := newCoordinator(nil)
	connect(o, "a", "A")
	sess, _ := o.Registry.Session("a")

	if _, err := o.CreateRoom(sess.User(), "r", domain.VisibilityPublic, "polka", 5); !errors.Is(err, domain.ErrBadGenre) {
		t.Errorf("bad genre: got %v", err)
	}
	if _, err := o.CreateRoom(sess.User(), "r", domain.VisibilityPublic, "rock", 99); !errors.Is(err, domain.ErrBadCapacity) {
		t.Errorf("over ceiling: got %v", err)
	}
}

func TestJoinRoom_notFound(t *testing.T) {
	o := newCoordinator(nil)
	connect(o, "a", "A")
	if err := o.JoinRoom("a", "ghost"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestJoinRoom_hostStatusAndRoster(t *testing.T) {
	o := newCoordinator(nil)
	aConn := connect(o, "a", "A")
	roomID := mustCreate(t, o, "a", 5)

	if err := o.JoinRoom("a", roomID); err != nil {
		t.Fatalf("join: %v", err)
	}

	statuses := aConn.typed(t, "host_status")
	if len(statuses) != 1 || statuses[0]["host"] != true {
		t.Errorf("first joiner should hear host=true, got %v", statuses)
	}
	rosters := aConn.typed(t, "room_users")
	if len(rosters) == 0 {
		t.Fatal("no room_users broadcast")
	}
	users := rosters[len(rosters)-1]["users"].([]any)
	if len(users) != 1 {
		t.Errorf("roster size = %d, want 1", len(users))
	}
}

func TestJoinRoom_capacityScenario(t *testing.T) {
	// maxMembers=2: A joins (host), B joins, C is refused and the
	// roster stays [A, B].
	o := newCoordinator(nil)
	connect(o, "a", "A")
	connect(o, "b", "B")
	connect(o, "c", "C")
	roomID := mustCreate(t, o, "a", 2)

	if err := o.JoinRoom("a", roomID); err != nil {
		t.Fatalf("a join: %v", err)
	}
	if err := o.JoinRoom("b", roomID); err != nil {
		t.Fatalf("b join: %v", err)
	}
	if err := o.JoinRoom("c", roomID); !errors.Is(err, core.ErrRoomFull) {
		t.Fatalf("c join: expected ErrRoomFull, got %v", err)
	}

	room, _ := o.Rooms.Get(roomID)
	members := room.MembersSnapshot()
	if len(members) != 2 || members[0].ID != "a" || members[1].ID != "b" {
		t.Errorf("roster = %+v, want [a b]", members)
	}
}

func TestJoinRoom_requestsHostState(t *testing.T) {
	o := newCoordinator(nil)
	aConn := connect(o, "a", "A")
	connect(o, "b", "B")
	roomID := mustCreate(t, o, "a", 5)
	_ = o.JoinRoom("a", roomID)
	_ = o.JoinRoom("b", roomID)

	reqs := aConn.typed(t, "player_state_request")
	if len(reqs) != 1 || reqs[0]["from"] != "b" {
		t.Errorf("host should receive one state request from b, got %v", reqs)
	}
}

func TestJoinRoom_catchUpNowPlaying(t *testing.T) {
	o := newCoordinator(nil)
	connect(o, "a", "A")
	bConn := connect(o, "b", "B")
	roomID := mustCreate(t, o, "a", 5)
	_ = o.JoinRoom("a", roomID)
	if err := o.AddVideo(context.Background(), "a", roomID, "https://youtu.be/dQw4w9WgXcQ"); err != nil {
		t.Fatalf("add video: %v", err)
	}

	_ = o.JoinRoom("b", roomID)
	playing := bConn.typed(t, "now_playing")
	if len(playing) == 0 {
		t.Fatal("late joiner should receive the current item")
	}
	video := playing[0]["video"].(map[string]any)
	if video["title"] != "a song" {
		t.Errorf("now playing = %v", video)
	}
}

func TestPlaybackAction_hostGated(t *testing.T) {
	o := newCoordinator(nil)
	aConn := connect(o, "a", "A")
	bConn := connect(o, "b", "B")
	roomID := mustCreate(t, o, "a", 5)
	_ = o.JoinRoom("a", roomID)
	_ = o.JoinRoom("b", roomID)

	// Follower action: silently dropped, never relayed.
	if err := o.PlaybackAction("b", roomID, ActionPlay, 1.5); err != nil {
		t.Fatalf("follower action should not error: %v", err)
	}
	room, _ := o.Rooms.Get(roomID)
	if got := room.Playback(); got != core.PlaybackPaused {
		t.Errorf("playback = %q, follower must not change it", got)
	}
	if got := aConn.typed(t, "playback_action"); len(got) != 0 {
		t.Errorf("follower action relayed: %v", got)
	}

	// Host action: state changes and everyone but the host hears it.
	if err := o.PlaybackAction("a", roomID, ActionPlay, 12.25); err != nil {
		t.Fatalf("host action: %v", err)
	}
	if got := room.Playback(); got != core.PlaybackPlaying {
		t.Errorf("playback = %q, want playing", got)
	}
	relayed := bConn.typed(t, "playback_action")
	if len(relayed) != 1 || relayed[0]["action"] != "play" || relayed[0]["time"] != 12.25 {
		t.Errorf("relay to follower = %v", relayed)
	}
	if got := aConn.typed(t, "playback_action"); len(got) != 0 {
		t.Errorf("host echoed its own action: %v", got)
	}
}

func TestTransferHost(t *testing.T) {
	o := newCoordinator(nil)
	aConn := connect(o, "a", "A")
	bConn := connect(o, "b", "B")
	roomID := mustCreate(t, o, "a", 5)
	_ = o.JoinRoom("a", roomID)
	_ = o.JoinRoom("b", roomID)

	if err := o.TransferHost("b", roomID, "a"); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("non-host transfer: got %v", err)
	}
	if err := o.TransferHost("a", roomID, "b"); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	bStatuses := bConn.typed(t, "host_status")
	if len(bStatuses) == 0 || bStatuses[len(bStatuses)-1]["host"] != true {
		t.Errorf("new host notice missing: %v", bStatuses)
	}
	aStatuses := aConn.typed(t, "host_status")
	if len(aStatuses) == 0 || aStatuses[len(aStatuses)-1]["host"] != false {
		t.Errorf("old host notice missing: %v", aStatuses)
	}
}

func TestSendPlayerState(t *testing.T) {
	o := newCoordinator(nil)
	connect(o, "a", "A")
	bConn := connect(o, "b", "B")
	roomID := mustCreate(t, o, "a", 5)
	_ = o.JoinRoom("a", roomID)
	_ = o.JoinRoom("b", roomID)

	// Only the host's answer reaches the target.
	if err := o.SendPlayerState("b", roomID, "a", 5, "playing"); err != nil {
		t.Fatalf("non-host state should be ignored, got %v", err)
	}
	if err := o.SendPlayerState("a", roomID, "b", 33.5, "playing"); err != nil {
		t.Fatalf("host state: %v", err)
	}
	states := bConn.typed(t, "player_state")
	if len(states) != 1 || states[0]["time"] != 33.5 {
		t.Errorf("player state = %v", states)
	}
}

func TestChatMessage_echoAndCooldown(t *testing.T) {
	o := newCoordinator(nil)
	aConn := connect(o, "a", "A")
	bConn := connect(o, "b", "B")
	roomID := mustCreate(t, o, "a", 5)
	_ = o.JoinRoom("a", roomID)
	_ = o.JoinRoom("b", roomID)

	if err := o.ChatMessage("a", roomID, "hello"); err != nil {
		t.Fatalf("chat: %v", err)
	}
	if err := o.ChatMessage("a", roomID, "again"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	// Exactly one broadcast, echoed to the sender too.
	for name, conn := range map[string]*fakeConn{"a": aConn, "b": bConn} {
		msgs := conn.typed(t, "chat_message")
		if len(msgs) != 1 {
			t.Fatalf("%s received %d chat messages, want 1", name, len(msgs))
		}
		if msgs[0]["text"] != "hello" || msgs[0]["username"] != "A" {
			t.Errorf("%s message = %v", name, msgs[0])
		}
	}
}

func TestChatMessage_validation(t *testing.T) {
	o := newCoordinator(nil)
	connect(o, "a", "A")
	connect(o, "z", "Z")
	roomID := mustCreate(t, o, "a", 5)
	_ = o.JoinRoom("a", roomID)

	if err := o.ChatMessage("a", "ghost", "hi"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("unknown room: got %v", err)
	}
	if err := o.ChatMessage("z", roomID, "hi"); !errors.Is(err, core.ErrNotMember) {
		t.Errorf("non-member: got %v", err)
	}
	if err := o.ChatMessage("a", roomID, ""); !errors.Is(err, ErrMessageEmpty) {
		t.Errorf("empty: got %v", err)
	}

	o.ChatMaxLen = 4
	if err := o.ChatMessage("a", roomID, "hello"); !errors.Is(err, ErrMessageTooLong) {
		t.Errorf("too long: got %v", err)
	}
}

func TestAddVideo_broadcastsQueueAndFirstItem(t *testing.T) {
	o := newCoordinator(nil)
	aConn := connect(o, "a", "A")
	roomID := mustCreate(t, o, "a", 5)
	_ = o.JoinRoom("a", roomID)

	if err := o.AddVideo(context.Background(), "a", roomID, "https://youtu.be/dQw4w9WgXcQ"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := len(aConn.typed(t, "now_playing")); got != 1 {
		t.Errorf("first add should announce now playing, got %d", got)
	}

	if err := o.AddVideo(context.Background(), "a", roomID, "https://youtu.be/dQw4w9WgXcQ"); err != nil {
		t.Fatalf("second add: %v", err)
	}
	if got := len(aConn.typed(t, "now_playing")); got != 1 {
		t.Errorf("second add must not re-announce now playing, got %d", got)
	}
	room, _ := o.Rooms.Get(roomID)
	if got := len(room.QueueSnapshot()); got != 2 {
		t.Errorf("queue len = %d, want 2", got)
	}
}

func TestAddVideo_resolveFailure(t *testing.T) {
	o := newCoordinator(&stubResolver{err: errors.New("quota exceeded")})
	connect(o, "a", "A")
	roomID := mustCreate(t, o, "a", 5)
	_ = o.JoinRoom("a", roomID)

	if err := o.AddVideo(context.Background(), "a", roomID, "https://youtu.be/dQw4w9WgXcQ"); !errors.Is(err, ErrCouldNotAdd) {
		t.Fatalf("expected ErrCouldNotAdd, got %v", err)
	}
	room, _ := o.Rooms.Get(roomID)
	if got := len(room.QueueSnapshot()); got != 0 {
		t.Errorf("failed add mutated the queue, len=%d", got)
	}
}

func TestAddVideo_memberLeftDuringResolve(t *testing.T) {
	resolver := &stubResolver{title: "t", duration: 1}
	o := newCoordinator(resolver)
	connect(o, "a", "A")
	connect(o, "b", "B")
	roomID := mustCreate(t, o, "a", 5)
	_ = o.JoinRoom("a", roomID)
	_ = o.JoinRoom("b", roomID)

	// The submitter leaves while the catalog call is in flight.
	resolver.onResolve = func() { _ = o.LeaveRoom("b", roomID) }

	if err := o.AddVideo(context.Background(), "b", roomID, "https://youtu.be/dQw4w9WgXcQ"); !errors.Is(err, core.ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
	room, _ := o.Rooms.Get(roomID)
	if got := len(room.QueueSnapshot()); got != 0 {
		t.Errorf("queue mutated by a departed member, len=%d", got)
	}
}

type drainedQueueRoom struct{ core.RoomService }

func (drainedQueueRoom) QueueSnapshot() []domain.Video { return nil }

type drainedQueueRegistry struct{ core.RoomRegistry }

func (d drainedQueueRegistry) Get(id domain.RoomID) (core.RoomService, bool) {
	room, ok := d.RoomRegistry.Get(id)
	if !ok {
		return nil, false
	}
	return drainedQueueRoom{room}, true
}

func TestAddVideo_announcesAppendedItemEvenIfQueueDrains(t *testing.T) {
	// Another member's next_video can empty the queue right after the
	// append; the first-item announcement must carry the appended item
	// rather than read the queue back.
	o := newCoordinator(nil)
	aConn := connect(o, "a", "A")
	roomID := mustCreate(t, o, "a", 5)
	_ = o.JoinRoom("a", roomID)
	o.Rooms = drainedQueueRegistry{o.Rooms}

	if err := o.AddVideo(context.Background(), "a", roomID, "https://youtu.be/dQw4w9WgXcQ"); err != nil {
		t.Fatalf("add: %v", err)
	}
	playing := aConn.typed(t, "now_playing")
	if len(playing) != 1 {
		t.Fatalf("now_playing count = %d, want 1", len(playing))
	}
	video := playing[0]["video"].(map[string]any)
	if video["url"] != "https://youtu.be/dQw4w9WgXcQ" {
		t.Errorf("announced video = %v", video)
	}
}

func TestNextVideo_fifo(t *testing.T) {
	o := newCoordinator(&stubResolver{title: "t", duration: 1})
	aConn := connect(o, "a", "A")
	roomID := mustCreate(t, o, "a", 5)
	_ = o.JoinRoom("a", roomID)
	_ = o.AddVideo(context.Background(), "a", roomID, "https://youtu.be/aaaaaaaaaaa")
	_ = o.AddVideo(context.Background(), "a", roomID, "https://youtu.be/bbbbbbbbbbb")

	if err := o.NextVideo("a", roomID); err != nil {
		t.Fatalf("next: %v", err)
	}
	playing := aConn.typed(t, "now_playing")
	last := playing[len(playing)-1]
	video := last["video"].(map[string]any)
	if video["url"] != "https://youtu.be/bbbbbbbbbbb" {
		t.Errorf("now playing = %v, want second item", video)
	}

	// Draining the queue announces the empty sentinel.
	if err := o.NextVideo("a", roomID); err != nil {
		t.Fatalf("next: %v", err)
	}
	playing = aConn.typed(t, "now_playing")
	if playing[len(playing)-1]["video"] != nil {
		t.Errorf("expected empty sentinel, got %v", playing[len(playing)-1])
	}
}

func TestLeaveRoom_lastMemberDeletesRoom(t *testing.T) {
	o := newCoordinator(nil)
	connect(o, "a", "A")
	roomID := mustCreate(t, o, "a", 5)
	_ = o.JoinRoom("a", roomID)

	if err := o.LeaveRoom("a", roomID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if _, ok := o.Rooms.Get(roomID); ok {
		t.Error("empty room should be deleted")
	}
	if err := o.JoinRoom("a", roomID); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("stale id join: got %v", err)
	}
}

func TestDisconnect_appliesLeaveLogic(t *testing.T) {
	o := newCoordinator(nil)
	connect(o, "a", "A")
	bConn := connect(o, "b", "B")
	roomID := mustCreate(t, o, "a", 5)
	_ = o.JoinRoom("a", roomID)
	_ = o.JoinRoom("b", roomID)

	sess, _ := o.Registry.Session("a")
	o.Disconnect("a", sess)

	room, ok := o.Rooms.Get(roomID)
	if !ok {
		t.Fatal("room should survive with one member left")
	}
	if got := room.HostID(); got != "b" {
		t.Errorf("host = %q, want b", got)
	}
	statuses := bConn.typed(t, "host_status")
	if len(statuses) == 0 || statuses[len(statuses)-1]["host"] != true {
		t.Errorf("new host notice missing: %v", statuses)
	}
	if _, ok := o.Registry.Session("a"); ok {
		t.Error("identity still registered after disconnect")
	}
}

func TestDisconnect_staleConnectionLeavesLiveStateAlone(t *testing.T) {
	o := newCoordinator(nil)
	conn1 := &fakeConn{}
	sess1 := core.NewMemberSession(&domain.User{ID: "a", Username: "A"}, conn1)
	o.Registry.Bind("a", sess1, nil)
	roomID := mustCreate(t, o, "a", 5)
	_ = o.JoinRoom("a", roomID)

	// A reconnect supersedes the entry and re-joins; the old pump's
	// cleanup then fires.
	conn2 := &fakeConn{}
	sess2 := core.NewMemberSession(&domain.User{ID: "a", Username: "A"}, conn2)
	o.Registry.Bind("a", sess2, nil)
	_ = o.JoinRoom("a", roomID)

	o.Disconnect("a", sess1)

	room, ok := o.Rooms.Get(roomID)
	if !ok {
		t.Fatal("room torn down by a superseded connection's cleanup")
	}
	if !room.IsMember("a") {
		t.Error("live membership evicted by stale cleanup")
	}
	if got, ok := o.Registry.Session("a"); !ok || got != sess2 {
		t.Error("current session unbound by stale cleanup")
	}
}

func TestDisconnect_reconnectWithoutRejoinStillLeavesRooms(t *testing.T) {
	o := newCoordinator(nil)
	connect(o, "a", "A")
	roomID := mustCreate(t, o, "a", 5)
	_ = o.JoinRoom("a", roomID)

	// Reconnect, never re-join, then drop for good. The membership
	// carried over on supersede, so the final disconnect must still
	// empty and delete the room.
	conn2 := &fakeConn{}
	sess2 := core.NewMemberSession(&domain.User{ID: "a", Username: "A"}, conn2)
	o.Registry.Bind("a", sess2, nil)
	o.Disconnect("a", sess2)

	if _, ok := o.Rooms.Get(roomID); ok {
		t.Error("empty room should be deleted after the final disconnect")
	}
}

func TestDisconnect_neverRegisteredIsSafe(t *testing.T) {
	o := newCoordinator(nil)
	sess := core.NewMemberSession(&domain.User{ID: "ghost", Username: "G"}, &fakeConn{})
	o.Disconnect("ghost", sess)
}

func TestDeleteRoom(t *testing.T) {
	o := newCoordinator(nil)
	connect(o, "a", "A")
	bConn := connect(o, "b", "B")
	roomID := mustCreate(t, o, "a", 5)
	_ = o.JoinRoom("a", roomID)
	_ = o.JoinRoom("b", roomID)

	if err := o.DeleteRoom("b", roomID); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("non-host delete: got %v", err)
	}
	if err := o.DeleteRoom("a", roomID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := len(bConn.typed(t, "room_closed")); got != 1 {
		t.Errorf("members should hear room_closed, got %d", got)
	}
	if _, ok := o.Rooms.Get(roomID); ok {
		t.Error("room still resolvable after delete")
	}
	if err := o.DeleteRoom("a", roomID); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("repeat delete: got %v", err)
	}
	if got := o.Registry.RoomsOf("b"); len(got) != 0 {
		t.Errorf("membership set not cleaned: %v", got)
	}
}

func TestKickUser(t *testing.T) {
	o := newCoordinator(nil)
	connect(o, "a", "A")
	bConn := connect(o, "b", "B")
	roomID := mustCreate(t, o, "a", 5)
	_ = o.JoinRoom("a", roomID)
	_ = o.JoinRoom("b", roomID)

	if err := o.KickUser("b", roomID, "a"); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("non-host kick: got %v", err)
	}
	if err := o.KickUser("a", roomID, "b"); err != nil {
		t.Fatalf("kick: %v", err)
	}
	if got := len(bConn.typed(t, "kicked")); got != 1 {
		t.Errorf("kicked notice = %d, want 1", got)
	}
	room, _ := o.Rooms.Get(roomID)
	if room.IsMember("b") {
		t.Error("b still a member after kick")
	}
	if got := o.Registry.RoomsOf("b"); len(got) != 0 {
		t.Errorf("b's membership set not cleaned: %v", got)
	}
}

func TestListRooms_subscribesToDirectory(t *testing.T) {
	o := newCoordinator(nil)
	aConn := connect(o, "a", "A")
	connect(o, "b", "B")

	rooms, err := o.ListRooms("a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rooms) != 0 {
		t.Errorf("expected empty directory, got %v", rooms)
	}

	// A later create pushes a refresh to the subscriber.
	mustCreate(t, o, "b", 5)
	dirs := aConn.typed(t, "room_directory")
	if len(dirs) != 1 {
		t.Fatalf("directory refreshes = %d, want 1", len(dirs))
	}
	if got := dirs[0]["rooms"].([]any); len(got) != 1 {
		t.Errorf("directory rooms = %v, want 1 entry", got)
	}
}
