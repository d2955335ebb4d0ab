package app

import (
	"errors"
	"testing"

	"github.com/dkeye/Together/internal/core"
	"github.com/dkeye/Together/internal/domain"
)

var testHost = &domain.User{ID: "h1", Username: "host"}

func TestRoomManager_Create_validation(t *testing.T) {
	rm := NewRoomManager()

	if _, err := rm.Create("", testHost, domain.VisibilityPublic, "rock", 5); !errors.Is(err, domain.ErrRoomNameEmpty) {
		t.Errorf("empty name: got %v", err)
	}
	if _, err := rm.Create("r", testHost, "secret", "rock", 5); !errors.Is(err, domain.ErrBadVisibility) {
		t.Errorf("bad visibility: got %v", err)
	}
	if _, err := rm.Create("r", testHost, domain.VisibilityPublic, "polka", 5); !errors.Is(err, domain.ErrBadGenre) {
		t.Errorf("bad genre: got %v", err)
	}
	if _, err := rm.Create("r", testHost, domain.VisibilityPublic, "rock", domain.MaxRoomCapacity+1); !errors.Is(err, domain.ErrBadCapacity) {
		t.Errorf("over ceiling: got %v", err)
	}
	if _, err := rm.Create("r", testHost, domain.VisibilityPublic, "rock", 0); !errors.Is(err, domain.ErrBadCapacity) {
		t.Errorf("zero capacity: got %v", err)
	}
}

func TestRoomManager_Create_uniqueIDs(t *testing.T) {
	rm := NewRoomManager()
	a, err := rm.Create("a", testHost, domain.VisibilityPublic, "rock", 5)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, _ := rm.Create("b", testHost, domain.VisibilityPublic, "rock", 5)
	if a.Room().ID == b.Room().ID {
		t.Error("two rooms share an id")
	}
	if a.Room().CreatedAt.IsZero() {
		t.Error("created timestamp not set")
	}
}

func TestRoomManager_Get_absent(t *testing.T) {
	rm := NewRoomManager()
	if _, ok := rm.Get("nope"); ok {
		t.Error("lookup of absent room should report ok=false")
	}
}

func TestRoomManager_Delete_idempotent(t *testing.T) {
	rm := NewRoomManager()
	room, _ := rm.Create("a", testHost, domain.VisibilityPublic, "rock", 5)
	id := room.Room().ID

	if !rm.Delete(id) {
		t.Error("first delete should succeed")
	}
	if rm.Delete(id) {
		t.Error("second delete should report false")
	}
	if _, ok := rm.Get(id); ok {
		t.Error("room still resolvable after delete")
	}
}

func TestRoomManager_ListByActivity(t *testing.T) {
	rm := NewRoomManager()
	quiet, _ := rm.Create("quiet", testHost, domain.VisibilityPublic, "jazz", 5)
	busy, _ := rm.Create("busy", testHost, domain.VisibilityPublic, "rock", 5)
	for i, id := range []domain.UserID{"u1", "u2", "u3"} {
		sess := core.NewMemberSession(&domain.User{ID: id, Username: string(rune('a' + i))}, nopConn{})
		if _, err := busy.Join(sess); err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	list := rm.ListByActivity()
	if len(list) != 2 {
		t.Fatalf("listed %d rooms, want 2", len(list))
	}
	if list[0].ID != busy.Room().ID || list[0].MemberCount != 3 {
		t.Errorf("most active first: got %+v", list[0])
	}
	if list[1].ID != quiet.Room().ID {
		t.Errorf("quiet room second: got %+v", list[1])
	}
}

func TestRoomManager_ListByActivity_tieBreakByAge(t *testing.T) {
	rm := NewRoomManager()
	older, _ := rm.Create("older", testHost, domain.VisibilityPublic, "jazz", 5)
	newer, _ := rm.Create("newer", testHost, domain.VisibilityPublic, "jazz", 5)

	list := rm.ListByActivity()
	if list[0].ID != older.Room().ID || list[1].ID != newer.Room().ID {
		t.Errorf("tie should order by creation: got %v then %v", list[0].Name, list[1].Name)
	}
}

type nopConn struct{}

func (nopConn) TrySend(core.Frame) error { return nil }
func (nopConn) Close()                   {}
