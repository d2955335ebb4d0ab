package app

import (
	"testing"
	"time"
)

func TestChatLimiter_cooldown(t *testing.T) {
	rl := NewChatLimiter(1, 50*time.Millisecond)

	if !rl.Allow("u1") {
		t.Fatal("first message should pass")
	}
	if rl.Allow("u1") {
		t.Error("second message inside the window should be blocked")
	}

	time.Sleep(60 * time.Millisecond)
	if !rl.Allow("u1") {
		t.Error("message after the window should pass")
	}
}

func TestChatLimiter_perIdentity(t *testing.T) {
	rl := NewChatLimiter(1, time.Minute)

	if !rl.Allow("u1") {
		t.Fatal("u1 first message should pass")
	}
	if !rl.Allow("u2") {
		t.Error("u2 must not share u1's window")
	}
}

func TestChatLimiter_burst(t *testing.T) {
	rl := NewChatLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !rl.Allow("u1") {
			t.Fatalf("message %d should pass", i)
		}
	}
	if rl.Allow("u1") {
		t.Error("message beyond the burst should be blocked")
	}
}
