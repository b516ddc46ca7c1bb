package service

import (
	"testing"

	"go.uber.org/zap"
)

func TestHubRegisterAndUnregister(t *testing.T) {
	h := NewRoomHub(1024, 1024, zap.NewNop())

	a, cleanupA := h.Register("room-1", "peer-a", "user-a", nil)
	_, cleanupB := h.Register("room-1", "peer-b", "user-b", nil)
	if got := h.RoomSize("room-1"); got != 2 {
		t.Fatalf("room size = %d, want 2", got)
	}

	cleanupA()
	if got := h.RoomSize("room-1"); got != 1 {
		t.Fatalf("room size after cleanup = %d, want 1", got)
	}
	// Double cleanup must not close the send channel twice.
	cleanupA()

	select {
	case _, ok := <-a.Send:
		if ok {
			t.Fatal("unexpected frame on closed client")
		}
	default:
		t.Fatal("send channel not closed on unregister")
	}

	cleanupB()
	if got := h.RoomSize("room-1"); got != 0 {
		t.Fatalf("room size after all cleanups = %d, want 0", got)
	}
}

func TestHubPushAfterUnregisterIsDiscarded(t *testing.T) {
	h := NewRoomHub(1024, 1024, zap.NewNop())

	c, cleanup := h.Register("room-1", "peer-a", "user-a", nil)
	cleanup()

	// A delayed push (late-sync timer, in-flight broadcast) must not hit the
	// closed send channel.
	h.Push(c, []byte(`{"event":"session-started"}`))

	if _, ok := <-c.Send; ok {
		t.Fatal("frame delivered to unregistered client")
	}
}

func TestHubSessionMappingLifecycle(t *testing.T) {
	h := NewRoomHub(1024, 1024, zap.NewNop())

	if _, ok := h.SessionID("room-1"); ok {
		t.Fatal("fresh hub has a session mapping")
	}
	h.SetSession("room-1", "sess-1")
	h.SetSession("room-1", "sess-2") // overwrite
	if id, ok := h.SessionID("room-1"); !ok || id != "sess-2" {
		t.Fatalf("mapping = %q/%v, want sess-2", id, ok)
	}

	if id, ok := h.ClearSession("room-1"); !ok || id != "sess-2" {
		t.Fatalf("cleared = %q/%v, want sess-2", id, ok)
	}
	if _, ok := h.ClearSession("room-1"); ok {
		t.Fatal("second clear reported a mapping")
	}
}

func TestHubRestoreSessions(t *testing.T) {
	h := NewRoomHub(1024, 1024, zap.NewNop())
	h.RestoreSessions(map[string]string{"room-1": "sess-1", "room-2": "sess-2"})
	if id, ok := h.SessionID("room-2"); !ok || id != "sess-2" {
		t.Fatalf("restored mapping = %q/%v, want sess-2", id, ok)
	}
}

func TestHubBroadcastSkipsFullBuffers(t *testing.T) {
	h := NewRoomHub(1024, 1024, zap.NewNop())
	c, _ := h.Register("room-1", "peer-a", "user-a", nil)

	frame := NewEvent(EventStopAllRecorders, nil)
	for i := 0; i < cap(c.Send)+10; i++ {
		h.Broadcast("room-1", frame) // must not block once the buffer fills
	}
	if got := len(c.Send); got != cap(c.Send) {
		t.Fatalf("queued %d frames, want full buffer %d", got, cap(c.Send))
	}
}
