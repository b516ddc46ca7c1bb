package service

import (
	"strings"
	"testing"
)

func TestNewRoomIDFormat(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		id := newRoomID()
		if !strings.HasPrefix(id, "rm_") {
			t.Fatalf("room id %q missing rm_ prefix", id)
		}
		if len(id) != len("rm_")+10 {
			t.Fatalf("room id %q has length %d, want %d", id, len(id), len("rm_")+10)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("room id %q generated twice", id)
		}
		seen[id] = struct{}{}
	}
}
