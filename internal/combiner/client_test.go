package combiner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestTriggerCombinePostsSessionID(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	if err := c.TriggerCombine(context.Background(), "sess-1"); err != nil {
		t.Fatalf("TriggerCombine: %v", err)
	}
	if gotPath != "/create-combined-video" {
		t.Fatalf("path = %q, want /create-combined-video", gotPath)
	}
	if gotBody["sessionId"] != "sess-1" {
		t.Fatalf("body = %v, want sessionId sess-1", gotBody)
	}
}

func TestTriggerCombineWorkerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	if err := c.TriggerCombine(context.Background(), "sess-1"); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestTriggerCombineWorkerUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", zap.NewNop())
	if err := c.TriggerCombine(context.Background(), "sess-1"); err == nil {
		t.Fatal("expected error for unreachable worker")
	}
}
