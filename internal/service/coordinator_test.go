package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/podcraft/studio-service/internal/errs"
	"github.com/podcraft/studio-service/internal/model"
	"go.uber.org/zap"
)

type fakeStudios struct {
	byRoom map[string]*model.Studio
}

func (f *fakeStudios) ByRoomID(_ context.Context, roomID string) (*model.Studio, error) {
	if s, ok := f.byRoom[roomID]; ok {
		return s, nil
	}
	return nil, errs.ErrStudioNotFound
}

type fakeSessions struct {
	mu   sync.Mutex
	seq  int
	rows map[string]*model.RecordingSession
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{rows: make(map[string]*model.RecordingSession)}
}

func (f *fakeSessions) Start(_ context.Context, studioID, hostID string) (*model.RecordingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	ent := &model.RecordingSession{
		ID:       fmt.Sprintf("sess-%d", f.seq),
		StudioID: studioID,
		HostID:   hostID,
		IsActive: true,
	}
	f.rows[ent.ID] = ent
	return ent, nil
}

func (f *fakeSessions) Finish(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ent, ok := f.rows[sessionID]
	if !ok {
		return errs.ErrSessionNotFound
	}
	ent.IsActive = false
	return nil
}

func (f *fakeSessions) get(sessionID string) *model.RecordingSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[sessionID]
}

type fakeRecordings struct {
	mu        sync.Mutex
	seq       int
	rows      map[string]*model.Recording
	finalized int
}

func newFakeRecordings() *fakeRecordings {
	return &fakeRecordings{rows: make(map[string]*model.Recording)}
}

func (f *fakeRecordings) Create(_ context.Context, studioID, userID, sessionID, fileKey string) (*model.Recording, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	ent := &model.Recording{
		ID:           fmt.Sprintf("rec-%d", f.seq),
		StudioID:     studioID,
		UserID:       userID,
		SessionID:    sessionID,
		FileKey:      fileKey,
		StartedAt:    time.Now(),
		IsActive:     true,
		UploadStatus: string(model.UploadStatusPending),
	}
	f.rows[ent.ID] = ent
	return ent, nil
}

func (f *fakeRecordings) Finalize(_ context.Context, recordingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ent, ok := f.rows[recordingID]
	if !ok || !ent.IsActive {
		return nil
	}
	now := time.Now()
	ent.EndedAt = &now
	ent.IsActive = false
	f.finalized++
	return nil
}

func (f *fakeRecordings) FinalizeActiveByStudio(_ context.Context, studioID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	now := time.Now()
	for _, ent := range f.rows {
		if ent.StudioID == studioID && ent.IsActive {
			ent.EndedAt = &now
			ent.IsActive = false
			n++
		}
	}
	return n, nil
}

func (f *fakeRecordings) finalizedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finalized
}

func (f *fakeRecordings) get(recordingID string) *model.Recording {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[recordingID]
}

type coordFixture struct {
	hub        *RoomHub
	coord      *Coordinator
	sessions   *fakeSessions
	recordings *fakeRecordings
}

func newCoordFixture(t *testing.T) *coordFixture {
	t.Helper()
	hub := NewRoomHub(1024, 1024, zap.NewNop())
	sessions := newFakeSessions()
	recordings := newFakeRecordings()
	studios := &fakeStudios{byRoom: map[string]*model.Studio{
		"abc123": {ID: "studio-1", HostID: "host-1", RoomID: "abc123", Title: "Test Studio"},
	}}
	coord := NewCoordinator(hub, studios, sessions, recordings, time.Millisecond, zap.NewNop())
	return &coordFixture{hub: hub, coord: coord, sessions: sessions, recordings: recordings}
}

// drain reads queued frames from a client without blocking.
func drain(c *Client) []Envelope {
	var out []Envelope
	for {
		select {
		case frame := <-c.Send:
			var env Envelope
			if err := json.Unmarshal(frame, &env); err == nil {
				out = append(out, env)
			}
		default:
			return out
		}
	}
}

func waitForFrames(t *testing.T, c *Client, n int) []Envelope {
	t.Helper()
	deadline := time.After(time.Second)
	var out []Envelope
	for len(out) < n {
		select {
		case frame := <-c.Send:
			var env Envelope
			if err := json.Unmarshal(frame, &env); err != nil {
				t.Fatalf("bad frame: %v", err)
			}
			out = append(out, env)
		case <-deadline:
			t.Fatalf("timed out waiting for %d frames, got %d", n, len(out))
		}
	}
	return out
}

func TestStartThenStopClearsMappingAndDeactivatesSession(t *testing.T) {
	f := newCoordFixture(t)
	ctx := context.Background()

	host, _ := f.hub.Register("abc123", "peer-host", "host-1", nil)
	f.coord.Join(ctx, host)

	if err := f.coord.HostStartRecording(ctx, "abc123", "host-1"); err != nil {
		t.Fatalf("HostStartRecording: %v", err)
	}
	sessionID, ok := f.hub.SessionID("abc123")
	if !ok {
		t.Fatal("no session mapped after start")
	}
	if sess := f.sessions.get(sessionID); sess == nil || !sess.IsActive {
		t.Fatalf("session %s not active after start", sessionID)
	}

	f.coord.HostStopRecording(ctx, "abc123")
	if _, ok := f.hub.SessionID("abc123"); ok {
		t.Fatal("session still mapped after stop")
	}
	if sess := f.sessions.get(sessionID); sess.IsActive {
		t.Fatalf("session %s still active after stop", sessionID)
	}
}

func TestStartBroadcastsSessionAndStartDirectives(t *testing.T) {
	f := newCoordFixture(t)
	ctx := context.Background()

	a, _ := f.hub.Register("abc123", "peer-a", "user-a", nil)
	b, _ := f.hub.Register("abc123", "peer-b", "user-b", nil)

	if err := f.coord.HostStartRecording(ctx, "abc123", "host-1"); err != nil {
		t.Fatalf("HostStartRecording: %v", err)
	}
	sessionID, _ := f.hub.SessionID("abc123")

	for _, c := range []*Client{a, b} {
		frames := waitForFrames(t, c, 2)
		if frames[0].Event != EventSessionStarted {
			t.Fatalf("first event = %s, want %s", frames[0].Event, EventSessionStarted)
		}
		var p SessionStartedPayload
		if err := json.Unmarshal(frames[0].Data, &p); err != nil || p.SessionID != sessionID {
			t.Fatalf("session-started payload = %+v (err %v), want session %s", p, err, sessionID)
		}
		if frames[1].Event != EventStartAllRecorders {
			t.Fatalf("second event = %s, want %s", frames[1].Event, EventStartAllRecorders)
		}
	}
}

func TestStartOverwritesExistingMapping(t *testing.T) {
	f := newCoordFixture(t)
	ctx := context.Background()

	if err := f.coord.HostStartRecording(ctx, "abc123", "host-1"); err != nil {
		t.Fatalf("first start: %v", err)
	}
	first, _ := f.hub.SessionID("abc123")
	if err := f.coord.HostStartRecording(ctx, "abc123", "host-1"); err != nil {
		t.Fatalf("second start: %v", err)
	}
	second, _ := f.hub.SessionID("abc123")
	if first == second {
		t.Fatal("second start did not create a new session")
	}
	// Overwriting does not implicitly close the earlier session; only an
	// explicit stop does.
	if sess := f.sessions.get(first); !sess.IsActive {
		t.Fatalf("first session was closed by overwrite")
	}
}

func TestUnknownRoomStartFails(t *testing.T) {
	f := newCoordFixture(t)
	err := f.coord.HostStartRecording(context.Background(), "nope", "host-1")
	if !errors.Is(err, errs.ErrStudioNotFound) {
		t.Fatalf("err = %v, want ErrStudioNotFound", err)
	}
}

func TestLateJoinerSyncsToActiveSession(t *testing.T) {
	f := newCoordFixture(t)
	ctx := context.Background()

	if err := f.coord.HostStartRecording(ctx, "abc123", "host-1"); err != nil {
		t.Fatalf("HostStartRecording: %v", err)
	}
	sessionID, _ := f.hub.SessionID("abc123")

	late, _ := f.hub.Register("abc123", "peer-late", "user-late", nil)
	f.coord.Join(ctx, late)

	frames := waitForFrames(t, late, 2)
	if frames[0].Event != EventStartAllRecorders {
		t.Fatalf("first late-sync event = %s, want %s", frames[0].Event, EventStartAllRecorders)
	}
	var p SessionStartedPayload
	if err := json.Unmarshal(frames[1].Data, &p); err != nil || p.SessionID != sessionID {
		t.Fatalf("late-sync session = %+v (err %v), want %s", p, err, sessionID)
	}
}

func TestLateJoinerDisconnectBeforeSyncDelay(t *testing.T) {
	f := newCoordFixture(t)
	ctx := context.Background()

	if err := f.coord.HostStartRecording(ctx, "abc123", "host-1"); err != nil {
		t.Fatalf("HostStartRecording: %v", err)
	}

	// Leave before the late-sync timer fires; the pending pushes must be
	// discarded, not sent on the closed channel.
	late, cleanup := f.hub.Register("abc123", "peer-late", "user-late", nil)
	f.coord.Join(ctx, late)
	f.coord.Disconnect(ctx, late)
	cleanup()

	time.Sleep(20 * time.Millisecond) // longer than the late-sync delay
	if n := f.hub.RoomSize("abc123"); n != 0 {
		t.Fatalf("room size after disconnect = %d, want 0", n)
	}
}

func TestJoinIdleRoomSendsNoDirectives(t *testing.T) {
	f := newCoordFixture(t)
	c, _ := f.hub.Register("abc123", "peer-a", "user-a", nil)
	f.coord.Join(context.Background(), c)

	time.Sleep(20 * time.Millisecond) // longer than the late-sync delay
	if frames := drain(c); len(frames) != 0 {
		t.Fatalf("idle join produced %d frames: %+v", len(frames), frames)
	}
}

func TestJoinAnnouncesPeerToOthers(t *testing.T) {
	f := newCoordFixture(t)
	ctx := context.Background()

	a, _ := f.hub.Register("abc123", "peer-a", "user-a", nil)
	f.coord.Join(ctx, a)
	b, _ := f.hub.Register("abc123", "peer-b", "user-b", nil)
	f.coord.Join(ctx, b)

	frames := waitForFrames(t, a, 1)
	if frames[0].Event != EventUserConnected {
		t.Fatalf("event = %s, want %s", frames[0].Event, EventUserConnected)
	}
	var p PeerPayload
	if err := json.Unmarshal(frames[0].Data, &p); err != nil || p.PeerID != "peer-b" {
		t.Fatalf("payload = %+v (err %v), want peer-b", p, err)
	}
	if frames := drain(b); len(frames) != 0 {
		t.Fatalf("joiner received its own announcement: %+v", frames)
	}
}

func TestParticipantRecordingStartedCreatesRowAndAcks(t *testing.T) {
	f := newCoordFixture(t)
	ctx := context.Background()

	if err := f.coord.HostStartRecording(ctx, "abc123", "host-1"); err != nil {
		t.Fatalf("HostStartRecording: %v", err)
	}
	sessionID, _ := f.hub.SessionID("abc123")

	c, _ := f.hub.Register("abc123", "peer-a", "user-a", nil)
	drain(c)
	if err := f.coord.ParticipantRecordingStarted(ctx, c, "file-key-a"); err != nil {
		t.Fatalf("ParticipantRecordingStarted: %v", err)
	}

	frames := waitForFrames(t, c, 1)
	if frames[0].Event != EventRecordingCreated {
		t.Fatalf("event = %s, want %s", frames[0].Event, EventRecordingCreated)
	}
	var p RecordingCreatedPayload
	if err := json.Unmarshal(frames[0].Data, &p); err != nil || p.RecordingID == "" {
		t.Fatalf("payload = %+v (err %v)", p, err)
	}
	rec := f.recordings.get(p.RecordingID)
	if rec == nil {
		t.Fatal("recording row not created")
	}
	if rec.SessionID != sessionID || !rec.IsActive || rec.UploadStatus != string(model.UploadStatusPending) {
		t.Fatalf("unexpected row: %+v", rec)
	}
}

func TestParticipantRecordingStartedAfterStop(t *testing.T) {
	f := newCoordFixture(t)
	ctx := context.Background()

	if err := f.coord.HostStartRecording(ctx, "abc123", "host-1"); err != nil {
		t.Fatalf("HostStartRecording: %v", err)
	}
	f.coord.HostStopRecording(ctx, "abc123")

	c, _ := f.hub.Register("abc123", "peer-a", "user-a", nil)
	err := f.coord.ParticipantRecordingStarted(ctx, c, "file-key-a")
	if !errors.Is(err, errs.ErrNoActiveSession) {
		t.Fatalf("err = %v, want ErrNoActiveSession", err)
	}
	if f.recordings.get("rec-1") != nil {
		t.Fatal("orphaned recording row created after stop")
	}
}

func TestDisconnectFinalizesRecordingOnce(t *testing.T) {
	f := newCoordFixture(t)
	ctx := context.Background()

	if err := f.coord.HostStartRecording(ctx, "abc123", "host-1"); err != nil {
		t.Fatalf("HostStartRecording: %v", err)
	}
	c, _ := f.hub.Register("abc123", "peer-a", "user-a", nil)
	if err := f.coord.ParticipantRecordingStarted(ctx, c, "file-key-a"); err != nil {
		t.Fatalf("ParticipantRecordingStarted: %v", err)
	}

	f.coord.Disconnect(ctx, c)
	f.coord.Disconnect(ctx, c) // second signal for the same client is a no-op

	if got := f.recordings.finalizedCount(); got != 1 {
		t.Fatalf("finalized %d recordings, want 1", got)
	}
	rec := f.recordings.get("rec-1")
	if rec.IsActive || rec.EndedAt == nil {
		t.Fatalf("recording not finalized: %+v", rec)
	}
}

func TestDisconnectBeforeRecordingIsLedgerNoop(t *testing.T) {
	f := newCoordFixture(t)
	c, _ := f.hub.Register("abc123", "peer-a", "user-a", nil)
	f.coord.Disconnect(context.Background(), c)
	if got := f.recordings.finalizedCount(); got != 0 {
		t.Fatalf("finalized %d recordings, want 0", got)
	}
}

func TestDisconnectAnnouncesDeparture(t *testing.T) {
	f := newCoordFixture(t)
	ctx := context.Background()

	a, _ := f.hub.Register("abc123", "peer-a", "user-a", nil)
	b, _ := f.hub.Register("abc123", "peer-b", "user-b", nil)
	f.coord.Disconnect(ctx, b)

	frames := waitForFrames(t, a, 1)
	if frames[0].Event != EventUserDisconnected {
		t.Fatalf("event = %s, want %s", frames[0].Event, EventUserDisconnected)
	}
}

func TestStopBulkFinalizesActiveRecordings(t *testing.T) {
	f := newCoordFixture(t)
	ctx := context.Background()

	if err := f.coord.HostStartRecording(ctx, "abc123", "host-1"); err != nil {
		t.Fatalf("HostStartRecording: %v", err)
	}
	a, _ := f.hub.Register("abc123", "peer-a", "user-a", nil)
	b, _ := f.hub.Register("abc123", "peer-b", "user-b", nil)
	if err := f.coord.ParticipantRecordingStarted(ctx, a, "file-a"); err != nil {
		t.Fatalf("participant a: %v", err)
	}
	if err := f.coord.ParticipantRecordingStarted(ctx, b, "file-b"); err != nil {
		t.Fatalf("participant b: %v", err)
	}

	f.coord.HostStopRecording(ctx, "abc123")

	for _, id := range []string{"rec-1", "rec-2"} {
		rec := f.recordings.get(id)
		if rec == nil || rec.IsActive || rec.EndedAt == nil {
			t.Fatalf("recording %s not bulk-finalized: %+v", id, rec)
		}
	}
}

func TestStopWithoutSessionStillBroadcastsStop(t *testing.T) {
	f := newCoordFixture(t)
	c, _ := f.hub.Register("abc123", "peer-a", "user-a", nil)

	f.coord.HostStopRecording(context.Background(), "abc123")

	frames := waitForFrames(t, c, 1)
	if frames[0].Event != EventStopAllRecorders {
		t.Fatalf("event = %s, want %s", frames[0].Event, EventStopAllRecorders)
	}
}
