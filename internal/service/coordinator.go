package service

import (
	"context"
	"errors"
	"time"

	"github.com/podcraft/studio-service/internal/errs"
	"github.com/podcraft/studio-service/internal/model"
	"go.uber.org/zap"
)

// StudioFinder resolves a studio from its shareable room id.
type StudioFinder interface {
	ByRoomID(ctx context.Context, roomID string) (*model.Studio, error)
}

// SessionWriter is the session ledger surface the coordinator needs.
type SessionWriter interface {
	Start(ctx context.Context, studioID, hostID string) (*model.RecordingSession, error)
	Finish(ctx context.Context, sessionID string) error
}

// RecordingWriter is the recording ledger surface the coordinator needs.
type RecordingWriter interface {
	Create(ctx context.Context, studioID, userID, sessionID, fileKey string) (*model.Recording, error)
	Finalize(ctx context.Context, recordingID string) error
	FinalizeActiveByStudio(ctx context.Context, studioID string) (int64, error)
}

// Coordinator orchestrates the per-room recording state machine: it reacts to
// join, host start/stop, participant recording-started and disconnect events,
// keeps the room -> session cache in the hub, and fans control directives out
// to connected clients. Ledger failures are logged and do not break the
// realtime session for other participants.
type Coordinator struct {
	hub        *RoomHub
	studios    StudioFinder
	sessions   SessionWriter
	recordings RecordingWriter
	log        *zap.Logger

	// lateSyncDelay gives a late joiner time to finish initializing its
	// media pipeline before it is told to start recording.
	lateSyncDelay time.Duration
}

// NewCoordinator creates the room coordinator.
func NewCoordinator(hub *RoomHub, studios StudioFinder, sessions SessionWriter, recordings RecordingWriter, lateSyncDelay time.Duration, log *zap.Logger) *Coordinator {
	return &Coordinator{
		hub:           hub,
		studios:       studios,
		sessions:      sessions,
		recordings:    recordings,
		lateSyncDelay: lateSyncDelay,
		log:           log,
	}
}

// Join announces a newly registered client to its room. If the room already
// has an active session, the client is late-synced into it after a short
// delay: it receives the start directive and the current session id.
func (c *Coordinator) Join(ctx context.Context, client *Client) {
	if sessionID, ok := c.hub.SessionID(client.RoomID); ok {
		time.AfterFunc(c.lateSyncDelay, func() {
			c.hub.Push(client, NewEvent(EventStartAllRecorders, nil))
			c.hub.Push(client, NewEvent(EventSessionStarted, SessionStartedPayload{SessionID: sessionID}))
		})
	}
	c.hub.BroadcastExcept(client.RoomID, client, NewEvent(EventUserConnected, PeerPayload{PeerID: client.PeerID}))
}

// HostStartRecording creates a new session for the room's studio, maps the
// room to it (unconditionally overwriting any prior mapping) and broadcasts
// the start directive to everyone in the room.
func (c *Coordinator) HostStartRecording(ctx context.Context, roomID, hostID string) error {
	studio, err := c.studios.ByRoomID(ctx, roomID)
	if err != nil {
		c.log.Warn("start recording: studio lookup failed",
			zap.String("room_id", roomID), zap.Error(err))
		return err
	}
	session, err := c.sessions.Start(ctx, studio.ID, hostID)
	if err != nil {
		c.log.Warn("start recording: session create failed",
			zap.String("room_id", roomID), zap.Error(err))
		return err
	}
	c.hub.SetSession(roomID, session.ID)
	c.hub.Broadcast(roomID, NewEvent(EventSessionStarted, SessionStartedPayload{SessionID: session.ID}))
	c.hub.Broadcast(roomID, NewEvent(EventStartAllRecorders, nil))
	c.log.Info("recording session started",
		zap.String("room_id", roomID),
		zap.String("session_id", session.ID),
		zap.String("host_id", hostID))
	return nil
}

// ParticipantRecordingStarted creates the participant's recording row under
// the room's current session and acks the client with the recording id. The
// session id is taken from the mapping once and carried on the row from then
// on, so later events for this recording cannot attach to a different
// session. Arriving after the session was stopped is a valid race and fails
// gracefully with ErrNoActiveSession.
func (c *Coordinator) ParticipantRecordingStarted(ctx context.Context, client *Client, fileKey string) error {
	sessionID, ok := c.hub.SessionID(client.RoomID)
	if !ok {
		return errs.ErrNoActiveSession
	}
	studio, err := c.studios.ByRoomID(ctx, client.RoomID)
	if err != nil {
		c.log.Warn("recording started: studio lookup failed",
			zap.String("room_id", client.RoomID), zap.Error(err))
		return err
	}
	rec, err := c.recordings.Create(ctx, studio.ID, client.UserID, sessionID, fileKey)
	if err != nil {
		c.log.Warn("recording started: create failed",
			zap.String("room_id", client.RoomID),
			zap.String("session_id", sessionID),
			zap.Error(err))
		return err
	}
	client.SetRecording(rec.ID)
	c.hub.Push(client, NewEvent(EventRecordingCreated, RecordingCreatedPayload{RecordingID: rec.ID}))
	return nil
}

// Disconnect finalizes the client's in-progress recording, if any, and
// announces the departure. Finalizing is idempotent: the recording id is
// taken off the client exactly once, and dangling rows are closed even when
// the client never explicitly stopped.
func (c *Coordinator) Disconnect(ctx context.Context, client *Client) {
	if recordingID := client.TakeRecording(); recordingID != "" {
		if err := c.recordings.Finalize(ctx, recordingID); err != nil && !errors.Is(err, errs.ErrRecordingNotFound) {
			c.log.Warn("disconnect: finalize recording failed",
				zap.String("recording_id", recordingID), zap.Error(err))
		} else {
			c.log.Info("recording finalized on disconnect",
				zap.String("recording_id", recordingID))
		}
	}
	c.hub.BroadcastExcept(client.RoomID, client, NewEvent(EventUserDisconnected, PeerPayload{PeerID: client.PeerID}))
}

// HostStopRecording closes the room's current session: marks it inactive,
// clears the mapping, broadcasts the stop directive and bulk-finalizes every
// recording for the studio that is still active. Safe to call when no session
// is mapped; the stop directive is broadcast regardless.
func (c *Coordinator) HostStopRecording(ctx context.Context, roomID string) {
	if sessionID, ok := c.hub.ClearSession(roomID); ok {
		if err := c.sessions.Finish(ctx, sessionID); err != nil {
			c.log.Warn("stop recording: session finish failed",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	c.hub.Broadcast(roomID, NewEvent(EventStopAllRecorders, nil))

	studio, err := c.studios.ByRoomID(ctx, roomID)
	if err != nil {
		c.log.Warn("stop recording: studio lookup failed",
			zap.String("room_id", roomID), zap.Error(err))
		return
	}
	n, err := c.recordings.FinalizeActiveByStudio(ctx, studio.ID)
	if err != nil {
		c.log.Warn("stop recording: bulk finalize failed",
			zap.String("studio_id", studio.ID), zap.Error(err))
		return
	}
	if n > 0 {
		c.log.Info("finalized active recordings on stop",
			zap.String("room_id", roomID), zap.Int64("count", n))
	}
}
