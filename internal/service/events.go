package service

import "encoding/json"

// Event names carried over the room WebSocket. Payload field names follow the
// client wire contract (camelCase).
const (
	// inbound
	EventJoinRoom           = "join-room"
	EventHostStartRecording = "host-start-recording"
	EventRecordingStarted   = "recording-started"
	EventHostStopRecording  = "host-stop-recording"

	// outbound
	EventUserConnected     = "user-connected"
	EventUserDisconnected  = "user-disconnected"
	EventSessionStarted    = "session-started"
	EventStartAllRecorders = "start-all-recorders"
	EventStopAllRecorders  = "stop-all-recorders"
	EventRecordingCreated  = "db-recording-created"
)

// Envelope is the framing for every room WebSocket message.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinRoomPayload is the data of a join-room event.
type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
	PeerID string `json:"peerId"`
	UserID string `json:"userId"`
}

// HostStartPayload is the data of a host-start-recording event.
type HostStartPayload struct {
	RoomID string `json:"roomId"`
	HostID string `json:"hostId"`
}

// RecordingStartedPayload is the data of a recording-started event.
type RecordingStartedPayload struct {
	FileKey string `json:"s3FileKey"`
}

// HostStopPayload is the data of a host-stop-recording event.
type HostStopPayload struct {
	RoomID string `json:"roomId"`
}

// SessionStartedPayload is the data of a session-started event.
type SessionStartedPayload struct {
	SessionID string `json:"sessionId"`
}

// PeerPayload is the data of user-connected and user-disconnected events.
type PeerPayload struct {
	PeerID string `json:"peerId"`
}

// RecordingCreatedPayload is the data of a db-recording-created event.
type RecordingCreatedPayload struct {
	RecordingID string `json:"recordingId"`
}

// NewEvent marshals an outbound envelope. Payloads are plain structs, so a
// marshal failure here is a programming error and yields an empty frame.
func NewEvent(event string, data any) []byte {
	env := Envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil
		}
		env.Data = raw
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return nil
	}
	return raw
}
