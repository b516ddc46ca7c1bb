package model

import "time"

// UploadStatus represents a recording's upload state.
type UploadStatus string

const (
	UploadStatusPending  UploadStatus = "pending"
	UploadStatusComplete UploadStatus = "complete"
)

// MediaType values accepted for a recording.
const (
	MediaTypeVideo = "video"
	MediaTypeAudio = "audio"
)

// SessionView is the API view of a recording session (not GORM entity).
type SessionView struct {
	ID                string     `json:"id"`
	StudioID          string     `json:"studio_id"`
	HostID            string     `json:"host_id"`
	IsActive          bool       `json:"is_active"`
	CombineRequested  bool       `json:"combine_requested"`
	CombinedVideoPath *string    `json:"combined_video_path,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// RecordingView is the API view of a recording.
type RecordingView struct {
	ID           string     `json:"id"`
	StudioID     string     `json:"studio_id"`
	UserID       string     `json:"user_id"`
	SessionID    string     `json:"session_id"`
	FileKey      string     `json:"file_key"`
	MediaType    string     `json:"media_type"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	IsActive     bool       `json:"is_active"`
	UploadStatus string     `json:"upload_status"`
}

// CreateStudioRequest is the request body for POST /api/studios.
type CreateStudioRequest struct {
	Title string `json:"title" binding:"required"`
}

// StudioResponse is the API view of a studio.
type StudioResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	HostID    string    `json:"host_id"`
	RoomID    string    `json:"room_id"`
	CreatedAt time.Time `json:"created_at"`
}

// StudioDetailsResponse is the response for GET /api/studios/:room_id/details.
type StudioDetailsResponse struct {
	Title  string `json:"title"`
	IsHost bool   `json:"is_host"`
}

// SaveRecordingRequest is the request body for POST /api/recordings.
type SaveRecordingRequest struct {
	FileKey   string `json:"file_key" binding:"required"`
	RoomID    string `json:"room_id" binding:"required"`
	MediaType string `json:"media_type"`
}

func ToSessionView(ent *RecordingSession) SessionView {
	return SessionView{
		ID:                ent.ID,
		StudioID:          ent.StudioID,
		HostID:            ent.HostID,
		IsActive:          ent.IsActive,
		CombineRequested:  ent.CombineRequested,
		CombinedVideoPath: ent.CombinedVideoPath,
		CreatedAt:         ent.CreatedAt,
	}
}

func ToRecordingView(ent *Recording) RecordingView {
	return RecordingView{
		ID:           ent.ID,
		StudioID:     ent.StudioID,
		UserID:       ent.UserID,
		SessionID:    ent.SessionID,
		FileKey:      ent.FileKey,
		MediaType:    ent.MediaType,
		StartedAt:    ent.StartedAt,
		EndedAt:      ent.EndedAt,
		IsActive:     ent.IsActive,
		UploadStatus: ent.UploadStatus,
	}
}
