package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/podcraft/studio-service/internal/errs"
	"github.com/podcraft/studio-service/internal/model"
	"gorm.io/gorm"
)

// SessionService manages recording session ledger rows.
type SessionService struct {
	db *gorm.DB
}

// NewSessionService creates a session service.
func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{db: db}
}

// Start creates a new active session for a studio.
func (s *SessionService) Start(ctx context.Context, studioID, hostID string) (*model.RecordingSession, error) {
	if studioID == "" || hostID == "" {
		return nil, errors.New("session: studio id and host id are required")
	}
	ent := &model.RecordingSession{
		ID:       uuid.New().String(),
		StudioID: studioID,
		HostID:   hostID,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(ent).Error; err != nil {
		return nil, err
	}
	return ent, nil
}

// Get returns a session by id.
func (s *SessionService) Get(ctx context.Context, sessionID string) (*model.RecordingSession, error) {
	var ent model.RecordingSession
	if err := s.db.WithContext(ctx).Where("id = ?", sessionID).First(&ent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrSessionNotFound
		}
		return nil, err
	}
	return &ent, nil
}

// Finish marks a session inactive.
func (s *SessionService) Finish(ctx context.Context, sessionID string) error {
	res := s.db.WithContext(ctx).Model(&model.RecordingSession{}).
		Where("id = ?", sessionID).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrSessionNotFound
	}
	return nil
}

// ListByStudio returns a studio's sessions, newest first.
func (s *SessionService) ListByStudio(ctx context.Context, studioID string) ([]model.RecordingSession, error) {
	var out []model.RecordingSession
	if err := s.db.WithContext(ctx).
		Where("studio_id = ?", studioID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ClaimCombine atomically flips combine_requested false -> true. The
// conditional update makes exactly one of any concurrent claimers win.
func (s *SessionService) ClaimCombine(ctx context.Context, sessionID string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.RecordingSession{}).
		Where("id = ? AND combine_requested = ?", sessionID, false).
		Update("combine_requested", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SetCombinedVideoPath records where the rendered combined artifact landed.
func (s *SessionService) SetCombinedVideoPath(ctx context.Context, sessionID, path string) error {
	res := s.db.WithContext(ctx).Model(&model.RecordingSession{}).
		Where("id = ?", sessionID).
		Update("combined_video_path", path)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrSessionNotFound
	}
	return nil
}

// ActiveRoomSessions returns the room id -> session id mapping for every
// active session, used to rebuild the coordinator cache at startup. When a
// studio has several active sessions the newest wins.
func (s *SessionService) ActiveRoomSessions(ctx context.Context) (map[string]string, error) {
	var rows []struct {
		RoomID    string
		SessionID string
	}
	if err := s.db.WithContext(ctx).
		Table("recording_sessions").
		Select("studios.room_id AS room_id, recording_sessions.id AS session_id").
		Joins("JOIN studios ON studios.id = recording_sessions.studio_id").
		Where("recording_sessions.is_active = ?", true).
		Order("recording_sessions.created_at ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.RoomID] = r.SessionID
	}
	return out, nil
}
