package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/podcraft/studio-service/internal/errs"
	"github.com/podcraft/studio-service/internal/model"
	"gorm.io/gorm"
)

// RecordingService manages recording ledger rows.
type RecordingService struct {
	db *gorm.DB
}

// NewRecordingService creates a recording service.
func NewRecordingService(db *gorm.DB) *RecordingService {
	return &RecordingService{db: db}
}

// Create creates an active, upload-pending recording under a session.
func (s *RecordingService) Create(ctx context.Context, studioID, userID, sessionID, fileKey string) (*model.Recording, error) {
	return s.create(ctx, studioID, userID, sessionID, fileKey, model.MediaTypeVideo, true)
}

// Save creates an already-finished recording from REST metadata (no live
// connection involved), still attached to the session like any other row.
func (s *RecordingService) Save(ctx context.Context, studioID, userID, sessionID, fileKey, mediaType string) (*model.Recording, error) {
	if mediaType == "" {
		mediaType = model.MediaTypeVideo
	}
	return s.create(ctx, studioID, userID, sessionID, fileKey, mediaType, false)
}

func (s *RecordingService) create(ctx context.Context, studioID, userID, sessionID, fileKey, mediaType string, active bool) (*model.Recording, error) {
	if studioID == "" || userID == "" || sessionID == "" {
		return nil, errors.New("recording: studio, user and session ids are required")
	}
	if fileKey == "" {
		return nil, errors.New("recording: file key is required")
	}
	if mediaType != model.MediaTypeVideo && mediaType != model.MediaTypeAudio {
		return nil, errors.New("recording: unknown media type " + mediaType)
	}
	ent := &model.Recording{
		ID:           uuid.New().String(),
		StudioID:     studioID,
		UserID:       userID,
		SessionID:    sessionID,
		FileKey:      fileKey,
		MediaType:    mediaType,
		StartedAt:    time.Now(),
		IsActive:     active,
		UploadStatus: string(model.UploadStatusPending),
	}
	if err := s.db.WithContext(ctx).Create(ent).Error; err != nil {
		return nil, err
	}
	return ent, nil
}

// Finalize sets the end time and clears the active flag. Only still-active
// rows are touched, so repeated finalizes are no-ops.
func (s *RecordingService) Finalize(ctx context.Context, recordingID string) error {
	res := s.db.WithContext(ctx).Model(&model.Recording{}).
		Where("id = ? AND is_active = ?", recordingID, true).
		Updates(map[string]interface{}{
			"ended_at":  time.Now(),
			"is_active": false,
		})
	return res.Error
}

// FinalizeActiveByStudio finalizes every still-active recording for a studio
// and returns how many rows it touched.
func (s *RecordingService) FinalizeActiveByStudio(ctx context.Context, studioID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.Recording{}).
		Where("studio_id = ? AND is_active = ?", studioID, true).
		Updates(map[string]interface{}{
			"ended_at":  time.Now(),
			"is_active": false,
		})
	return res.RowsAffected, res.Error
}

// MarkUploadComplete moves a recording's upload status pending -> complete
// and returns its session id. The transition is one-way: an already-complete
// row is left untouched.
func (s *RecordingService) MarkUploadComplete(ctx context.Context, recordingID string) (string, error) {
	var ent model.Recording
	if err := s.db.WithContext(ctx).Where("id = ?", recordingID).First(&ent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errs.ErrRecordingNotFound
		}
		return "", err
	}
	res := s.db.WithContext(ctx).Model(&model.Recording{}).
		Where("id = ? AND upload_status = ?", recordingID, string(model.UploadStatusPending)).
		Update("upload_status", string(model.UploadStatusComplete))
	if res.Error != nil {
		return "", res.Error
	}
	return ent.SessionID, nil
}

// CountBySession returns total and upload-complete recording counts for a
// session, the inputs of the completion decision.
func (s *RecordingService) CountBySession(ctx context.Context, sessionID string) (int64, int64, error) {
	var total, complete int64
	if err := s.db.WithContext(ctx).Model(&model.Recording{}).
		Where("session_id = ?", sessionID).
		Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := s.db.WithContext(ctx).Model(&model.Recording{}).
		Where("session_id = ? AND upload_status = ?", sessionID, string(model.UploadStatusComplete)).
		Count(&complete).Error; err != nil {
		return 0, 0, err
	}
	return total, complete, nil
}

// BySession returns a session's recordings.
func (s *RecordingService) BySession(ctx context.Context, sessionID string) ([]model.Recording, error) {
	var out []model.Recording
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("started_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ByStudio returns a studio's recordings, newest first.
func (s *RecordingService) ByStudio(ctx context.Context, studioID string) ([]model.Recording, error) {
	var out []model.Recording
	if err := s.db.WithContext(ctx).
		Where("studio_id = ?", studioID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
