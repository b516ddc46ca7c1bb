package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/podcraft/studio-service/internal/errs"
	"github.com/podcraft/studio-service/internal/model"
	"gorm.io/gorm"
)

// StudioService manages studios and their shareable room ids.
type StudioService struct {
	db *gorm.DB
}

// NewStudioService creates a studio service.
func NewStudioService(db *gorm.DB) *StudioService {
	return &StudioService{db: db}
}

// Create creates a studio for a host with a generated room id.
func (s *StudioService) Create(ctx context.Context, hostID, title string) (*model.Studio, error) {
	if hostID == "" {
		return nil, errors.New("studio: host id is required")
	}
	if title == "" {
		return nil, errors.New("studio: title is required")
	}
	ent := &model.Studio{
		ID:     uuid.New().String(),
		Title:  title,
		HostID: hostID,
		RoomID: newRoomID(),
	}
	if err := s.db.WithContext(ctx).Create(ent).Error; err != nil {
		return nil, err
	}
	return ent, nil
}

// ByRoomID returns the studio owning a room id.
func (s *StudioService) ByRoomID(ctx context.Context, roomID string) (*model.Studio, error) {
	var ent model.Studio
	if err := s.db.WithContext(ctx).Where("room_id = ?", roomID).First(&ent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrStudioNotFound
		}
		return nil, err
	}
	return &ent, nil
}

// ByID returns a studio by primary id.
func (s *StudioService) ByID(ctx context.Context, id string) (*model.Studio, error) {
	var ent model.Studio
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&ent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrStudioNotFound
		}
		return nil, err
	}
	return &ent, nil
}

// ListByHost returns a host's studios, newest first.
func (s *StudioService) ListByHost(ctx context.Context, hostID string) ([]model.Studio, error) {
	var out []model.Studio
	if err := s.db.WithContext(ctx).
		Where("host_id = ?", hostID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// newRoomID generates a short shareable room id.
func newRoomID() string {
	return "rm_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:10]
}
