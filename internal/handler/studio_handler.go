package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/podcraft/studio-service/internal/errs"
	"github.com/podcraft/studio-service/internal/model"
	"github.com/podcraft/studio-service/internal/service"
)

// StudioHandler handles REST API for studios.
type StudioHandler struct {
	studios *service.StudioService
}

// NewStudioHandler creates a studio handler.
func NewStudioHandler(studios *service.StudioService) *StudioHandler {
	return &StudioHandler{studios: studios}
}

// CreateStudio godoc
// POST /api/studios
func (h *StudioHandler) CreateStudio(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req model.CreateStudioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	studio, err := h.studios.Create(c.Request.Context(), uid, req.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create studio"})
		return
	}
	c.JSON(http.StatusCreated, toStudioResponse(studio))
}

// ListStudios godoc
// GET /api/studios
func (h *StudioHandler) ListStudios(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	studios, err := h.studios.ListByHost(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list studios"})
		return
	}
	out := make([]model.StudioResponse, 0, len(studios))
	for i := range studios {
		out = append(out, toStudioResponse(&studios[i]))
	}
	c.JSON(http.StatusOK, out)
}

// StudioDetails godoc
// GET /api/studios/:id/details  (id is the shareable room id)
func (h *StudioHandler) StudioDetails(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	studio, err := h.studios.ByRoomID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, errs.ErrStudioNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "studio not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get studio"})
		return
	}
	c.JSON(http.StatusOK, model.StudioDetailsResponse{
		Title:  studio.Title,
		IsHost: studio.HostID == uid,
	})
}

func toStudioResponse(s *model.Studio) model.StudioResponse {
	return model.StudioResponse{
		ID:        s.ID,
		Title:     s.Title,
		HostID:    s.HostID,
		RoomID:    s.RoomID,
		CreatedAt: s.CreatedAt,
	}
}
