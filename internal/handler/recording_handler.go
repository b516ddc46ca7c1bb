package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/podcraft/studio-service/internal/errs"
	"github.com/podcraft/studio-service/internal/model"
	"github.com/podcraft/studio-service/internal/service"
)

// RecordingHandler handles REST API for recordings.
type RecordingHandler struct {
	recordings *service.RecordingService
	studios    *service.StudioService
	hub        *service.RoomHub
}

// NewRecordingHandler creates a recording handler.
func NewRecordingHandler(recordings *service.RecordingService, studios *service.StudioService, hub *service.RoomHub) *RecordingHandler {
	return &RecordingHandler{recordings: recordings, studios: studios, hub: hub}
}

// SaveRecording godoc
// POST /api/recordings — manual metadata save for a participant's upload,
// attached to the room's current session.
func (h *RecordingHandler) SaveRecording(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req model.SaveRecordingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	studio, err := h.studios.ByRoomID(c.Request.Context(), req.RoomID)
	if err != nil {
		if errors.Is(err, errs.ErrStudioNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "studio not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get studio"})
		return
	}
	sessionID, ok := h.hub.SessionID(req.RoomID)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "room has no active session"})
		return
	}
	rec, err := h.recordings.Save(c.Request.Context(), studio.ID, uid, sessionID, req.FileKey, req.MediaType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save recording"})
		return
	}
	c.JSON(http.StatusCreated, model.ToRecordingView(rec))
}

// ByStudio godoc
// GET /api/recordings/:id  (id is the shareable room id; host only)
func (h *RecordingHandler) ByStudio(c *gin.Context) {
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
	if studio.HostID != uid {
		c.JSON(http.StatusForbidden, gin.H{"error": "user not authorized"})
		return
	}
	recs, err := h.recordings.ByStudio(c.Request.Context(), studio.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list recordings"})
		return
	}
	c.JSON(http.StatusOK, toRecordingViews(recs))
}

// BySession godoc
// GET /api/recordings/session/:session_id
func (h *RecordingHandler) BySession(c *gin.Context) {
	if _, ok := userID(c); !ok {
		return
	}
	recs, err := h.recordings.BySession(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list recordings"})
		return
	}
	c.JSON(http.StatusOK, toRecordingViews(recs))
}

func toRecordingViews(recs []model.Recording) []model.RecordingView {
	out := make([]model.RecordingView, 0, len(recs))
	for i := range recs {
		out = append(out, model.ToRecordingView(&recs[i]))
	}
	return out
}
