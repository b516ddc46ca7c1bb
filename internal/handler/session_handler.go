package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/podcraft/studio-service/internal/errs"
	"github.com/podcraft/studio-service/internal/model"
	"github.com/podcraft/studio-service/internal/service"
)

// SessionHandler handles REST API for recording sessions.
type SessionHandler struct {
	sessions *service.SessionService
	studios  *service.StudioService
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(sessions *service.SessionService, studios *service.StudioService) *SessionHandler {
	return &SessionHandler{sessions: sessions, studios: studios}
}

// ListByStudio godoc
// GET /api/studios/:id/sessions  (id is the studio id; host only)
func (h *SessionHandler) ListByStudio(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	studio, err := h.studios.ByID(c.Request.Context(), c.Param("id"))
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
	sessions, err := h.sessions.ListByStudio(c.Request.Context(), studio.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sessions"})
		return
	}
	out := make([]model.SessionView, 0, len(sessions))
	for i := range sessions {
		out = append(out, model.ToSessionView(&sessions[i]))
	}
	c.JSON(http.StatusOK, out)
}

type setCombinedRequest struct {
	FileKey string `json:"file_key" binding:"required"`
}

// SetCombined godoc
// POST /api/sessions/:id/combined — the rendering worker reports where the
// combined artifact landed.
func (h *SessionHandler) SetCombined(c *gin.Context) {
	var req setCombinedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	err := h.sessions.SetCombinedVideoPath(c.Request.Context(), c.Param("id"), req.FileKey)
	if err != nil {
		if errors.Is(err, errs.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update session"})
		return
	}
	c.Status(http.StatusNoContent)
}
