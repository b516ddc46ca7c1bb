package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/podcraft/studio-service/internal/errs"
	"github.com/podcraft/studio-service/internal/model"
	"github.com/podcraft/studio-service/internal/service"
	"github.com/podcraft/studio-service/internal/upload"
	"go.uber.org/zap"
)

// UploadHandler issues presigned S3 URLs and confirms finished uploads. A
// confirmed multipart completion is the edge that re-runs the completion
// detector for the recording's session.
type UploadHandler struct {
	presigner *upload.Presigner
	detector  *service.Detector
	logger    *zap.Logger
}

// NewUploadHandler creates an upload handler. Presigner may be nil when
// object storage is not configured; endpoints then respond 503.
func NewUploadHandler(presigner *upload.Presigner, detector *service.Detector, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{presigner: presigner, detector: detector, logger: logger}
}

func (h *UploadHandler) ready(c *gin.Context) bool {
	if h.presigner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "object storage not configured"})
		return false
	}
	return true
}

// UploadURL godoc
// GET /api/upload — presigned PUT URL with a generated object key.
func (h *UploadHandler) UploadURL(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	url, key, err := h.presigner.UploadURL(c.Request.Context(), "video/webm")
	if err != nil {
		h.logger.Warn("presign upload failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to presign upload"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"upload_url": url, "file_key": key})
}

// DownloadURL godoc
// GET /api/upload/:file_key
func (h *UploadHandler) DownloadURL(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	url, err := h.presigner.DownloadURL(c.Request.Context(), c.Param("file_key"))
	if err != nil {
		h.logger.Warn("presign download failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to presign download"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"download_url": url})
}

// CombinedDownloadURL godoc
// GET /api/upload/combined/:file_key — download URL for a combined artifact.
func (h *UploadHandler) CombinedDownloadURL(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	url, err := h.presigner.CombinedDownloadURL(c.Request.Context(), c.Param("file_key"))
	if err != nil {
		h.logger.Warn("presign combined download failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to presign download"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"download_url": url})
}

type startMultipartRequest struct {
	FileKey     string `json:"file_key" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// StartMultipart godoc
// POST /api/upload/multipart/start
func (h *UploadHandler) StartMultipart(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var req startMultipartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	uploadID, err := h.presigner.StartMultipart(c.Request.Context(), req.FileKey, req.ContentType)
	if err != nil {
		h.logger.Warn("start multipart failed", zap.String("file_key", req.FileKey), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start upload"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"upload_id": uploadID, "file_key": req.FileKey})
}

type signPartRequest struct {
	FileKey    string `json:"file_key" binding:"required"`
	UploadID   string `json:"upload_id" binding:"required"`
	PartNumber int32  `json:"part_number" binding:"required"`
}

// SignPart godoc
// POST /api/upload/multipart/sign — presigned URL for one chunk.
func (h *UploadHandler) SignPart(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var req signPartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	url, err := h.presigner.PartURL(c.Request.Context(), req.FileKey, req.UploadID, req.PartNumber)
	if err != nil {
		h.logger.Warn("sign part failed", zap.String("file_key", req.FileKey), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to presign part"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"upload_url": url})
}

type completeMultipartRequest struct {
	FileKey     string        `json:"file_key" binding:"required"`
	UploadID    string        `json:"upload_id" binding:"required"`
	Parts       []upload.Part `json:"parts" binding:"required"`
	RecordingID string        `json:"recording_id"`
}

// CompleteMultipart godoc
// POST /api/upload/multipart/complete — assembles the object, then marks the
// recording upload-complete and re-evaluates its session.
func (h *UploadHandler) CompleteMultipart(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var req completeMultipartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	if err := h.presigner.CompleteMultipart(c.Request.Context(), req.FileKey, req.UploadID, req.Parts); err != nil {
		h.logger.Warn("complete multipart failed", zap.String("file_key", req.FileKey), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete upload"})
		return
	}
	if req.RecordingID != "" {
		if err := h.detector.UploadCompleted(c.Request.Context(), req.RecordingID); err != nil {
			if errors.Is(err, errs.ErrRecordingNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "recording not found"})
				return
			}
			h.logger.Warn("upload confirmation failed",
				zap.String("recording_id", req.RecordingID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to confirm upload"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": string(model.UploadStatusComplete)})
}
