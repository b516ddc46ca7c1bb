package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/podcraft/studio-service/internal/handler"
	"github.com/podcraft/studio-service/pkg/constants"
)

// New builds the HTTP router.
func New(
	clientURL string,
	studioHandler *handler.StudioHandler,
	sessionHandler *handler.SessionHandler,
	recordingHandler *handler.RecordingHandler,
	uploadHandler *handler.UploadHandler,
	roomWS *handler.RoomWSHandler,
	health *handler.HealthHandler,
) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if clientURL != "" {
		corsCfg.AllowOrigins = []string{clientURL}
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, handler.HeaderUserID)
	r.Use(cors.New(corsCfg))

	r.GET(constants.PathHealth, health.Health)
	r.GET(constants.PathReady, health.Ready)

	api := r.Group("/api")
	{
		studios := api.Group("/studios")
		{
			studios.POST("", studioHandler.CreateStudio)
			studios.GET("", studioHandler.ListStudios)
			studios.GET("/:id/details", studioHandler.StudioDetails)
			studios.GET("/:id/sessions", sessionHandler.ListByStudio)
		}

		api.POST("/sessions/:id/combined", sessionHandler.SetCombined)

		recordings := api.Group("/recordings")
		{
			recordings.POST("", recordingHandler.SaveRecording)
			recordings.GET("/session/:session_id", recordingHandler.BySession)
			recordings.GET("/:id", recordingHandler.ByStudio)
		}

		uploads := api.Group("/upload")
		{
			uploads.GET("", uploadHandler.UploadURL)
			uploads.GET("/combined/:file_key", uploadHandler.CombinedDownloadURL)
			uploads.GET("/:file_key", uploadHandler.DownloadURL)
			uploads.POST("/multipart/start", uploadHandler.StartMultipart)
			uploads.POST("/multipart/sign", uploadHandler.SignPart)
			uploads.POST("/multipart/complete", uploadHandler.CompleteMultipart)
		}
	}

	// Realtime room channel
	r.GET(constants.PathRoomWS, roomWS.ServeWS)

	return r
}
