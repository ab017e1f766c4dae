package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/timeless-backend/internal/handlers"
)

type RouterConfig struct {
	MeetingHandler *handlers.MeetingHandler
	SSEHandler     *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// The dashboard is served separately; keep CORS open like the rest of the
	// services it talks to.
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type", "X-Requested-With"},
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	// Meetings
	router.POST("/meeting", cfg.MeetingHandler.CreateMeeting)
	router.GET("/meeting/:meetingId", cfg.MeetingHandler.GetMeeting)
	router.POST("/meeting/:meetingId/transcription", cfg.MeetingHandler.ReceiveTranscription)
	router.GET("/meeting/:meetingId/transcription", cfg.MeetingHandler.GetTranscription)

	// Dashboard stream
	router.GET("/sse", cfg.SSEHandler.Stream)

	return router
}
