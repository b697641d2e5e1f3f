package session

import (
	"github.com/DhavalSuthar-24/clubhouse/pkg/rmiddleware"
	"github.com/gin-gonic/gin"
)

func SessionRoutes(router *gin.RouterGroup, svc *Service, authMW gin.HandlerFunc) {
	sc := NewSessionController(svc)

	sessions := router.Group("/sessions")
	sessions.Use(authMW)
	{
		sessions.POST("", rmiddleware.CoachMiddleware(), sc.CreateSession)
		sessions.GET("", sc.ListSessions)
		sessions.GET("/:session_id", sc.GetSession)
		sessions.GET("/:session_id/csv-template", rmiddleware.CoachOrAdminMiddleware(), sc.DownloadTemplate)
		sessions.POST("/:session_id/attendance", rmiddleware.CoachOrAdminMiddleware(), sc.UploadAttendance)
	}

	router.GET("/players/:player_id/daily-scores", authMW, sc.DailyScores)
}
