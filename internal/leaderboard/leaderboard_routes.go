package leaderboard

import (
	"github.com/DhavalSuthar-24/clubhouse/pkg/rmiddleware"
	"github.com/gin-gonic/gin"
)

func LeaderboardRoutes(router *gin.RouterGroup, svc *Service, authMW gin.HandlerFunc) {
	lc := NewLeaderboardController(svc)

	public := router.Group("/leaderboard")
	{
		public.GET("", lc.GetGlobal)
		public.GET("/sports/:sport_id", lc.GetSportRankings)
	}

	router.GET("/dashboard", authMW, lc.MyDashboard)
	router.GET("/players/:player_id/dashboard", authMW, lc.PlayerDashboard)
	router.GET("/coach/dashboard", authMW, lc.MyCoachDashboard)
	router.GET("/coaches/:coach_id/dashboard", authMW, lc.CoachDashboard)
	router.POST("/admin/leaderboard/recalculate", authMW, rmiddleware.AdminMiddleware(), lc.Recalculate)
}
