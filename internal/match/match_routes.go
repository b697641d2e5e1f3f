package match

import (
	"github.com/DhavalSuthar-24/clubhouse/pkg/rmiddleware"
	"github.com/gin-gonic/gin"
)

// MatchRoutes sets up tournament, match and achievement routes.
func MatchRoutes(router *gin.RouterGroup, svc *Service, authMW gin.HandlerFunc) {
	mc := NewMatchController(svc)
	managers := rmiddleware.ManagerOrAdminMiddleware()

	tournamentRoutes := router.Group("/tournaments")
	tournamentRoutes.Use(authMW)
	{
		tournamentRoutes.POST("", managers, mc.CreateTournament)
		tournamentRoutes.GET("", mc.GetTournaments)
		tournamentRoutes.GET("/:id", mc.GetTournamentByID)
		tournamentRoutes.PUT("/:id/status", managers, mc.UpdateTournamentStatus)
		tournamentRoutes.POST("/:id/teams", managers, mc.RegisterTeamForTournament)
		tournamentRoutes.POST("/:id/matches", managers, mc.CreateMatch)
		tournamentRoutes.GET("/:id/matches", mc.GetTournamentMatches)
	}

	router.PUT("/matches/:match_id/result", authMW, managers, mc.RecordResult)
	router.GET("/players/:player_id/achievements", authMW, mc.GetAchievements)
}
