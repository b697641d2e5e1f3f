package team

import (
	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"github.com/DhavalSuthar-24/clubhouse/internal/user"
	"github.com/DhavalSuthar-24/clubhouse/pkg/rmiddleware"
	"github.com/gin-gonic/gin"
)

// TeamRoutes mounts teams, profiles, the directories and the registry admin
// endpoints. Everything here requires authentication.
func TeamRoutes(router *gin.RouterGroup, svc *Service, reg *registry.Service, authMW gin.HandlerFunc) {
	tc := NewTeamController(svc, reg)

	authRoutes := router.Group("/")
	authRoutes.Use(authMW)
	{
		authRoutes.GET("/teams", tc.GetAllTeams)
		authRoutes.GET("/teams/:team_id", tc.GetTeamByID)

		authRoutes.GET("/profiles", tc.GetProfiles)
		authRoutes.PUT("/profiles/:profile_id", tc.UpdateProfile)

		authRoutes.GET("/players", tc.GetPlayers)
		authRoutes.GET("/coaches", tc.GetCoaches)
		authRoutes.GET("/managers/me/sports", rmiddleware.RoleMiddleware(user.RoleManager), tc.GetMySports)
	}

	adminRoutes := router.Group("/admin")
	adminRoutes.Use(authMW, rmiddleware.AdminMiddleware())
	{
		adminRoutes.POST("/manager-sports", tc.AssignManagerSport)
		adminRoutes.DELETE("/manager-sports/:manager_sport_id", tc.RemoveManagerSport)
		adminRoutes.POST("/coaches", tc.SeedCoach)
	}
}
