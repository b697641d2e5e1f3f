package workflow

import (
	"github.com/DhavalSuthar-24/clubhouse/pkg/rmiddleware"
	"github.com/gin-gonic/gin"
)

// WorkflowRoutes mounts the approval workflows. Authorization beyond the
// coarse role checks here happens inside the engine.
func WorkflowRoutes(router *gin.RouterGroup, engine *Engine, authMW gin.HandlerFunc) {
	wc := NewWorkflowController(engine)

	authRoutes := router.Group("/")
	authRoutes.Use(authMW)
	{
		authRoutes.POST("/promotions", wc.RequestPromotion)
		authRoutes.GET("/promotions", wc.ListPromotions)
		authRoutes.POST("/promotions/:request_id/:action", rmiddleware.ManagerOrAdminMiddleware(), wc.DecidePromotion)

		authRoutes.POST("/links/invite", rmiddleware.CoachMiddleware(), wc.InvitePlayer)
		authRoutes.POST("/links/request", wc.RequestCoach)
		authRoutes.GET("/links", wc.ListLinks)
		authRoutes.POST("/links/:link_id/:action", wc.RespondToLink)

		authRoutes.POST("/team-proposals", rmiddleware.CoachMiddleware(), wc.CreateTeamProposal)
		authRoutes.GET("/team-proposals", wc.ListTeamProposals)
		authRoutes.POST("/team-proposals/:proposal_id/:action", rmiddleware.ManagerOrAdminMiddleware(), wc.DecideTeamProposal)

		authRoutes.POST("/team-assignments", rmiddleware.ManagerOrAdminMiddleware(), wc.CreateTeamAssignment)
		authRoutes.GET("/team-assignments", wc.ListTeamAssignments)
		authRoutes.POST("/team-assignments/:request_id/:action", wc.RespondToTeamAssignment)
	}
}
