package leaderboard

import (
	"net/http"
	"strconv"

	"github.com/DhavalSuthar-24/clubhouse/internal/common"
	"github.com/DhavalSuthar-24/clubhouse/pkg/responses"
	"github.com/gin-gonic/gin"
)

type LeaderboardController struct {
	svc *Service
}

func NewLeaderboardController(svc *Service) *LeaderboardController {
	return &LeaderboardController{svc: svc}
}

// GetGlobal godoc
// @Summary Global leaderboard
// @Description Active players by score, highest first.
// @Tags Leaderboard
// @Produce json
// @Param limit query int false "Rows to return" default(10)
// @Success 200 {object} responses.SuccessResponse{data=[]GlobalRow}
// @Router /leaderboard [get]
func (lc *LeaderboardController) GetGlobal(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	rows, err := lc.svc.Global(c.Request.Context(), limit)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "", rows)
}

// GetSportRankings godoc
// @Summary Per-metric rankings of a sport
// @Tags Leaderboard
// @Produce json
// @Param sport_id path uint true "Sport ID"
// @Success 200 {object} responses.SuccessResponse{data=SportRanking}
// @Failure 404 {object} responses.ErrorResponse
// @Router /leaderboard/sports/{sport_id} [get]
func (lc *LeaderboardController) GetSportRankings(c *gin.Context) {
	id, ok := common.IDParam(c, "sport_id")
	if !ok {
		return
	}
	ranking, err := lc.svc.SportRankings(c.Request.Context(), id)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "", ranking)
}

// Recalculate godoc
// @Summary Rebuild global scores
// @Tags Leaderboard
// @Produce json
// @Success 200 {object} responses.SuccessResponse
// @Security ApiKeyAuth
// @Router /admin/leaderboard/recalculate [post]
func (lc *LeaderboardController) Recalculate(c *gin.Context) {
	if err := lc.svc.Recalculate(c.Request.Context()); err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Leaderboard recalculated", nil)
}

// MyDashboard godoc
// @Summary The calling player's dashboard
// @Tags Leaderboard
// @Produce json
// @Success 200 {object} responses.SuccessResponse{data=Dashboard}
// @Failure 403 {object} responses.ErrorResponse "Caller is not a player"
// @Security ApiKeyAuth
// @Router /dashboard [get]
func (lc *LeaderboardController) MyDashboard(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	player, err := actor.AsPlayer()
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	lc.sendDashboard(c, player.ID)
}

// PlayerDashboard godoc
// @Summary A player's dashboard
// @Description Profiles with stats and per-metric ranks, achievements and global score. Visible to the player, their coaches and admins.
// @Tags Leaderboard
// @Produce json
// @Param player_id path uint true "Player ID"
// @Success 200 {object} responses.SuccessResponse{data=Dashboard}
// @Failure 403 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /players/{player_id}/dashboard [get]
func (lc *LeaderboardController) PlayerDashboard(c *gin.Context) {
	id, ok := common.IDParam(c, "player_id")
	if !ok {
		return
	}
	lc.sendDashboard(c, id)
}

func (lc *LeaderboardController) sendDashboard(c *gin.Context, playerID uint) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	dash, err := lc.svc.PlayerDashboard(c.Request.Context(), actor, playerID)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "", dash)
}

// MyCoachDashboard godoc
// @Summary The calling coach's dashboard
// @Description Teams coached by the caller and their active students, grouped by player, with per-sport stats.
// @Tags Leaderboard
// @Produce json
// @Success 200 {object} responses.SuccessResponse{data=CoachDashboard}
// @Failure 403 {object} responses.ErrorResponse "Caller is not a coach"
// @Security ApiKeyAuth
// @Router /coach/dashboard [get]
func (lc *LeaderboardController) MyCoachDashboard(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	coach, err := actor.AsCoach()
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	lc.sendCoachDashboard(c, coach.ID)
}

// CoachDashboard godoc
// @Summary A coach's dashboard
// @Tags Leaderboard
// @Produce json
// @Param coach_id path uint true "Coach ID"
// @Success 200 {object} responses.SuccessResponse{data=CoachDashboard}
// @Failure 403 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /coaches/{coach_id}/dashboard [get]
func (lc *LeaderboardController) CoachDashboard(c *gin.Context) {
	id, ok := common.IDParam(c, "coach_id")
	if !ok {
		return
	}
	lc.sendCoachDashboard(c, id)
}

func (lc *LeaderboardController) sendCoachDashboard(c *gin.Context, coachID uint) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	dash, err := lc.svc.CoachDashboard(c.Request.Context(), actor, coachID)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "", dash)
}
