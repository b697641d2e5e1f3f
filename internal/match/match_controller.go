package match

import (
	"net/http"
	"time"

	"github.com/DhavalSuthar-24/clubhouse/internal/common"
	"github.com/DhavalSuthar-24/clubhouse/pkg/responses"
	"github.com/gin-gonic/gin"
)

// MatchController serves tournaments, fixtures and results.
type MatchController struct {
	svc *Service
}

func NewMatchController(svc *Service) *MatchController {
	return &MatchController{svc: svc}
}

// --- DTOs ---

type CreateTournamentRequest struct {
	Name          string    `json:"name" binding:"required,min=3,max=150"`
	SportID       uint      `json:"sport_id" binding:"required"`
	ManagerUserID uint      `json:"manager_user_id"`
	StartDate     time.Time `json:"start_date" binding:"required"`
	EndDate       time.Time `json:"end_date"`
	Location      string    `json:"location" binding:"max=200"`
}

type UpdateStatusRequest struct {
	Status TournamentStatus `json:"status" binding:"required,oneof=upcoming ongoing completed"`
}

type RegisterTeamRequest struct {
	TeamID uint `json:"team_id" binding:"required"`
}

type CreateMatchRequest struct {
	MatchNumber int       `json:"match_number" binding:"required,gt=0"`
	Team1ID     uint      `json:"team1_id" binding:"required"`
	Team2ID     uint      `json:"team2_id" binding:"required,nefield=Team1ID"`
	MatchDate   time.Time `json:"match_date"`
	Venue       string    `json:"venue" binding:"max=200"`
}

type RecordResultRequest struct {
	ScoreTeam1      *int  `json:"score_team1" binding:"omitempty,gte=0"`
	ScoreTeam2      *int  `json:"score_team2" binding:"omitempty,gte=0"`
	IsCompleted     *bool `json:"is_completed"`
	ManOfTheMatchID *uint `json:"man_of_the_match_id"`
}

// --- Tournaments ---

// CreateTournament godoc
// @Summary Create a tournament
// @Description Managers create tournaments in their assigned sports; admins create one on behalf of a manager via manager_user_id.
// @Tags Tournaments
// @Accept json
// @Produce json
// @Param tournament body CreateTournamentRequest true "Tournament"
// @Success 201 {object} responses.SuccessResponse{data=Tournament}
// @Failure 403 {object} responses.ErrorResponse "Manager not assigned to sport"
// @Security ApiKeyAuth
// @Router /tournaments [post]
func (mc *MatchController) CreateTournament(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	var req CreateTournamentRequest
	if !common.BindJSON(c, &req) {
		return
	}
	t, err := mc.svc.CreateTournament(c.Request.Context(), actor, TournamentInput{
		Name:          req.Name,
		SportID:       req.SportID,
		ManagerUserID: req.ManagerUserID,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Location:      req.Location,
	})
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "Tournament created", t)
}

// GetTournaments godoc
// @Summary List tournaments
// @Tags Tournaments
// @Produce json
// @Param sport_id query int false "Filter by sport"
// @Param status query string false "upcoming, ongoing or completed"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} responses.PaginatedResponse{data=[]Tournament}
// @Security ApiKeyAuth
// @Router /tournaments [get]
func (mc *MatchController) GetTournaments(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	page, limit := common.Pagination(c)
	items, total, err := mc.svc.ListTournaments(c.Request.Context(), actor,
		common.OptionalUintQuery(c, "sport_id"), TournamentStatus(c.Query("status")), page, limit)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendPaginated(c, http.StatusOK, "", items, total, page, limit)
}

// GetTournamentByID godoc
// @Summary Get a tournament with its teams
// @Tags Tournaments
// @Produce json
// @Param id path uint true "Tournament ID"
// @Success 200 {object} responses.SuccessResponse{data=Tournament}
// @Failure 404 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /tournaments/{id} [get]
func (mc *MatchController) GetTournamentByID(c *gin.Context) {
	id, ok := common.IDParam(c, "id")
	if !ok {
		return
	}
	t, err := mc.svc.GetTournament(c.Request.Context(), id)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "", t)
}

// UpdateTournamentStatus godoc
// @Summary Move a tournament to another status
// @Tags Tournaments
// @Accept json
// @Produce json
// @Param id path uint true "Tournament ID"
// @Param status body UpdateStatusRequest true "New status"
// @Success 200 {object} responses.SuccessResponse{data=Tournament}
// @Security ApiKeyAuth
// @Router /tournaments/{id}/status [put]
func (mc *MatchController) UpdateTournamentStatus(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	id, ok := common.IDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if !common.BindJSON(c, &req) {
		return
	}
	t, err := mc.svc.SetStatus(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Tournament status updated", t)
}

// RegisterTeamForTournament godoc
// @Summary Register a team
// @Tags Tournaments
// @Accept json
// @Produce json
// @Param id path uint true "Tournament ID"
// @Param team body RegisterTeamRequest true "Team"
// @Success 201 {object} responses.SuccessResponse{data=TournamentTeam}
// @Failure 400 {object} responses.ErrorResponse "Team sport differs"
// @Failure 409 {object} responses.ErrorResponse "Already registered"
// @Security ApiKeyAuth
// @Router /tournaments/{id}/teams [post]
func (mc *MatchController) RegisterTeamForTournament(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	id, ok := common.IDParam(c, "id")
	if !ok {
		return
	}
	var req RegisterTeamRequest
	if !common.BindJSON(c, &req) {
		return
	}
	entry, err := mc.svc.RegisterTeam(c.Request.Context(), actor, id, req.TeamID)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "Team registered", entry)
}

// --- Matches ---

// CreateMatch godoc
// @Summary Schedule a match
// @Tags Tournaments
// @Accept json
// @Produce json
// @Param id path uint true "Tournament ID"
// @Param match body CreateMatchRequest true "Match"
// @Success 201 {object} responses.SuccessResponse{data=TournamentMatch}
// @Failure 409 {object} responses.ErrorResponse "Duplicate match number"
// @Security ApiKeyAuth
// @Router /tournaments/{id}/matches [post]
func (mc *MatchController) CreateMatch(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	id, ok := common.IDParam(c, "id")
	if !ok {
		return
	}
	var req CreateMatchRequest
	if !common.BindJSON(c, &req) {
		return
	}
	m, err := mc.svc.CreateMatch(c.Request.Context(), actor, id, MatchInput{
		MatchNumber: req.MatchNumber,
		Team1ID:     req.Team1ID,
		Team2ID:     req.Team2ID,
		MatchDate:   req.MatchDate,
		Venue:       req.Venue,
	})
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "Match scheduled", m)
}

// GetTournamentMatches godoc
// @Summary List a tournament's matches
// @Tags Tournaments
// @Produce json
// @Param id path uint true "Tournament ID"
// @Success 200 {object} responses.SuccessResponse{data=[]TournamentMatch}
// @Security ApiKeyAuth
// @Router /tournaments/{id}/matches [get]
func (mc *MatchController) GetTournamentMatches(c *gin.Context) {
	id, ok := common.IDParam(c, "id")
	if !ok {
		return
	}
	matches, err := mc.svc.ListMatches(c.Request.Context(), id)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "", matches)
}

// RecordResult godoc
// @Summary Record a match result
// @Description Partial update of scores, completion and man of the match. Completing a match with a man of the match awards an achievement once.
// @Tags Tournaments
// @Accept json
// @Produce json
// @Param match_id path uint true "Match ID"
// @Param result body RecordResultRequest true "Result"
// @Success 200 {object} responses.SuccessResponse{data=TournamentMatch}
// @Security ApiKeyAuth
// @Router /matches/{match_id}/result [put]
func (mc *MatchController) RecordResult(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	id, ok := common.IDParam(c, "match_id")
	if !ok {
		return
	}
	var req RecordResultRequest
	if !common.BindJSON(c, &req) {
		return
	}
	m, err := mc.svc.RecordResult(c.Request.Context(), actor, id, ResultInput{
		ScoreTeam1:      req.ScoreTeam1,
		ScoreTeam2:      req.ScoreTeam2,
		IsCompleted:     req.IsCompleted,
		ManOfTheMatchID: req.ManOfTheMatchID,
	})
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Match result saved", m)
}

// GetAchievements godoc
// @Summary A player's achievements
// @Tags Tournaments
// @Produce json
// @Param player_id path uint true "Player ID"
// @Success 200 {object} responses.SuccessResponse{data=[]Achievement}
// @Security ApiKeyAuth
// @Router /players/{player_id}/achievements [get]
func (mc *MatchController) GetAchievements(c *gin.Context) {
	id, ok := common.IDParam(c, "player_id")
	if !ok {
		return
	}
	items, err := mc.svc.Achievements(c.Request.Context(), id)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "", items)
}
