package team

import (
	"net/http"

	"github.com/DhavalSuthar-24/clubhouse/internal/common"
	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"github.com/DhavalSuthar-24/clubhouse/pkg/responses"
	"github.com/gin-gonic/gin"
)

// TeamController serves teams, profiles and the registry admin endpoints.
type TeamController struct {
	svc      *Service
	registry *registry.Service
}

func NewTeamController(svc *Service, reg *registry.Service) *TeamController {
	return &TeamController{svc: svc, registry: reg}
}

type UpdateProfileRequest struct {
	IsActive    *bool    `json:"is_active"`
	CareerScore *float64 `json:"career_score" binding:"omitempty,gte=0"`
	TeamID      *uint    `json:"team_id" binding:"omitempty,gt=0"`
	ClearTeam   bool     `json:"clear_team"`
}

type AssignManagerSportRequest struct {
	ManagerUserID uint `json:"manager_user_id" binding:"required"`
	SportID       uint `json:"sport_id" binding:"required"`
}

type SeedCoachRequest struct {
	UserID          uint   `json:"user_id" binding:"required"`
	SportID         uint   `json:"sport_id" binding:"required"`
	ExperienceYears int    `json:"experience_years" binding:"gte=0,max=80"`
	Specialization  string `json:"specialization" binding:"max=200"`
}

// GetAllTeams godoc
// @Summary List teams
// @Description Managers see teams they manage, coaches the teams they coach, players the teams they play for; admins see all.
// @Tags Teams
// @Produce json
// @Param sport_id query int false "Sport filter"
// @Param name query string false "Name contains"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} responses.PaginatedResponse{data=[]TeamSummary}
// @Security ApiKeyAuth
// @Router /teams [get]
func (tc *TeamController) GetAllTeams(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	page, limit := common.Pagination(c)
	filter := TeamFilter{SportID: common.OptionalUintQuery(c, "sport_id"), Name: c.Query("name")}
	teams, total, err := tc.svc.ListTeams(c.Request.Context(), actor, filter, page, limit)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendPaginated(c, http.StatusOK, "Teams retrieved successfully", teams, total, page, limit)
}

// GetTeamByID godoc
// @Summary Team roster
// @Tags Teams
// @Produce json
// @Param team_id path int true "Team ID"
// @Success 200 {object} responses.SuccessResponse{data=Roster}
// @Failure 403 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /teams/{team_id} [get]
func (tc *TeamController) GetTeamByID(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	id, ok := common.IDParam(c, "team_id")
	if !ok {
		return
	}
	roster, err := tc.svc.GetRoster(c.Request.Context(), actor, id)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Team retrieved successfully", roster)
}

// GetProfiles godoc
// @Summary List sport profiles
// @Description Scoped by role: admins all, managers their teams, coaches their students, players their own.
// @Tags Profiles
// @Produce json
// @Param sport_id query int false "Sport filter"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} responses.PaginatedResponse{data=[]registry.PlayerSportProfile}
// @Security ApiKeyAuth
// @Router /profiles [get]
func (tc *TeamController) GetProfiles(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	page, limit := common.Pagination(c)
	profiles, total, err := tc.registry.ListProfiles(c.Request.Context(), actor, common.OptionalUintQuery(c, "sport_id"), page, limit)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendPaginated(c, http.StatusOK, "", profiles, total, page, limit)
}

// UpdateProfile godoc
// @Summary Update a sport profile
// @Description Coaches change activity and career score of their students; managers move profiles between their teams.
// @Tags Profiles
// @Accept json
// @Produce json
// @Param profile_id path int true "Profile ID"
// @Param profile body UpdateProfileRequest true "Fields to change"
// @Success 200 {object} responses.SuccessResponse{data=registry.PlayerSportProfile}
// @Failure 403 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /profiles/{profile_id} [put]
func (tc *TeamController) UpdateProfile(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	id, ok := common.IDParam(c, "profile_id")
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !common.BindJSON(c, &req) {
		return
	}
	profile, err := tc.registry.UpdateProfile(c.Request.Context(), actor, id, registry.ProfileUpdate{
		IsActive:    req.IsActive,
		CareerScore: req.CareerScore,
		TeamID:      req.TeamID,
		ClearTeam:   req.ClearTeam,
	})
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Profile updated", profile)
}

// GetPlayers godoc
// @Summary Player directory
// @Tags Players
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} responses.PaginatedResponse{data=[]registry.Player}
// @Failure 403 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /players [get]
func (tc *TeamController) GetPlayers(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	page, limit := common.Pagination(c)
	players, total, err := tc.svc.ListPlayers(c.Request.Context(), actor, page, limit)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendPaginated(c, http.StatusOK, "", players, total, page, limit)
}

// GetCoaches godoc
// @Summary Coach directory
// @Tags Coaches
// @Produce json
// @Param sport_id query int false "Primary sport"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} responses.PaginatedResponse{data=[]registry.Coach}
// @Security ApiKeyAuth
// @Router /coaches [get]
func (tc *TeamController) GetCoaches(c *gin.Context) {
	page, limit := common.Pagination(c)
	coaches, total, err := tc.svc.ListCoaches(c.Request.Context(), common.OptionalUintQuery(c, "sport_id"), page, limit)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendPaginated(c, http.StatusOK, "", coaches, total, page, limit)
}

// GetMySports godoc
// @Summary Sports the calling manager may run
// @Tags Managers
// @Produce json
// @Success 200 {object} responses.SuccessResponse{data=[]registry.ManagerSport}
// @Security ApiKeyAuth
// @Router /managers/me/sports [get]
func (tc *TeamController) GetMySports(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	list, err := tc.svc.ManagerSports(c.Request.Context(), actor)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "", list)
}

// AssignManagerSport godoc
// @Summary Authorize a manager for a sport
// @Tags Admin
// @Accept json
// @Produce json
// @Param assignment body AssignManagerSportRequest true "Manager and sport"
// @Success 201 {object} responses.SuccessResponse{data=registry.ManagerSport}
// @Failure 409 {object} responses.ErrorResponse "Already assigned"
// @Security ApiKeyAuth
// @Router /admin/manager-sports [post]
func (tc *TeamController) AssignManagerSport(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	var req AssignManagerSportRequest
	if !common.BindJSON(c, &req) {
		return
	}
	assignment, err := tc.registry.AssignManagerSport(c.Request.Context(), actor, req.ManagerUserID, req.SportID)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "Manager assigned to sport", assignment)
}

// RemoveManagerSport godoc
// @Summary Revoke a manager's sport authorization
// @Tags Admin
// @Produce json
// @Param manager_sport_id path int true "Assignment ID"
// @Success 200 {object} responses.SuccessResponse{data=registry.ManagerSport}
// @Failure 404 {object} responses.ErrorResponse "Assignment not found"
// @Security ApiKeyAuth
// @Router /admin/manager-sports/{manager_sport_id} [delete]
func (tc *TeamController) RemoveManagerSport(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	id, ok := common.IDParam(c, "manager_sport_id")
	if !ok {
		return
	}
	removed, err := tc.registry.RemoveManagerSport(c.Request.Context(), actor, id)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Manager sport assignment removed", removed)
}

// SeedCoach godoc
// @Summary Create a coach directly
// @Description Creates a coach profile for an existing user and switches their role to coach.
// @Tags Admin
// @Accept json
// @Produce json
// @Param coach body SeedCoachRequest true "User and primary sport"
// @Success 201 {object} responses.SuccessResponse{data=registry.Coach}
// @Security ApiKeyAuth
// @Router /admin/coaches [post]
func (tc *TeamController) SeedCoach(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	var req SeedCoachRequest
	if !common.BindJSON(c, &req) {
		return
	}
	coach, err := tc.registry.SeedCoach(c.Request.Context(), actor, registry.SeedCoachInput{
		UserID:          req.UserID,
		SportID:         req.SportID,
		ExperienceYears: req.ExperienceYears,
		Specialization:  req.Specialization,
	})
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "Coach created", coach)
}
