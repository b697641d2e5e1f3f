package workflow

import (
	"net/http"

	"github.com/DhavalSuthar-24/clubhouse/internal/common"
	"github.com/DhavalSuthar-24/clubhouse/pkg/responses"
	"github.com/gin-gonic/gin"
)

// WorkflowController exposes the approval workflows over HTTP.
type WorkflowController struct {
	engine *Engine
}

func NewWorkflowController(engine *Engine) *WorkflowController {
	return &WorkflowController{engine: engine}
}

// --- DTOs ---

type PromotionRequestBody struct {
	SportID  uint   `json:"sport_id" binding:"required"`
	PlayerID *uint  `json:"player_id"`
	UserID   uint   `json:"user_id"`
	Remarks  string `json:"remarks" binding:"max=1000"`
}

type DecisionBody struct {
	Remarks string `json:"remarks" binding:"max=1000"`
}

type InviteBody struct {
	PlayerID uint `json:"player_id" binding:"required"`
	SportID  uint `json:"sport_id" binding:"required"`
}

type CoachRequestBody struct {
	CoachID uint `json:"coach_id" binding:"required"`
	SportID uint `json:"sport_id" binding:"required"`
}

type TeamProposalBody struct {
	ManagerID uint   `json:"manager_id" binding:"required"`
	SportID   uint   `json:"sport_id" binding:"required"`
	TeamName  string `json:"team_name" binding:"required,min=2,max=100"`
	PlayerIDs []uint `json:"player_ids" binding:"required,min=1,dive,gt=0"`
}

type TeamAssignmentBody struct {
	CoachID uint `json:"coach_id" binding:"required"`
	TeamID  uint `json:"team_id" binding:"required"`
}

// decisionRemarks reads an optional JSON body carrying remarks.
func decisionRemarks(c *gin.Context) (string, bool) {
	var body DecisionBody
	if c.Request.ContentLength == 0 {
		return "", true
	}
	if !common.BindJSON(c, &body) {
		return "", false
	}
	return body.Remarks, true
}

func listQuery(c *gin.Context) ListQuery {
	page, limit := common.Pagination(c)
	return ListQuery{Status: Status(c.Query("status")), Page: page, Limit: limit}
}

func sendCreated(c *gin.Context, created bool, message string, data any) {
	if created {
		responses.SendSuccess(c, http.StatusCreated, message, data)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "A pending request already exists", data)
}

// --- Promotions ---

// RequestPromotion godoc
// @Summary Request promotion to coach
// @Description Files a pending request to become a coach of a sport. Admins may file for another user via user_id.
// @Tags Workflow
// @Accept json
// @Produce json
// @Param request body PromotionRequestBody true "Promotion request"
// @Success 201 {object} responses.SuccessResponse{data=PromotionRequest}
// @Failure 400 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse "User already coaches or has a pending request"
// @Security ApiKeyAuth
// @Router /promotions [post]
func (wc *WorkflowController) RequestPromotion(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	var body PromotionRequestBody
	if !common.BindJSON(c, &body) {
		return
	}
	req, err := wc.engine.RequestPromotion(c.Request.Context(), actor, PromotionInput{
		UserID:   body.UserID,
		SportID:  body.SportID,
		PlayerID: body.PlayerID,
		Remarks:  body.Remarks,
	})
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "Promotion request submitted", req)
}

// ListPromotions godoc
// @Summary List promotion requests
// @Description Managers and admins see every request; other users see their own.
// @Tags Workflow
// @Produce json
// @Param status query string false "pending, approved or rejected"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} responses.PaginatedResponse{data=[]PromotionRequest}
// @Security ApiKeyAuth
// @Router /promotions [get]
func (wc *WorkflowController) ListPromotions(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	q := listQuery(c)
	items, total, err := wc.engine.ListPromotions(c.Request.Context(), actor, q)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendPaginated(c, http.StatusOK, "", items, total, q.Page, q.Limit)
}

// DecidePromotion godoc
// @Summary Approve or reject a promotion request
// @Tags Workflow
// @Accept json
// @Produce json
// @Param request_id path uint true "Promotion request ID"
// @Param action path string true "approve or reject"
// @Param decision body DecisionBody false "Remarks"
// @Success 200 {object} responses.SuccessResponse{data=PromotionRequest}
// @Failure 403 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse "Request is not pending"
// @Security ApiKeyAuth
// @Router /promotions/{request_id}/{action} [post]
func (wc *WorkflowController) DecidePromotion(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	id, ok := common.IDParam(c, "request_id")
	if !ok {
		return
	}
	remarks, ok := decisionRemarks(c)
	if !ok {
		return
	}
	var (
		req *PromotionRequest
		err error
	)
	switch c.Param("action") {
	case "approve":
		req, err = wc.engine.ApprovePromotion(c.Request.Context(), actor, id, remarks)
	case "reject":
		req, err = wc.engine.RejectPromotion(c.Request.Context(), actor, id, remarks)
	default:
		responses.BadRequest(c, "Action must be approve or reject")
		return
	}
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Promotion request "+string(req.Status), req)
}

// --- Coach-player links ---

// InvitePlayer godoc
// @Summary Coach invites a player
// @Tags Workflow
// @Accept json
// @Produce json
// @Param invite body InviteBody true "Player and sport"
// @Success 201 {object} responses.SuccessResponse{data=CoachPlayerLinkRequest}
// @Success 200 {object} responses.SuccessResponse{data=CoachPlayerLinkRequest} "Existing pending invitation"
// @Failure 403 {object} responses.ErrorResponse "Coach/sport mismatch"
// @Security ApiKeyAuth
// @Router /links/invite [post]
func (wc *WorkflowController) InvitePlayer(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	var body InviteBody
	if !common.BindJSON(c, &body) {
		return
	}
	link, created, err := wc.engine.CoachInvitePlayer(c.Request.Context(), actor, body.PlayerID, body.SportID)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	sendCreated(c, created, "Invitation sent", link)
}

// RequestCoach godoc
// @Summary Player asks a coach for coaching
// @Tags Workflow
// @Accept json
// @Produce json
// @Param request body CoachRequestBody true "Coach and sport"
// @Success 201 {object} responses.SuccessResponse{data=CoachPlayerLinkRequest}
// @Failure 403 {object} responses.ErrorResponse "Coach/sport mismatch"
// @Security ApiKeyAuth
// @Router /links/request [post]
func (wc *WorkflowController) RequestCoach(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	var body CoachRequestBody
	if !common.BindJSON(c, &body) {
		return
	}
	link, created, err := wc.engine.PlayerRequestCoach(c.Request.Context(), actor, body.CoachID, body.SportID)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	sendCreated(c, created, "Coaching request sent", link)
}

// ListLinks godoc
// @Summary List coach-player link requests
// @Tags Workflow
// @Produce json
// @Param status query string false "pending, accepted or rejected"
// @Success 200 {object} responses.PaginatedResponse{data=[]CoachPlayerLinkRequest}
// @Security ApiKeyAuth
// @Router /links [get]
func (wc *WorkflowController) ListLinks(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	q := listQuery(c)
	items, total, err := wc.engine.ListLinks(c.Request.Context(), actor, q)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendPaginated(c, http.StatusOK, "", items, total, q.Page, q.Limit)
}

// RespondToLink godoc
// @Summary Accept or reject a link request
// @Description Only the invited party (or an admin) may answer.
// @Tags Workflow
// @Produce json
// @Param link_id path uint true "Link request ID"
// @Param action path string true "accept or reject"
// @Success 200 {object} responses.SuccessResponse
// @Failure 403 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /links/{link_id}/{action} [post]
func (wc *WorkflowController) RespondToLink(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	id, ok := common.IDParam(c, "link_id")
	if !ok {
		return
	}
	switch c.Param("action") {
	case "accept":
		profile, err := wc.engine.AcceptLink(c.Request.Context(), actor, id)
		if err != nil {
			responses.SendAppError(c, err)
			return
		}
		responses.SendSuccess(c, http.StatusOK, "Link accepted", profile)
	case "reject":
		link, err := wc.engine.RejectLink(c.Request.Context(), actor, id)
		if err != nil {
			responses.SendAppError(c, err)
			return
		}
		responses.SendSuccess(c, http.StatusOK, "Link rejected", link)
	default:
		responses.BadRequest(c, "Action must be accept or reject")
	}
}

// --- Team proposals ---

// CreateTeamProposal godoc
// @Summary Propose a team
// @Description A coach proposes a roster of their unattached students to a manager of the sport.
// @Tags Workflow
// @Accept json
// @Produce json
// @Param proposal body TeamProposalBody true "Proposal"
// @Success 201 {object} responses.SuccessResponse{data=TeamProposal}
// @Failure 403 {object} responses.ErrorResponse
// @Failure 422 {object} responses.ErrorResponse "A player is ineligible; details.player_id names it"
// @Security ApiKeyAuth
// @Router /team-proposals [post]
func (wc *WorkflowController) CreateTeamProposal(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	var body TeamProposalBody
	if !common.BindJSON(c, &body) {
		return
	}
	proposal, err := wc.engine.CreateTeamProposal(c.Request.Context(), actor, ProposalInput{
		ManagerUserID: body.ManagerID,
		SportID:       body.SportID,
		TeamName:      body.TeamName,
		PlayerIDs:     body.PlayerIDs,
	})
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "Team proposal submitted", proposal)
}

// ListTeamProposals godoc
// @Summary List team proposals
// @Tags Workflow
// @Produce json
// @Param status query string false "pending, approved or rejected"
// @Success 200 {object} responses.PaginatedResponse{data=[]TeamProposal}
// @Security ApiKeyAuth
// @Router /team-proposals [get]
func (wc *WorkflowController) ListTeamProposals(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	q := listQuery(c)
	items, total, err := wc.engine.ListProposals(c.Request.Context(), actor, q)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendPaginated(c, http.StatusOK, "", items, total, q.Page, q.Limit)
}

// DecideTeamProposal godoc
// @Summary Approve or reject a team proposal
// @Tags Workflow
// @Accept json
// @Produce json
// @Param proposal_id path uint true "Proposal ID"
// @Param action path string true "approve or reject"
// @Param decision body DecisionBody false "Remarks"
// @Success 200 {object} responses.SuccessResponse{data=TeamProposal}
// @Failure 403 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Failure 422 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /team-proposals/{proposal_id}/{action} [post]
func (wc *WorkflowController) DecideTeamProposal(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	id, ok := common.IDParam(c, "proposal_id")
	if !ok {
		return
	}
	remarks, ok := decisionRemarks(c)
	if !ok {
		return
	}
	var (
		proposal *TeamProposal
		err      error
	)
	switch c.Param("action") {
	case "approve":
		proposal, err = wc.engine.ApproveTeamProposal(c.Request.Context(), actor, id, remarks)
	case "reject":
		proposal, err = wc.engine.RejectTeamProposal(c.Request.Context(), actor, id, remarks)
	default:
		responses.BadRequest(c, "Action must be approve or reject")
		return
	}
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Team proposal "+string(proposal.Status), proposal)
}

// --- Team assignments ---

// CreateTeamAssignment godoc
// @Summary Ask a coach to take over a team
// @Tags Workflow
// @Accept json
// @Produce json
// @Param assignment body TeamAssignmentBody true "Coach and team"
// @Success 201 {object} responses.SuccessResponse{data=TeamAssignmentRequest}
// @Failure 403 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /team-assignments [post]
func (wc *WorkflowController) CreateTeamAssignment(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	var body TeamAssignmentBody
	if !common.BindJSON(c, &body) {
		return
	}
	req, created, err := wc.engine.CreateTeamAssignment(c.Request.Context(), actor, body.CoachID, body.TeamID)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	sendCreated(c, created, "Team assignment sent", req)
}

// ListTeamAssignments godoc
// @Summary List team assignment requests
// @Tags Workflow
// @Produce json
// @Success 200 {object} responses.PaginatedResponse{data=[]TeamAssignmentRequest}
// @Security ApiKeyAuth
// @Router /team-assignments [get]
func (wc *WorkflowController) ListTeamAssignments(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	q := listQuery(c)
	items, total, err := wc.engine.ListAssignments(c.Request.Context(), actor, q)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendPaginated(c, http.StatusOK, "", items, total, q.Page, q.Limit)
}

// RespondToTeamAssignment godoc
// @Summary Accept or reject a team assignment
// @Tags Workflow
// @Accept json
// @Produce json
// @Param request_id path uint true "Assignment ID"
// @Param action path string true "accept or reject"
// @Param decision body DecisionBody false "Remarks"
// @Success 200 {object} responses.SuccessResponse{data=TeamAssignmentRequest}
// @Security ApiKeyAuth
// @Router /team-assignments/{request_id}/{action} [post]
func (wc *WorkflowController) RespondToTeamAssignment(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	id, ok := common.IDParam(c, "request_id")
	if !ok {
		return
	}
	remarks, ok := decisionRemarks(c)
	if !ok {
		return
	}
	var (
		req *TeamAssignmentRequest
		err error
	)
	switch c.Param("action") {
	case "accept":
		req, err = wc.engine.AcceptTeamAssignment(c.Request.Context(), actor, id)
	case "reject":
		req, err = wc.engine.RejectTeamAssignment(c.Request.Context(), actor, id, remarks)
	default:
		responses.BadRequest(c, "Action must be accept or reject")
		return
	}
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Team assignment "+string(req.Status), req)
}
