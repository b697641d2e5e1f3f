package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/DhavalSuthar-24/clubhouse/internal/common"
	"github.com/DhavalSuthar-24/clubhouse/pkg/responses"
	"github.com/gin-gonic/gin"
)

// maxUploadBytes bounds an attendance upload.
const maxUploadBytes = 2 << 20

type SessionController struct {
	svc *Service
}

func NewSessionController(svc *Service) *SessionController {
	return &SessionController{svc: svc}
}

type CreateSessionBody struct {
	SportID     uint      `json:"sport_id" binding:"required"`
	TeamID      *uint     `json:"team_id"`
	SessionDate time.Time `json:"session_date" binding:"required"`
	Title       string    `json:"title" binding:"required,max=200"`
	Notes       string    `json:"notes" binding:"max=2000"`
}

// CreateSession godoc
// @Summary Schedule a coaching session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param session body CreateSessionBody true "Session"
// @Success 201 {object} responses.SuccessResponse{data=CoachingSession}
// @Failure 403 {object} responses.ErrorResponse "Sport is not the coach's primary sport"
// @Security ApiKeyAuth
// @Router /sessions [post]
func (sc *SessionController) CreateSession(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	var body CreateSessionBody
	if !common.BindJSON(c, &body) {
		return
	}
	session, err := sc.svc.CreateSession(c.Request.Context(), actor, CreateInput{
		SportID:     body.SportID,
		TeamID:      body.TeamID,
		SessionDate: body.SessionDate,
		Title:       body.Title,
		Notes:       body.Notes,
	})
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "Session created", session)
}

// ListSessions godoc
// @Summary List visible coaching sessions
// @Tags Sessions
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} responses.PaginatedResponse{data=[]CoachingSession}
// @Security ApiKeyAuth
// @Router /sessions [get]
func (sc *SessionController) ListSessions(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	page, limit := common.Pagination(c)
	sessions, total, err := sc.svc.ListSessions(c.Request.Context(), actor, page, limit)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendPaginated(c, http.StatusOK, "", sessions, total, page, limit)
}

// GetSession godoc
// @Summary Get a session with its attendance
// @Tags Sessions
// @Produce json
// @Param session_id path uint true "Session ID"
// @Success 200 {object} responses.SuccessResponse{data=CoachingSession}
// @Failure 403 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /sessions/{session_id} [get]
func (sc *SessionController) GetSession(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	id, ok := common.IDParam(c, "session_id")
	if !ok {
		return
	}
	session, err := sc.svc.GetSession(c.Request.Context(), actor, id)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "", session)
}

// DownloadTemplate godoc
// @Summary Download an attendance CSV template
// @Description One absent row per eligible player, ready to fill in.
// @Tags Sessions
// @Produce text/csv
// @Param session_id path uint true "Session ID"
// @Success 200 {file} file
// @Security ApiKeyAuth
// @Router /sessions/{session_id}/csv-template [get]
func (sc *SessionController) DownloadTemplate(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	id, ok := common.IDParam(c, "session_id")
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := sc.svc.AttendanceTemplate(c.Request.Context(), actor, id, &buf); err != nil {
		responses.SendAppError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="session_%d_attendance.csv"`, id))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// UploadAttendance godoc
// @Summary Import attendance from CSV
// @Description Accepts a multipart "file" field or a raw text/csv body with columns player_id, attended, score. Rows are applied independently; rejected rows come back with their row number and reason (207).
// @Tags Sessions
// @Accept multipart/form-data
// @Accept text/csv
// @Produce json
// @Param session_id path uint true "Session ID"
// @Param file formData file false "Attendance CSV"
// @Success 200 {object} responses.SuccessResponse{data=ImportResult}
// @Success 207 {object} responses.SuccessResponse{data=ImportResult} "Some rows were rejected"
// @Failure 400 {object} responses.ErrorResponse "Bad header or file"
// @Failure 403 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /sessions/{session_id}/attendance [post]
func (sc *SessionController) UploadAttendance(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	id, ok := common.IDParam(c, "session_id")
	if !ok {
		return
	}
	body, err := uploadedCSV(c)
	if err != nil {
		responses.BadRequest(c, err.Error())
		return
	}
	defer body.Close()

	rows, err := ParseAttendanceCSV(io.LimitReader(body, maxUploadBytes))
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	result, err := sc.svc.ImportAttendance(c.Request.Context(), actor, id, rows)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	if len(result.Errors) > 0 {
		responses.SendSuccess(c, http.StatusMultiStatus,
			fmt.Sprintf("%d rows updated, %d rejected", result.Updated, len(result.Errors)), result)
		return
	}
	responses.SendSuccess(c, http.StatusOK, fmt.Sprintf("%d rows updated", result.Updated), result)
}

func uploadedCSV(c *gin.Context) (io.ReadCloser, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, errors.New(`multipart upload needs a "file" field`)
		}
		return fh.Open()
	}
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil, errors.New("CSV body is required")
	}
	return c.Request.Body, nil
}

// DailyScores godoc
// @Summary A player's daily performance scores
// @Tags Sessions
// @Produce json
// @Param player_id path uint true "Player ID"
// @Param limit query int false "Days to return" default(30)
// @Success 200 {object} responses.SuccessResponse{data=[]DailyPerformanceScore}
// @Failure 403 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /players/{player_id}/daily-scores [get]
func (sc *SessionController) DailyScores(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	id, ok := common.IDParam(c, "player_id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	scores, err := sc.svc.DailyScores(c.Request.Context(), actor, id, limit)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "", scores)
}
