package sport

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/DhavalSuthar-24/clubhouse/pkg/responses"
	"github.com/DhavalSuthar-24/clubhouse/pkg/validator"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SportController handles the sport catalog.
type SportController struct {
	repo  SportRepository
	stats *Registry
}

func NewSportController(repo SportRepository, stats *Registry) *SportController {
	return &SportController{repo: repo, stats: stats}
}

type CreateSportRequest struct {
	Name        string    `json:"name" binding:"required,min=3,max=100"`
	SportType   SportType `json:"sport_type" binding:"required,oneof=team individual"`
	Description string    `json:"description" binding:"omitempty,max=5000"`
}

type UpdateSportRequest struct {
	Name        string    `json:"name" binding:"omitempty,min=3,max=100"`
	SportType   SportType `json:"sport_type" binding:"omitempty,oneof=team individual"`
	Description *string   `json:"description" binding:"omitempty,max=5000"`
}

// SportDetail is a sport with the metrics it is ranked on.
type SportDetail struct {
	Sport
	Metrics []Metric `json:"metrics"`
}

func sportID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("sport_id"), 10, 32)
	if err != nil || id == 0 {
		responses.BadRequest(c, "Invalid sport ID")
		return 0, false
	}
	return uint(id), true
}

func (sc *SportController) detail(s *Sport) SportDetail {
	d := SportDetail{Sport: *s, Metrics: []Metric{}}
	if desc, ok := sc.stats.Lookup(s.Name); ok {
		d.Metrics = desc.Metrics
	}
	return d
}

// CreateSport godoc
// @Summary Create a new sport
// @Description Admin adds a sport to the catalog
// @Tags Sports
// @Accept json
// @Produce json
// @Param sport body CreateSportRequest true "Sport creation request"
// @Success 201 {object} responses.SuccessResponse{data=SportDetail}
// @Failure 400 {object} responses.ErrorResponse "Validation error"
// @Failure 409 {object} responses.ErrorResponse "Sport with this name already exists"
// @Router /sports [post]
// @Security ApiKeyAuth
func (sc *SportController) CreateSport(c *gin.Context) {
	var req CreateSportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, responses.ErrorResponse{
			Status: "error", Message: "Validation failed", Code: http.StatusBadRequest,
			Kind: "validation", Details: validator.ParseError(err),
		})
		return
	}

	existing, err := sc.repo.FindSportByName(req.Name)
	if err != nil {
		responses.SendError(c, http.StatusInternalServerError, "Failed to check sport name")
		return
	}
	if existing != nil {
		responses.SendError(c, http.StatusConflict, "Sport with this name already exists")
		return
	}

	sport := Sport{
		Name:        strings.TrimSpace(req.Name),
		SportType:   req.SportType,
		Description: req.Description,
	}
	if err := sc.repo.CreateSport(&sport); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			responses.SendError(c, http.StatusConflict, "Sport with this name already exists")
			return
		}
		responses.SendError(c, http.StatusInternalServerError, "Failed to create sport")
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "Sport created successfully", sc.detail(&sport))
}

// GetAllSports godoc
// @Summary List sports
// @Tags Sports
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Param search query string false "Name contains"
// @Success 200 {object} responses.PaginatedResponse{data=[]Sport}
// @Router /sports [get]
func (sc *SportController) GetAllSports(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	sports, total, err := sc.repo.GetAllSports(page, limit, c.Query("search"))
	if err != nil {
		responses.SendError(c, http.StatusInternalServerError, "Failed to retrieve sports")
		return
	}
	responses.SendPaginated(c, http.StatusOK, "Sports retrieved successfully", sports, total, page, limit)
}

// GetSportByID godoc
// @Summary Get a sport and its ranking metrics
// @Tags Sports
// @Produce json
// @Param sport_id path int true "Sport ID"
// @Success 200 {object} responses.SuccessResponse{data=SportDetail}
// @Failure 404 {object} responses.ErrorResponse
// @Router /sports/{sport_id} [get]
func (sc *SportController) GetSportByID(c *gin.Context) {
	id, ok := sportID(c)
	if !ok {
		return
	}
	sport, err := sc.repo.GetSportByID(id)
	if err != nil {
		responses.SendError(c, http.StatusInternalServerError, "Failed to retrieve sport")
		return
	}
	if sport == nil {
		responses.SendError(c, http.StatusNotFound, "Sport not found")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Sport retrieved successfully", sc.detail(sport))
}

// UpdateSport godoc
// @Summary Update a sport
// @Tags Sports
// @Accept json
// @Produce json
// @Param sport_id path int true "Sport ID"
// @Param sport body UpdateSportRequest true "Fields to change"
// @Success 200 {object} responses.SuccessResponse{data=SportDetail}
// @Failure 404 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Router /sports/{sport_id} [put]
// @Security ApiKeyAuth
func (sc *SportController) UpdateSport(c *gin.Context) {
	id, ok := sportID(c)
	if !ok {
		return
	}
	var req UpdateSportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, responses.ErrorResponse{
			Status: "error", Message: "Validation failed", Code: http.StatusBadRequest,
			Kind: "validation", Details: validator.ParseError(err),
		})
		return
	}

	sport, err := sc.repo.GetSportByID(id)
	if err != nil {
		responses.SendError(c, http.StatusInternalServerError, "Failed to retrieve sport")
		return
	}
	if sport == nil {
		responses.SendError(c, http.StatusNotFound, "Sport not found")
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" && !strings.EqualFold(name, sport.Name) {
		clash, err := sc.repo.FindSportByName(name)
		if err != nil {
			responses.SendError(c, http.StatusInternalServerError, "Failed to check sport name")
			return
		}
		if clash != nil {
			responses.SendError(c, http.StatusConflict, "Sport with this name already exists")
			return
		}
		sport.Name = name
	}
	if req.SportType != "" {
		sport.SportType = req.SportType
	}
	if req.Description != nil {
		sport.Description = *req.Description
	}
	if err := sc.repo.UpdateSport(sport); err != nil {
		responses.SendError(c, http.StatusInternalServerError, "Failed to update sport")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Sport updated successfully", sc.detail(sport))
}

// DeleteSport godoc
// @Summary Delete a sport
// @Tags Sports
// @Param sport_id path int true "Sport ID"
// @Success 200 {object} responses.SuccessResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /sports/{sport_id} [delete]
// @Security ApiKeyAuth
func (sc *SportController) DeleteSport(c *gin.Context) {
	id, ok := sportID(c)
	if !ok {
		return
	}
	if err := sc.repo.DeleteSport(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			responses.SendError(c, http.StatusNotFound, "Sport not found")
			return
		}
		responses.SendError(c, http.StatusInternalServerError, "Failed to delete sport")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Sport deleted successfully", nil)
}
