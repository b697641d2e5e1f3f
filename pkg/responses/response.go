package responses

import (
	"errors"
	"math"
	"net/http"

	"github.com/DhavalSuthar-24/clubhouse/internal/apperr"
	"github.com/gin-gonic/gin"
)

// SuccessResponse is the envelope of every 2xx reply.
type SuccessResponse struct {
	Status  string      `json:"status"` // "success"
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ErrorResponse is the envelope of every 4xx/5xx reply.
type ErrorResponse struct {
	Status  string            `json:"status"` // "error" or "fail"
	Message string            `json:"message"`
	Code    int               `json:"code"`
	Kind    string            `json:"kind,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// PaginatedResponse wraps list replies.
type PaginatedResponse struct {
	Status     string      `json:"status"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

type Pagination struct {
	TotalItems   int64 `json:"total_items"`
	TotalPages   int   `json:"total_pages"`
	CurrentPage  int   `json:"current_page"`
	PageSize     int   `json:"page_size"`
	HasNextPage  bool  `json:"has_next_page"`
	HasPrevPage  bool  `json:"has_prev_page"`
	NextPage     *int  `json:"next_page,omitempty"`
	PreviousPage *int  `json:"previous_page,omitempty"`
}

func SendSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	if message == "" {
		message = "Operation completed successfully"
	}
	c.JSON(statusCode, SuccessResponse{Status: "success", Message: message, Data: data})
}

// SendError aborts the request with a plain error envelope.
func SendError(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Status:  statusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// SendAppError maps a domain error onto its HTTP status. Internal errors
// hide their cause from the client.
func SendAppError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	code := apperr.HTTPStatus(kind)
	body := ErrorResponse{Status: statusText(code), Code: code, Kind: string(kind)}

	var appErr *apperr.Error
	switch {
	case kind == apperr.KindInternal:
		_ = c.Error(err)
		body.Message = "An unexpected error occurred on the server"
	case errors.As(err, &appErr):
		body.Message = appErr.Message
		body.Details = appErr.Metadata
	default:
		body.Message = err.Error()
	}
	c.AbortWithStatusJSON(code, body)
}

func statusText(code int) string {
	if code >= http.StatusInternalServerError {
		return "fail"
	}
	return "error"
}

// SendPaginated sends one page of a list with its navigation metadata.
func SendPaginated(c *gin.Context, statusCode int, message string, data interface{}, totalItems int64, currentPage int, pageSize int) {
	if message == "" {
		message = "Data retrieved successfully"
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	totalPages := int(math.Ceil(float64(totalItems) / float64(pageSize)))

	p := Pagination{
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		CurrentPage: currentPage,
		PageSize:    pageSize,
		HasNextPage: currentPage < totalPages,
		HasPrevPage: currentPage > 1,
	}
	if p.HasNextPage {
		next := currentPage + 1
		p.NextPage = &next
	}
	if p.HasPrevPage {
		prev := currentPage - 1
		p.PreviousPage = &prev
	}
	c.JSON(statusCode, PaginatedResponse{Status: "success", Message: message, Data: data, Pagination: p})
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Unauthorized access"
	}
	SendError(c, http.StatusUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "Access to this resource is forbidden"
	}
	SendError(c, http.StatusForbidden, message)
}

func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request payload or parameters"
	}
	SendError(c, http.StatusBadRequest, message)
}
