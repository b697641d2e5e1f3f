// Package common holds the request helpers shared by every controller.
package common

import (
	"net/http"
	"strconv"

	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"github.com/DhavalSuthar-24/clubhouse/pkg/responses"
	"github.com/DhavalSuthar-24/clubhouse/pkg/validator"
	"github.com/gin-gonic/gin"
)

const (
	ContextActorKey  = "currentActor"
	ContextUserIDKey = "userID"
)

// SetActor stores the resolved caller for downstream handlers.
func SetActor(c *gin.Context, actor *registry.Actor) {
	c.Set(ContextActorKey, actor)
	c.Set(ContextUserIDKey, actor.User.ID)
}

// GetActor returns the caller stored by the auth middleware.
func GetActor(c *gin.Context) (*registry.Actor, bool) {
	v, exists := c.Get(ContextActorKey)
	if !exists {
		return nil, false
	}
	actor, ok := v.(*registry.Actor)
	return actor, ok
}

// MustActor fetches the caller or aborts with 401.
func MustActor(c *gin.Context) (*registry.Actor, bool) {
	actor, ok := GetActor(c)
	if !ok {
		responses.Unauthorized(c, "User not authenticated")
	}
	return actor, ok
}

// IDParam parses a uint path parameter or aborts with 400.
func IDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		responses.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// OptionalUintQuery reads a uint query parameter; absent or malformed
// values yield nil.
func OptionalUintQuery(c *gin.Context, name string) *uint {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil
	}
	id := uint(v)
	return &id
}

// Pagination reads page and limit, clamping limit to 100.
func Pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// BindJSON binds and validates the body, aborting with 400 and per-field
// details on failure.
func BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, responses.ErrorResponse{
			Status:  "error",
			Message: "Invalid request payload",
			Code:    http.StatusBadRequest,
			Kind:    "validation",
			Details: validator.ParseError(err),
		})
		return false
	}
	return true
}
