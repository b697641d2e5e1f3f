package middleware

import (
	"strings"

	"github.com/DhavalSuthar-24/clubhouse/internal/apperr"
	"github.com/DhavalSuthar-24/clubhouse/internal/common"
	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"github.com/DhavalSuthar-24/clubhouse/pkg/responses"
	"github.com/DhavalSuthar-24/clubhouse/pkg/token"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const RequestIDHeader = "X-Request-ID"

// AuthMiddleware validates the bearer token and resolves the caller's actor
// (user plus the profile tied to its role) once per request.
func AuthMiddleware(issuer *token.Issuer, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			responses.Unauthorized(c, "Authorization header is required")
			return
		}
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			responses.Unauthorized(c, "Invalid Authorization header format. Expected: Bearer <token>")
			return
		}

		claims, err := issuer.Validate(parts[1])
		if err != nil {
			responses.Unauthorized(c, "Invalid or expired token: "+err.Error())
			return
		}

		actor, err := registry.ResolveActor(c.Request.Context(), db, claims.UserID)
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				responses.Unauthorized(c, "User not found or inactive")
				return
			}
			responses.SendAppError(c, err)
			return
		}

		common.SetActor(c, actor)
		c.Next()
	}
}

// RequestID tags every request with an id, reusing the caller's when sent.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
