package rmiddleware

import (
	"net/http"

	"github.com/DhavalSuthar-24/clubhouse/internal/common"
	"github.com/DhavalSuthar-24/clubhouse/internal/user"
	"github.com/DhavalSuthar-24/clubhouse/pkg/responses"
	"github.com/gin-gonic/gin"
)

// RoleMiddleware admits callers whose current role is one of requiredRoles.
// It must run after the auth middleware.
func RoleMiddleware(requiredRoles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := common.GetActor(c)
		if !ok {
			responses.Unauthorized(c, "Unauthorized: no authenticated user")
			return
		}
		if !actor.HasRole(requiredRoles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, responses.ErrorResponse{
				Status:  "error",
				Message: "You don't have permission to access this resource",
				Code:    http.StatusForbidden,
				Kind:    "forbidden",
				Details: map[string]string{"role": string(actor.User.Role)},
			})
			return
		}
		c.Next()
	}
}

func AdminMiddleware() gin.HandlerFunc {
	return RoleMiddleware(user.RoleAdmin)
}

func CoachMiddleware() gin.HandlerFunc {
	return RoleMiddleware(user.RoleCoach)
}

func CoachOrAdminMiddleware() gin.HandlerFunc {
	return RoleMiddleware(user.RoleCoach, user.RoleAdmin)
}

func ManagerOrAdminMiddleware() gin.HandlerFunc {
	return RoleMiddleware(user.RoleManager, user.RoleAdmin)
}
