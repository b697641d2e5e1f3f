package auth

import (
	"github.com/DhavalSuthar-24/clubhouse/internal/user"
	"github.com/DhavalSuthar-24/clubhouse/pkg/rmiddleware"
	"github.com/DhavalSuthar-24/clubhouse/pkg/token"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func RegisterAuthRoutes(router *gin.RouterGroup, db *gorm.DB, roles *user.Service, issuer *token.Issuer, authMW gin.HandlerFunc) {
	authController := NewAuthController(db, roles, issuer)

	authPublic := router.Group("/auth")
	{
		authPublic.POST("/register", authController.Register)
		authPublic.POST("/login", authController.Login)
	}

	authProtected := router.Group("/auth")
	authProtected.Use(authMW)
	{
		authProtected.GET("/me", authController.GetProfile)
	}

	router.POST("/admin/users", authMW, rmiddleware.AdminMiddleware(), authController.CreateUser)
}
