package sport

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterSportRoutes mounts the catalog. adminMW guards the write routes;
// it is passed in because role checks live above this package.
func RegisterSportRoutes(router *gin.RouterGroup, db *gorm.DB, stats *Registry, adminMW ...gin.HandlerFunc) {
	sportController := NewSportController(NewSportRepository(db), stats)

	publicSports := router.Group("/sports")
	{
		publicSports.GET("", sportController.GetAllSports)
		publicSports.GET("/:sport_id", sportController.GetSportByID)
	}

	adminSports := router.Group("/sports")
	adminSports.Use(adminMW...)
	{
		adminSports.POST("", sportController.CreateSport)
		adminSports.PUT("/:sport_id", sportController.UpdateSport)
		adminSports.DELETE("/:sport_id", sportController.DeleteSport)
	}
}
