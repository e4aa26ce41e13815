package analytics

import (
	"busline/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupAnalyticsRoutes(rg *gin.RouterGroup, controller *Controller) {
	admin := rg.Group("/admin/trips")
	admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		admin.GET("/:id/load", controller.GetTripLoad)
	}
}
