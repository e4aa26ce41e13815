package fleet

import (
	"busline/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupFleetRoutes(rg *gin.RouterGroup, controller *Controller) {
	admin := rg.Group("/admin/buses")
	admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		admin.POST("", controller.CreateBus)
		admin.GET("", controller.ListBuses)
		admin.GET("/:id/seats", controller.ListSeats)
	}
}
