package companies

import (
	"busline/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupCompanyRoutes(rg *gin.RouterGroup, controller *Controller) {
	admin := rg.Group("/admin/companies")
	admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		admin.POST("", controller.Create)
		admin.GET("", controller.List)
		admin.GET("/:id", controller.Get)
		admin.PATCH("/:id/settings", controller.UpdateSettings)
	}
}
