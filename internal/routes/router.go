package routes

import (
	"busline/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRouteRoutes(rg *gin.RouterGroup, controller *Controller) {
	public := rg.Group("")
	{
		public.GET("/cities", controller.ListCities)
		public.GET("/routes", controller.ListRoutes)
		public.GET("/routes/:id", controller.GetRoute)
	}

	admin := rg.Group("/admin")
	admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		admin.POST("/cities", controller.CreateCity)
		admin.POST("/routes", controller.CreateRoute)
		admin.POST("/routes/:id/state", controller.ChangeState)
	}
}
