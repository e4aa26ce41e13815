package trips

import (
	"busline/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupTripRoutes(rg *gin.RouterGroup, controller *Controller) {
	public := rg.Group("/trips")
	{
		public.GET("", controller.ListTrips)
		public.GET("/:id", controller.GetTrip)
		public.GET("/:id/availability", controller.GetAvailability)
	}

	admin := rg.Group("/admin/trips")
	admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		admin.POST("", controller.CreateTrip)
		admin.GET("", controller.ListTrips)
		// schedule | boarding | depart | arrive | cancel | reset
		admin.POST("/:id/:action", controller.Transition)
	}
}
