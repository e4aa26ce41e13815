package payments

import (
	"busline/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupPaymentRoutes(rg *gin.RouterGroup, controller *Controller) {
	bookings := rg.Group("/bookings")
	bookings.Use(middleware.JWTAuth(), middleware.RequireAgent())
	{
		bookings.POST("/:id/payments", controller.RecordPayment)
		bookings.GET("/:id/payments", controller.ListPayments)
	}

	payments := rg.Group("/payments")
	{
		payments.POST("/initiate", middleware.JWTAuth(), middleware.RequireAgent(), controller.InitiatePayment)
		// called by the gateway, authenticated by signature
		payments.POST("/webhook", controller.Webhook)
	}
}
