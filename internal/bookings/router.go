package bookings

import (
	"busline/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller) {
	bookings := rg.Group("/bookings")
	bookings.Use(middleware.JWTAuth(), middleware.RequireAgent())
	{
		bookings.POST("", controller.CreateBooking)
		bookings.GET("", controller.ListBookings)
		bookings.GET("/:id", controller.GetBooking)

		bookings.POST("/:id/reserve", controller.ReserveBooking)
		bookings.POST("/:id/confirm", controller.ConfirmBooking)
		bookings.POST("/:id/check-in", controller.CheckInBooking)
		bookings.POST("/:id/cancel", controller.CancelBooking)
		bookings.POST("/:id/refund", controller.RefundBooking)
		bookings.POST("/:id/share", controller.ShareBooking)

		bookings.GET("/:id/ticket", controller.GetTicket)
		bookings.GET("/:id/ticket.pdf", controller.TicketPDF)
		bookings.GET("/:id/qr.png", controller.TicketQR)
	}

	shared := rg.Group("/tickets/share")
	{
		shared.GET("/:token", controller.SharedTicket)
		shared.GET("/:token/pdf", controller.SharedTicketPDF)
	}

	admin := rg.Group("/admin/expiry")
	admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		admin.POST("/sweep", controller.RunExpirySweep)
	}
}
