package bookings

import (
	"context"
	"net/http"
	"time"

	"busline/internal/shared/middleware"
	"busline/internal/shared/utils/response"
	"busline/internal/tickets"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service  Service
	renderer tickets.Renderer
}

func NewController(service Service, renderer tickets.Renderer) *Controller {
	return &Controller{service: service, renderer: renderer}
}

func (c *Controller) CreateBooking(ctx *gin.Context) {
	var req CreateBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	var soldBy *uuid.UUID
	if userID, ok := middleware.CurrentUserID(ctx); ok {
		soldBy = &userID
	}

	booking, err := c.service.CreateBooking(ctx.Request.Context(), req, soldBy)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "Booking created successfully", booking, nil)
}

func (c *Controller) GetBooking(ctx *gin.Context) {
	id, ok := bookingID(ctx)
	if !ok {
		return
	}
	booking, err := c.service.GetBooking(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Booking retrieved successfully", booking, nil)
}

func (c *Controller) ListBookings(ctx *gin.Context) {
	var query ListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondBindError(ctx, err)
		return
	}
	result, err := c.service.ListBookings(ctx.Request.Context(), query)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Bookings retrieved successfully", result, nil)
}

func (c *Controller) ReserveBooking(ctx *gin.Context) {
	c.transition(ctx, "Booking reserved", c.service.ReserveBooking)
}

func (c *Controller) ConfirmBooking(ctx *gin.Context) {
	c.transition(ctx, "Booking confirmed", c.service.ConfirmBooking)
}

func (c *Controller) CheckInBooking(ctx *gin.Context) {
	c.transition(ctx, "Passenger checked in", c.service.CheckInBooking)
}

func (c *Controller) RefundBooking(ctx *gin.Context) {
	c.transition(ctx, "Booking refunded", c.service.RefundBooking)
}

func (c *Controller) CancelBooking(ctx *gin.Context) {
	id, ok := bookingID(ctx)
	if !ok {
		return
	}
	var req CancelRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			response.RespondBindError(ctx, err)
			return
		}
	}

	booking, err := c.service.CancelBooking(ctx.Request.Context(), id, req.Reason)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Booking cancelled", booking, nil)
}

func (c *Controller) transition(ctx *gin.Context, message string, fn func(ctx context.Context, id uuid.UUID) (*Booking, error)) {
	id, ok := bookingID(ctx)
	if !ok {
		return
	}
	booking, err := fn(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, message, booking, nil)
}

func (c *Controller) ShareBooking(ctx *gin.Context) {
	id, ok := bookingID(ctx)
	if !ok {
		return
	}
	link, err := c.service.ShareBooking(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Share link ready", link, nil)
}

func (c *Controller) GetTicket(ctx *gin.Context) {
	id, ok := bookingID(ctx)
	if !ok {
		return
	}
	ticket, err := c.service.Ticket(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Ticket retrieved successfully", ticket, nil)
}

func (c *Controller) TicketPDF(ctx *gin.Context) {
	id, ok := bookingID(ctx)
	if !ok {
		return
	}
	ticket, err := c.service.Ticket(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	c.writePDF(ctx, ticket)
}

func (c *Controller) TicketQR(ctx *gin.Context) {
	id, ok := bookingID(ctx)
	if !ok {
		return
	}
	ticket, err := c.service.Ticket(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	png, err := c.renderer.GenerateQR(ticket.QRPayload)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	ctx.Data(http.StatusOK, "image/png", png)
}

// SharedTicket serves the public ticket page data for a share token.
func (c *Controller) SharedTicket(ctx *gin.Context) {
	ticket, err := c.service.TicketByShareToken(ctx.Request.Context(), ctx.Param("token"))
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Ticket retrieved successfully", ticket, nil)
}

func (c *Controller) SharedTicketPDF(ctx *gin.Context) {
	ticket, err := c.service.TicketByShareToken(ctx.Request.Context(), ctx.Param("token"))
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	c.writePDF(ctx, ticket)
}

func (c *Controller) writePDF(ctx *gin.Context, ticket *tickets.Ticket) {
	pdf, err := c.renderer.PDF(ticket)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	ctx.Header("Content-Disposition", `inline; filename="`+ticket.BookingRef+`.pdf"`)
	ctx.Data(http.StatusOK, "application/pdf", pdf)
}

// RunExpirySweep triggers a sweep outside the schedule.
func (c *Controller) RunExpirySweep(ctx *gin.Context) {
	expired, err := c.service.RunExpirySweep(ctx.Request.Context(), time.Now())
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Expiry sweep completed", SweepResult{Expired: expired}, nil)
}

func bookingID(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return uuid.Nil, false
	}
	return id, true
}
