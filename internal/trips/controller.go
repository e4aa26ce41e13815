package trips

import (
	"net/http"

	"busline/internal/shared/middleware"
	"busline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service   Service
	lifecycle Lifecycle
}

func NewController(service Service, lifecycle Lifecycle) *Controller {
	return &Controller{service: service, lifecycle: lifecycle}
}

func (c *Controller) CreateTrip(ctx *gin.Context) {
	var req CreateTripRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}
	userID, _ := middleware.CurrentUserID(ctx)

	trip, err := c.service.CreateTrip(ctx.Request.Context(), req, userID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "Trip created successfully", trip, nil)
}

func (c *Controller) GetTrip(ctx *gin.Context) {
	id, ok := tripID(ctx)
	if !ok {
		return
	}
	trip, err := c.service.GetTrip(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Trip retrieved successfully", trip, nil)
}

func (c *Controller) ListTrips(ctx *gin.Context) {
	var query TripListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondBindError(ctx, err)
		return
	}
	result, err := c.service.ListTrips(ctx.Request.Context(), query)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Trips retrieved successfully", result, nil)
}

// GetAvailability answers free seats for ?board=&alight=, or the full per-segment snapshot
// when no segment is given.
func (c *Controller) GetAvailability(ctx *gin.Context) {
	id, ok := tripID(ctx)
	if !ok {
		return
	}

	boardRaw, alightRaw := ctx.Query("board"), ctx.Query("alight")
	if boardRaw == "" && alightRaw == "" {
		snap, err := c.lifecycle.TripSnapshot(ctx.Request.Context(), id)
		if err != nil {
			response.RespondError(ctx, err)
			return
		}
		response.RespondJSON(ctx, "success", http.StatusOK, "Availability retrieved successfully", snap, nil)
		return
	}

	board, err1 := uuid.Parse(boardRaw)
	alight, err2 := uuid.Parse(alightRaw)
	if err1 != nil || err2 != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "board and alight must be stop IDs", nil, nil)
		return
	}
	seats, err := c.lifecycle.GetTripAvailability(ctx.Request.Context(), id, board, alight)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Availability retrieved successfully", gin.H{
		"trip_id":         id,
		"board":           board,
		"alight":          alight,
		"available_seats": seats,
	}, nil)
}

func (c *Controller) Transition(ctx *gin.Context) {
	id, ok := tripID(ctx)
	if !ok {
		return
	}
	action, err := ParseAction(ctx.Param("action"))
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	result, err := c.lifecycle.TransitionTrip(ctx.Request.Context(), id, action)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Trip is now "+string(result.Trip.State), result, nil)
}

func tripID(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid trip ID", nil, err.Error())
		return uuid.Nil, false
	}
	return id, true
}
