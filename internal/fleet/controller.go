package fleet

import (
	"net/http"

	"busline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func (c *Controller) CreateBus(ctx *gin.Context) {
	var req CreateBusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}
	bus, err := c.service.CreateBus(ctx.Request.Context(), req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "Bus created successfully", bus, nil)
}

func (c *Controller) ListBuses(ctx *gin.Context) {
	var companyID *uuid.UUID
	if raw := ctx.Query("company_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid company ID", nil, err.Error())
			return
		}
		companyID = &id
	}
	buses, err := c.service.ListBuses(ctx.Request.Context(), companyID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Buses retrieved successfully", buses, nil)
}

func (c *Controller) ListSeats(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid bus ID", nil, err.Error())
		return
	}
	seats, err := c.service.ListSeats(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Seats retrieved successfully", seats, nil)
}
