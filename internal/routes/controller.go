package routes

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

func (c *Controller) CreateCity(ctx *gin.Context) {
	var req CreateCityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	city, err := c.service.CreateCity(ctx.Request.Context(), req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "City created successfully", city, nil)
}

func (c *Controller) ListCities(ctx *gin.Context) {
	cities, err := c.service.ListCities(ctx.Request.Context())
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Cities retrieved successfully", cities, nil)
}

func (c *Controller) CreateRoute(ctx *gin.Context) {
	var req CreateRouteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	route, err := c.service.CreateRoute(ctx.Request.Context(), req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "Route created successfully", route, nil)
}

func (c *Controller) GetRoute(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid route ID", nil, err.Error())
		return
	}

	route, err := c.service.GetRoute(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	graph, err := NewGraph(route)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Route retrieved successfully", gin.H{
		"route": route,
		"stops": graph.Views(),
	}, nil)
}

func (c *Controller) ListRoutes(ctx *gin.Context) {
	var companyID *uuid.UUID
	if raw := ctx.Query("company_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid company ID", nil, err.Error())
			return
		}
		companyID = &id
	}

	routes, err := c.service.ListRoutes(ctx.Request.Context(), companyID, RouteState(ctx.Query("state")))
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Routes retrieved successfully", routes, nil)
}

func (c *Controller) ChangeState(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid route ID", nil, err.Error())
		return
	}
	var req ChangeRouteStateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	route, err := c.service.ChangeState(ctx.Request.Context(), id, RouteState(req.State))
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Route state updated", route, nil)
}
