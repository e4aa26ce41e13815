package auth

import (
	"errors"
	"net/http"

	"busline/internal/shared/middleware"
	"busline/internal/shared/utils/response"
	"busline/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
	log     *logger.Logger
}

func NewController(service Service) *Controller {
	return &Controller{
		service: service,
		log:     logger.GetDefault().WithComponent("auth"),
	}
}

// respond maps the auth sentinels; everything else goes through the shared mapping.
func (c *Controller) respond(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenExpired):
		c.log.LogAuthFailure(ctx.Request.Context(), err.Error(), ctx.ClientIP())
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, err.Error(), nil, nil)
	case errors.Is(err, ErrAccountDisabled):
		c.log.LogAuthFailure(ctx.Request.Context(), err.Error(), ctx.ClientIP())
		response.RespondJSON(ctx, "error", http.StatusForbidden, err.Error(), nil, nil)
	case errors.Is(err, ErrEmailTaken):
		response.RespondJSON(ctx, "error", http.StatusConflict, err.Error(), nil, nil)
	default:
		response.RespondError(ctx, err)
	}
}

func currentOperator(ctx *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "not authenticated", nil, nil)
	}
	return id, ok
}

func (c *Controller) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}
	operator, err := c.service.Register(ctx.Request.Context(), req)
	if err != nil {
		c.respond(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "Operator registered successfully", operator, nil)
}

func (c *Controller) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}
	resp, err := c.service.Login(ctx.Request.Context(), req)
	if err != nil {
		c.respond(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Login successful", resp, nil)
}

func (c *Controller) Refresh(ctx *gin.Context) {
	var req RefreshTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}
	pair, err := c.service.Refresh(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		c.respond(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Token refreshed successfully", pair, nil)
}

// Logout is client side: tokens are stateless and expire on their own.
func (c *Controller) Logout(ctx *gin.Context) {
	response.RespondJSON(ctx, "success", http.StatusOK, "Logged out successfully", nil, nil)
}

func (c *Controller) ChangePassword(ctx *gin.Context) {
	id, ok := currentOperator(ctx)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}
	if err := c.service.ChangePassword(ctx.Request.Context(), id, req); err != nil {
		c.respond(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Password changed successfully", nil, nil)
}

func (c *Controller) Me(ctx *gin.Context) {
	id, ok := currentOperator(ctx)
	if !ok {
		return
	}
	operator, err := c.service.Me(ctx.Request.Context(), id)
	if err != nil {
		c.respond(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Operator retrieved successfully", operator, nil)
}

func (c *Controller) ListOperators(ctx *gin.Context) {
	var query OperatorQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondBindError(ctx, err)
		return
	}
	operators, err := c.service.ListOperators(ctx.Request.Context(), query)
	if err != nil {
		c.respond(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Operators retrieved successfully", operators, nil)
}

func (c *Controller) Activate(ctx *gin.Context)   { c.setActive(ctx, true) }
func (c *Controller) Deactivate(ctx *gin.Context) { c.setActive(ctx, false) }

func (c *Controller) setActive(ctx *gin.Context, active bool) {
	actor, ok := currentOperator(ctx)
	if !ok {
		return
	}
	target, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid operator id", nil, nil)
		return
	}
	operator, err := c.service.SetActive(ctx.Request.Context(), actor, target, active)
	if err != nil {
		c.respond(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Operator updated successfully", operator, nil)
}
