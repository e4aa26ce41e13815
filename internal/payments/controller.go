package payments

import (
	"net/http"

	"busline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
)

// SignatureHeader carries the hex HMAC of a webhook body.
const SignatureHeader = "X-Signature"

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func (c *Controller) RecordPayment(ctx *gin.Context) {
	id, ok := bookingID(ctx)
	if !ok {
		return
	}
	var req RecordPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	entry, err := c.service.RecordPayment(ctx.Request.Context(), id, req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	status := http.StatusCreated
	if entry.Duplicate {
		status = http.StatusOK
	}
	response.RespondJSON(ctx, "success", status, "Payment recorded", entry, nil)
}

func (c *Controller) ListPayments(ctx *gin.Context) {
	id, ok := bookingID(ctx)
	if !ok {
		return
	}
	list, err := c.service.ListPayments(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Payments retrieved successfully", list, nil)
}

func (c *Controller) InitiatePayment(ctx *gin.Context) {
	var req InitiatePaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}
	handle, err := c.service.InitiatePayment(ctx.Request.Context(), req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "Payment initiated", handle, nil)
}

func (c *Controller) Webhook(ctx *gin.Context) {
	body, err := ctx.GetRawData()
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Unreadable body", nil, err.Error())
		return
	}
	if !c.service.VerifySignature(body, ctx.GetHeader(SignatureHeader)) {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Invalid signature", nil, nil)
		return
	}

	var event WebhookEvent
	if err := binding.JSON.BindBody(body, &event); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	entry, err := c.service.HandleWebhook(ctx.Request.Context(), event)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Webhook processed", entry, nil)
}

func bookingID(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return uuid.Nil, false
	}
	return id, true
}
