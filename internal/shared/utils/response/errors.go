package response

import (
	"errors"
	"net/http"

	"busline/internal/shared/apperrors"

	"github.com/gin-gonic/gin"
)

// StatusFor maps a service error onto an HTTP status code.
func StatusFor(err error) int {
	switch {
	case apperrors.IsValidation(err):
		return http.StatusUnprocessableEntity
	case apperrors.IsNotFound(err):
		return http.StatusNotFound
	case apperrors.IsAdmission(err):
		return http.StatusConflict
	case apperrors.IsStateConflict(err):
		return http.StatusConflict
	case apperrors.IsPaymentIncomplete(err):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err using the standard envelope. Internal errors are not echoed to clients.
func RespondError(c *gin.Context, err error) {
	code := StatusFor(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		RespondJSON(c, "error", code, "internal server error", nil, nil)
		return
	}
	RespondJSON(c, "error", code, err.Error(), nil, errorDetail(err))
}

func errorDetail(err error) gin.H {
	var validation apperrors.ValidationError
	if errors.As(err, &validation) {
		return gin.H{"kind": "validation_failed", "field": validation.Field, "reason": validation.Reason}
	}
	var admission apperrors.AdmissionError
	if errors.As(err, &admission) {
		return gin.H{"kind": "admission_denied", "reason": admission.Reason}
	}
	var conflict apperrors.StateConflictError
	if errors.As(err, &conflict) {
		return gin.H{"kind": "state_conflict", "entity": conflict.Entity, "state": conflict.From, "action": conflict.Action}
	}
	if apperrors.IsPaymentIncomplete(err) {
		return gin.H{"kind": "payment_incomplete"}
	}
	var notFound apperrors.NotFoundError
	if errors.As(err, &notFound) {
		return gin.H{"kind": "not_found", "entity": notFound.Entity}
	}
	return nil
}

// RespondBindError reports a request body or query that failed to bind.
func RespondBindError(c *gin.Context, err error) {
	RespondJSON(c, "error", http.StatusBadRequest, "invalid request", nil, err.Error())
}
