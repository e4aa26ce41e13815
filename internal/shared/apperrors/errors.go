package apperrors

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed caller input. Resubmitting corrected input fixes it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// Validation is a shorthand constructor.
func Validation(field, reason string) error {
	return ValidationError{Field: field, Reason: reason}
}

// AdmissionReason enumerates the inventory and trip-state conflicts that block an admission.
type AdmissionReason string

const (
	ReasonQuotaExceeded  AdmissionReason = "quota_exceeded"
	ReasonSeatTaken      AdmissionReason = "seat_taken"
	ReasonSegmentInvalid AdmissionReason = "segment_invalid"
	ReasonTripClosed     AdmissionReason = "trip_closed"
	ReasonTripDeparted   AdmissionReason = "trip_departed"
)

// AdmissionError is a definitive "not available" answer.
type AdmissionError struct {
	Reason AdmissionReason
	Detail string
	Cause  error
}

func (e AdmissionError) Unwrap() error { return e.Cause }

func (e AdmissionError) Error() string {
	if e.Detail == "" {
		return "admission denied: " + string(e.Reason)
	}
	return fmt.Sprintf("admission denied: %s: %s", e.Reason, e.Detail)
}

// Admission is a shorthand constructor.
func Admission(reason AdmissionReason, detail string) error {
	return AdmissionError{Reason: reason, Detail: detail}
}

// ErrPaymentIncomplete is returned when confirming a booking that still has an amount due.
var ErrPaymentIncomplete = errors.New("payment incomplete")

// StateConflictError means the caller acted on a stale view of an entity's state.
type StateConflictError struct {
	Entity string
	From   string
	Action string
}

func (e StateConflictError) Error() string {
	return fmt.Sprintf("state conflict: cannot %s %s in state %s", e.Action, e.Entity, e.From)
}

// StateConflict is a shorthand constructor.
func StateConflict(entity, from, action string) error {
	return StateConflictError{Entity: entity, From: from, Action: action}
}

type NotFoundError struct {
	Entity string
	ID     string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func NotFound(entity, id string) error {
	return NotFoundError{Entity: entity, ID: id}
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsAdmission(err error) bool {
	var target AdmissionError
	return errors.As(err, &target)
}

// AdmissionReasonOf returns the admission reason carried by err, if any.
func AdmissionReasonOf(err error) (AdmissionReason, bool) {
	var target AdmissionError
	if errors.As(err, &target) {
		return target.Reason, true
	}
	return "", false
}

func IsPaymentIncomplete(err error) bool {
	return errors.Is(err, ErrPaymentIncomplete)
}

func IsStateConflict(err error) bool {
	var target StateConflictError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}
