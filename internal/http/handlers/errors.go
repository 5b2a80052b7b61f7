// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes give clients a stable, machine-readable taxonomy next to the
// human-readable message. Generic codes mirror HTTP status semantics; the
// scheduling-specific ones name outcomes that status alone cannot convey.
//
// Service errors are translated in one place, failErr, so every endpoint maps
// the same sentinel to the same status and code.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "invalid_state",
//	  "message": "meeting is not collecting availability"
//	}
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-meeting-backend/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeValidation       = "validation_error"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	// Scheduling-specific:
	ErrCodeInvalidState     = "invalid_state"
	ErrCodeNoAvailability   = "no_availability"
	ErrCodeStoreUnavailable = "store_unavailable"
	ErrCodeStreamFailed     = "stream_failed"
)

// failErr translates a service error into the error envelope. The cause is
// attached to the Gin context so the access log records it; the client only
// sees the sentinel's message.
func failErr(c *gin.Context, err error) {
	_ = c.Error(err)

	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		fail(c, http.StatusBadRequest, ErrCodeValidation, ve.Error())
	case errors.Is(err, services.ErrUnauthenticated):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, services.ErrUnauthenticated.Error())
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, services.ErrForbidden.Error())
	case errors.Is(err, services.ErrMeetingNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrMeetingNotFound.Error())
	case errors.Is(err, services.ErrParticipantNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrParticipantNotFound.Error())
	case errors.Is(err, services.ErrAvailabilityNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrAvailabilityNotFound.Error())
	case errors.Is(err, services.ErrNotificationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrNotificationNotFound.Error())
	case errors.Is(err, services.ErrInvalidState):
		fail(c, http.StatusConflict, ErrCodeInvalidState, services.ErrInvalidState.Error())
	case errors.Is(err, services.ErrNoAvailability):
		fail(c, http.StatusUnprocessableEntity, ErrCodeNoAvailability, services.ErrNoAvailability.Error())
	case errors.Is(err, services.ErrStoreUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		fail(c, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "storage temporarily unavailable")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}
