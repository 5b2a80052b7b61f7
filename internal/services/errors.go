// Package services defines the business logic for meetings, participants,
// availability, lifecycle transitions, and notifications. This file
// centralizes the service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks rejected input. Concrete failures are reported as
	// *ValidationError, which unwraps to ErrValidation.
	ErrValidation = errors.New("validation failed")

	// ErrMeetingNotFound indicates that the requested meeting does not exist.
	ErrMeetingNotFound = errors.New("meeting not found")

	// ErrParticipantNotFound indicates that the participant does not exist.
	ErrParticipantNotFound = errors.New("participant not found")

	// ErrAvailabilityNotFound indicates that the participant has no live
	// availability record.
	ErrAvailabilityNotFound = errors.New("availability not found")

	// ErrNotificationNotFound indicates that the notification does not exist
	// or belongs to another user.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrForbidden is returned when the caller may not act on the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthenticated is returned when an operation needs an identity and
	// the caller has none.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrInvalidState is returned when the meeting's status does not allow
	// the operation, including losing a finalize/cancel race.
	ErrInvalidState = errors.New("meeting is not collecting availability")

	// ErrNoAvailability is returned by Finalize when no eligible slot has a
	// respondent.
	ErrNoAvailability = errors.New("no eligible slot has availability")

	// ErrStoreUnavailable wraps persistence failures.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError describes one rejected input field. Message is safe to
// show to clients.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// storeErr wraps a persistence failure so callers can match
// ErrStoreUnavailable while the cause stays in the chain.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
