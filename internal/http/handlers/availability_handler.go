// Availability HTTP handlers.
//
// This file exposes REST endpoints for participants' availability:
//   - PUT    /participants/{id}/availability  (replace slot set)
//   - GET    /participants/{id}/availability  (get live record)
//   - DELETE /participants/{id}/availability  (withdraw)
//   - GET    /meetings/{id}/availability      (list live records, ETag support)
//
// A user-owned participant is written by that user only; a guest
// participant's ID acts as its write token.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-meeting-backend/internal/domain"
	"github.com/tbourn/go-meeting-backend/internal/http/middleware"
)

// PutAvailabilityRequest is the JSON payload replacing a participant's slots.
type PutAvailabilityRequest struct {
	// Slots are RFC 3339 UTC instants on the slot grid. An empty list is a
	// valid answer meaning "none of these times".
	Slots []string `json:"slots" binding:"required" example:"2025-01-15T09:00:00Z,2025-01-15T09:15:00Z"`
	// Constraints are free-form participant preferences, stored as given.
	Constraints map[string]any `json:"constraints,omitempty"`
}

// ListAvailabilityResponse lists the live records of a meeting.
type ListAvailabilityResponse struct {
	MeetingID    string                `json:"meeting_id"`
	Availability []domain.Availability `json:"availability"`
}

// PutAvailability godoc
// @ID          putAvailability
// @Summary     Submit availability
// @Description Replaces the participant's slot set. The record's version increases by one on every write.
// @Tags        Availability
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                           true  "Participant ID (UUID)"  format(uuid)
// @Param       body  body  handlers.PutAvailabilityRequest  true  "Slots"
//
// @Success     200  {object}  domain.Availability
// @Failure     400  {object}  handlers.ErrorResponse "Validation error"
// @Failure     403  {object}  handlers.ErrorResponse "Participant belongs to another user"
// @Failure     404  {object}  handlers.ErrorResponse "Participant not found"
// @Failure     409  {object}  handlers.ErrorResponse "Meeting no longer collecting"
// @Failure     503  {object}  handlers.ErrorResponse "Store unavailable"
// @Router      /participants/{id}/availability [put]
func (h *Handlers) PutAvailability(c *gin.Context) {
	id, valid := pathID(c, "participant")
	if !valid {
		return
	}
	var req PutAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body must be {\"slots\": [...]}")
		return
	}
	a, err := h.availability.Upsert(c.Request.Context(), middleware.UserID(c), id, req.Slots, req.Constraints)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, a)
}

// GetAvailability godoc
// @ID          getAvailability
// @Summary     Get a participant's availability
// @Tags        Availability
// @Produce     json
//
// @Param       id  path  string  true  "Participant ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Availability
// @Failure     404  {object}  handlers.ErrorResponse "Participant or availability not found"
// @Router      /participants/{id}/availability [get]
func (h *Handlers) GetAvailability(c *gin.Context) {
	id, valid := pathID(c, "participant")
	if !valid {
		return
	}
	a, err := h.availability.Get(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, a)
}

// DeleteAvailability godoc
// @ID          deleteAvailability
// @Summary     Withdraw availability
// @Description Removes the participant's slots from the tally. Submitting again later restores them.
// @Tags        Availability
//
// @Param       id  path  string  true  "Participant ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string "No Content"
// @Failure     403  {object}  handlers.ErrorResponse "Participant belongs to another user"
// @Failure     404  {object}  handlers.ErrorResponse "Nothing to withdraw"
// @Failure     409  {object}  handlers.ErrorResponse "Meeting no longer collecting"
// @Router      /participants/{id}/availability [delete]
func (h *Handlers) DeleteAvailability(c *gin.Context) {
	id, valid := pathID(c, "participant")
	if !valid {
		return
	}
	if err := h.availability.Withdraw(c.Request.Context(), middleware.UserID(c), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// ListMeetingAvailability godoc
// @ID          listMeetingAvailability
// @Summary     List a meeting's availability
// @Description Returns every live availability record of the meeting. Supports weak ETag via If-None-Match.
// @Tags        Availability
// @Produce     json
//
// @Param       id             path    string  true   "Meeting ID (UUID)"  format(uuid)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
//
// @Success     200  {object}  handlers.ListAvailabilityResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string "Not Modified"
// @Failure     404  {object}  handlers.ErrorResponse "Meeting not found"
// @Router      /meetings/{id}/availability [get]
func (h *Handlers) ListMeetingAvailability(c *gin.Context) {
	id, valid := pathID(c, "meeting")
	if !valid {
		return
	}
	ctx := c.Request.Context()

	if count, latest, err := h.availability.Stats(ctx, id); err == nil && count > 0 {
		if weakETag(c, "availability", id, count, latest) {
			return
		}
	}

	items, err := h.availability.ListForMeeting(ctx, id)
	if err != nil {
		failErr(c, err)
		return
	}
	if items == nil {
		items = []domain.Availability{}
	}
	ok(c, http.StatusOK, ListAvailabilityResponse{MeetingID: id, Availability: items})
}
