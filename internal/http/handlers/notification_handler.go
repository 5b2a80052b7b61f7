// Notification HTTP handlers.
//
// This file exposes the caller's inbox:
//   - GET  /notifications            (list, newest first)
//   - POST /notifications/{id}/read  (mark one read)
//   - POST /notifications/read-all   (mark all read)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-meeting-backend/internal/domain"
	"github.com/tbourn/go-meeting-backend/internal/http/middleware"
	"github.com/tbourn/go-meeting-backend/internal/utils"
)

// ListNotificationsResponse wraps the caller's notifications.
type ListNotificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
}

// MarkAllReadResponse reports how many notifications changed.
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// ListNotifications godoc
// @ID          listNotifications
// @Summary     List notifications
// @Tags        Notifications
// @Produce     json
// @Security    BearerAuth
//
// @Param       unread  query  bool  false  "Only unread"  default(false)
// @Param       limit   query  int   false  "Max items"    minimum(1) maximum(100) default(50)
//
// @Success     200  {object}  handlers.ListNotificationsResponse
// @Failure     401  {object}  handlers.ErrorResponse "Authentication required"
// @Router      /notifications [get]
func (h *Handlers) ListNotifications(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 50)
	unread := utils.BoolDefault(c.Query("unread"), false)

	items, err := h.notifications.List(c.Request.Context(), middleware.UserID(c), unread, limit)
	if err != nil {
		failErr(c, err)
		return
	}
	if items == nil {
		items = []domain.Notification{}
	}
	ok(c, http.StatusOK, ListNotificationsResponse{Notifications: items})
}

// MarkNotificationRead godoc
// @ID          markNotificationRead
// @Summary     Mark a notification read
// @Tags        Notifications
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Notification ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string "No Content"
// @Failure     404  {object}  handlers.ErrorResponse "Notification not found"
// @Router      /notifications/{id}/read [post]
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	id, valid := pathID(c, "notification")
	if !valid {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), middleware.UserID(c), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// MarkAllNotificationsRead godoc
// @ID          markAllNotificationsRead
// @Summary     Mark all notifications read
// @Tags        Notifications
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  handlers.MarkAllReadResponse
// @Router      /notifications/read-all [post]
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	n, err := h.notifications.MarkAllRead(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, MarkAllReadResponse{Updated: n})
}
