// Tally HTTP handlers.
//
// This file exposes the live aggregation of a meeting:
//   - GET /meetings/{id}/tally   (counts, best slot, ranking)
//   - GET /meetings/{id}/stream  (server-sent events)
//
// Both read the in-memory tally kept current by the change feed, so they
// never scan availability records on the request path.
package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-meeting-backend/internal/aggregate"
	"github.com/tbourn/go-meeting-backend/internal/domain"
	"github.com/tbourn/go-meeting-backend/internal/feed"
	"github.com/tbourn/go-meeting-backend/internal/http/middleware"
	"github.com/tbourn/go-meeting-backend/internal/services"
	"github.com/tbourn/go-meeting-backend/internal/utils"
)

// TallyResponse is the current aggregation of a meeting.
type TallyResponse struct {
	feed.View
	// Ranking lists eligible slots by count, then time.
	Ranking []aggregate.SlotCount `json:"ranking"`
}

// GetTally godoc
// @ID          getTally
// @Summary     Get a meeting's tally
// @Description Returns per-slot counts, the number of respondents, the best eligible slot (earliest on ties), and the top eligible slots.
// @Tags        Tally
// @Produce     json
//
// @Param       id   path   string  true   "Meeting ID (UUID)"  format(uuid)
// @Param       top  query  int     false  "Ranking length"     minimum(1) maximum(100) default(10)
//
// @Success     200  {object}  handlers.TallyResponse
// @Failure     404  {object}  handlers.ErrorResponse "Meeting not found"
// @Failure     503  {object}  handlers.ErrorResponse "Store unavailable"
// @Router      /meetings/{id}/tally [get]
func (h *Handlers) GetTally(c *gin.Context) {
	id, valid := pathID(c, "meeting")
	if !valid {
		return
	}
	ctx := c.Request.Context()
	m, err := h.meetings.Get(ctx, id)
	if err != nil {
		failErr(c, err)
		return
	}
	t, err := h.live.Tally(ctx, id)
	if err != nil {
		failErr(c, storeFailure(err))
		return
	}
	snap := t.Snapshot()
	top := utils.Clamp(utils.AtoiDefault(c.Query("top"), 10), 1, 100)

	c.Header("Cache-Control", "no-cache")
	ok(c, http.StatusOK, TallyResponse{
		View:    feed.BuildView(snap, m),
		Ranking: aggregate.Ranked(snap.Counts, m.SlotFilter(), top),
	})
}

// StreamMeeting godoc
// @ID          streamMeeting
// @Summary     Stream live tally updates
// @Description Server-sent events. Each event carries the full view; its name is the update kind (tally, meeting, resync). The first event is the current state. The stream ends after the meeting is scheduled or cancelled. Browsers may pass a bearer token as access_token.
// @Tags        Tally
// @Produce     text/event-stream
//
// @Param       id  path  string  true  "Meeting ID (UUID)"  format(uuid)
//
// @Success     200  {object}  feed.Update
// @Failure     404  {object}  handlers.ErrorResponse "Meeting not found"
// @Failure     503  {object}  handlers.ErrorResponse "Store unavailable"
// @Router      /meetings/{id}/stream [get]
func (h *Handlers) StreamMeeting(c *gin.Context) {
	id, valid := pathID(c, "meeting")
	if !valid {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.meetings.Get(ctx, id); err != nil {
		failErr(c, err)
		return
	}
	v, err := h.live.Subscribe(ctx, id)
	if err != nil {
		failErr(c, storeFailure(err))
		return
	}
	defer v.Close()

	middleware.StreamOpened()
	defer middleware.StreamClosed()

	hdr := c.Writer.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	// Streams outlive the server's write timeout.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})
	c.Writer.Flush()

	lg := middleware.LoggerFrom(c)
	lg.Debug().Msg("stream opened")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case u, open := <-v.C():
			if !open {
				return
			}
			c.SSEvent(string(u.Kind), u)
			c.Writer.Flush()
			if terminal(u.Status) {
				lg.Debug().Str("status", string(u.Status)).Msg("stream closed on terminal status")
				return
			}
		case <-ticker.C:
			if _, err := io.WriteString(c.Writer, ": keep-alive\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

func terminal(s domain.MeetingStatus) bool {
	return s == domain.StatusScheduled || s == domain.StatusCancelled
}

// storeFailure reports a live-tally load failure as a storage failure.
func storeFailure(err error) error {
	return fmt.Errorf("%w: live tally: %w", services.ErrStoreUnavailable, err)
}
