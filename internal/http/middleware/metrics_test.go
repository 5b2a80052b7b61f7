package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RouteLabelsAndStreams(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/meetings/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/meetings/:id/stream", func(c *gin.Context) {
		StreamOpened()
		defer StreamClosed()
		if got := testutil.ToFloat64(httpStreams); got < 1 {
			t.Errorf("open streams = %v", got)
		}
		c.Header("Content-Type", "text/event-stream")
		c.Status(http.StatusOK)
	})

	okBefore := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/meetings/:id", "200"))
	missBefore := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedPath, "404"))
	streamBefore := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/meetings/:id/stream", "200"))

	do(r, http.MethodGet, "/meetings/a", nil)
	do(r, http.MethodGet, "/meetings/b", nil)
	do(r, http.MethodGet, "/nope/random-123", nil)
	do(r, http.MethodGet, "/meetings/a/stream", nil)

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/meetings/:id", "200")) - okBefore; got != 2 {
		t.Fatalf("route counter delta = %v", got)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedPath, "404")) - missBefore; got != 1 {
		t.Fatalf("unmatched counter delta = %v", got)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/meetings/:id/stream", "200")) - streamBefore; got != 1 {
		t.Fatalf("stream counter delta = %v", got)
	}
	if got := testutil.ToFloat64(httpStreams); got != 0 {
		t.Fatalf("streams gauge after close = %v", got)
	}
	if got := testutil.ToFloat64(httpInflight); got != 0 {
		t.Fatalf("inflight after requests = %v", got)
	}
	if n := testutil.CollectAndCount(httpLat, "http_request_duration_seconds"); n < 1 {
		t.Fatalf("latency series = %d", n)
	}
}
