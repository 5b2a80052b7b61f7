package feed

import "github.com/prometheus/client_golang/prometheus"

var (
	hubPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_changes_published_total",
			Help: "Row changes published on the change feed.",
		},
		[]string{"table"},
	)

	// hubDropped counts changes lost to full subscriber buffers.
	hubDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_changes_dropped_total",
			Help: "Row changes dropped because a subscriber buffer was full.",
		},
	)

	watchersActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_watchers_active",
			Help: "Meetings currently followed by the change feed adapter.",
		},
	)

	viewersActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_viewers_active",
			Help: "Connected live viewers.",
		},
	)
)

func init() {
	prometheus.MustRegister(hubPublished, hubDropped, watchersActive, viewersActive)
}
