package aggregate

import "github.com/prometheus/client_golang/prometheus"

var (
	// eventsTotal counts events handed to a tally by outcome
	// (applied, duplicate, rejected, out_of_order).
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregate_events_total",
			Help: "Availability events processed by the aggregator.",
		},
		[]string{"outcome"},
	)

	// rederiveTotal counts re-derivations by trigger and result.
	rederiveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregate_rederivations_total",
			Help: "Tally re-derivations from persisted records.",
		},
		[]string{"reason", "outcome"},
	)

	// talliesActive gauges the number of tallies held in memory.
	talliesActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aggregate_tallies_active",
			Help: "Meetings with an in-memory tally.",
		},
	)
)

func init() {
	prometheus.MustRegister(eventsTotal, rederiveTotal, talliesActive)
}
