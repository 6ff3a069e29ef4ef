package quadtree

import "github.com/prometheus/client_golang/prometheus"

var (
	casRetryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quadtree",
			Subsystem: "lockfree",
			Name:      "cas_retries_total",
			Help:      "Counter of bucket compare and swap attempts lost to a concurrent writer.",
		}, []string{"op"})

	subdivisionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quadtree",
			Subsystem: "tree",
			Name:      "subdivisions_total",
			Help:      "Counter of leaves that became internal nodes.",
		}, []string{"kind"})

	reclaimCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quadtree",
			Subsystem: "lockfree",
			Name:      "reclaimed_total",
			Help:      "Counter of retired objects reclaimed after a hazard scan.",
		}, []string{"type"})

	hazardSlotCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "quadtree",
			Subsystem: "lockfree",
			Name:      "hazard_slots_total",
			Help:      "Counter of hazard slots allocated.",
		})
)

var (
	insertRetries      = casRetryCounter.WithLabelValues("insert")
	disperseRetries    = casRetryCounter.WithLabelValues("disperse")
	lockfreeSubdivides = subdivisionCounter.WithLabelValues("lockfree")
	lockSubdivides     = subdivisionCounter.WithLabelValues("lockbased")
	reclaimedHeaders   = reclaimCounter.WithLabelValues("header")
	reclaimedNodes     = reclaimCounter.WithLabelValues("node")
)

func init() {
	prometheus.MustRegister(casRetryCounter)
	prometheus.MustRegister(subdivisionCounter)
	prometheus.MustRegister(reclaimCounter)
	prometheus.MustRegister(hazardSlotCounter)
}
