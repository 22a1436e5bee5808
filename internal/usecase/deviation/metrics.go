package deviation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts service-level activity for the /metrics endpoint.
type Metrics struct {
	RefreshDuration prometheus.Histogram
	RefreshFailures prometheus.Counter
	Submissions     prometheus.Counter
	Approvals       prometheus.Counter
	Rejections      prometheus.Counter
	SweptEvents     prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinela_refresh_duration_seconds",
			Help:    "Time spent loading the deviation snapshot from the store.",
			Buckets: prometheus.DefBuckets,
		}),
		RefreshFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "sentinela_refresh_failures_total",
			Help: "Snapshot refreshes that fell back to the cached copy or failed.",
		}),
		Submissions: factory.NewCounter(prometheus.CounterOpts{
			Name: "sentinela_submissions_total",
			Help: "Event submissions written to the store.",
		}),
		Approvals: factory.NewCounter(prometheus.CounterOpts{
			Name: "sentinela_approvals_total",
			Help: "Events approved.",
		}),
		Rejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "sentinela_rejections_total",
			Help: "Events rejected.",
		}),
		SweptEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "sentinela_swept_events_total",
			Help: "Events auto-marked unattended by the sweep.",
		}),
	}
}
