package sharepoint

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts gateway traffic for the /metrics endpoint.
type Metrics struct {
	ReadRetries        prometheus.Counter
	BatchWrites        prometheus.Counter
	BatchWriteFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ReadRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "sentinela_store_read_retries_total",
			Help: "List store read attempts that failed and were retried.",
		}),
		BatchWrites: factory.NewCounter(prometheus.CounterOpts{
			Name: "sentinela_store_batch_writes_total",
			Help: "Item writes attempted in batch updates.",
		}),
		BatchWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "sentinela_store_batch_write_failures_total",
			Help: "Item writes that failed inside batch updates.",
		}),
	}
}
