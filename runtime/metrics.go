package runtime

import "github.com/prometheus/client_golang/prometheus"

var (
	batchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leafledger_batches_total",
		Help: "Batches submitted to the runtime.",
	})
	batchesFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leafledger_batches_failed_total",
		Help: "Batches that failed admission, script, or operator evaluation.",
	})
	batchSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "leafledger_batch_seconds",
		Help:    "Wall time spent processing one batch end to end.",
		Buckets: prometheus.DefBuckets,
	})
)

// MustRegister wires the runtime's collectors into reg, typically a
// process-wide prometheus.Registry exposed by api's /metrics handler.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(batchesTotal, batchesFailedTotal, batchSeconds)
}
