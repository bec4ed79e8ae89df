package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "codelens_parse_seconds",
		Help:    "Time spent parsing a source buffer with tree-sitter.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "codelens_operation_seconds",
		Help:    "End-to-end latency of an analysis operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codelens_operations_total",
		Help: "Total analysis operations by outcome.",
	}, []string{"operation", "status"})

	FallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codelens_fallback_total",
		Help: "Total operations answered by the regex fallback layer.",
	}, []string{"operation", "language"})

	ClassificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codelens_classifications_total",
		Help: "Total search hits classified, by resulting class.",
	}, []string{"classification"})

	HistoryWriteErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codelens_history_write_errors_total",
		Help: "Total invocation-history rows that failed to persist.",
	})
)
