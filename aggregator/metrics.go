package aggregator

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds the Prometheus counters for both binaries. Each Metrics
// value carries its own registry so tests can construct them freely.
type Metrics struct {
	MessagesReceived   prometheus.Counter
	DecodeFailures     prometheus.Counter
	MessagesPublished  prometheus.Counter
	SourceFilesSkipped prometheus.Counter
	ReportsWritten     prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates and registers the counters
func NewMetrics() *Metrics {
	m := &Metrics{
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wml",
			Name:      "messages_received_total",
			Help:      "Total messages decoded and handed to the aggregator.",
		}),
		DecodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wml",
			Name:      "decode_failures_total",
			Help:      "Total inbound payloads discarded as undecodable.",
		}),
		MessagesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wml",
			Name:      "messages_published_total",
			Help:      "Total readings published onto the WML topics.",
		}),
		SourceFilesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wml",
			Name:      "source_files_skipped_total",
			Help:      "Total source CSV files skipped as missing or malformed.",
		}),
		ReportsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wml",
			Name:      "reports_written_total",
			Help:      "Total daily reports persisted.",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.MessagesReceived,
		m.DecodeFailures,
		m.MessagesPublished,
		m.SourceFilesSkipped,
		m.ReportsWritten,
	)

	return m
}

// Serve exposes the metrics on /metrics at the given address. Blocks; run
// in a goroutine.
func (m *Metrics) Serve(addr string, logger *zap.SugaredLogger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Errorf("Metrics: %s", err)
	}
}
