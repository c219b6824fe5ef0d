package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	GenerationRequests *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	Ingests            *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		GenerationRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qg_generation_requests_total",
				Help: "Generation requests by content type and outcome",
			},
			[]string{"content_type", "status"},
		),
		GenerationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qg_generation_duration_seconds",
				Help:    "Duration of generation runs in seconds",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
			},
			[]string{"content_type"},
		),
		Ingests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qg_ingests_total",
				Help: "Document ingestions by outcome",
			},
			[]string{"status"},
		),
	}
}

func (m *Metrics) ObserveGeneration(contentType, status string, elapsed time.Duration) {
	m.GenerationRequests.WithLabelValues(contentType, status).Inc()
	m.GenerationDuration.WithLabelValues(contentType).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveIngest(status string) {
	m.Ingests.WithLabelValues(status).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
