package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	charts       *prometheus.CounterVec
	messagesSent *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	cache        *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New registers the chart metrics on reg, or on the default registry when reg is nil.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		charts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "natal_charts_computed_total",
				Help: "Charts computed, by house system actually used",
			},
			[]string{"house_system"},
		),
		messagesSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "natal_messages_sent_total",
				Help: "Charts delivered to a backend (archive, events)",
			},
			[]string{"backend"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "natal_errors_total",
				Help: "Errors by kind",
			},
			[]string{"kind"},
		),
		cache: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "natal_cache_requests_total",
				Help: "Chart cache lookups",
			},
			[]string{"hit"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "natal_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordChart(houseSystem string) {
	r.charts.WithLabelValues(houseSystem).Inc()
}

// RecordMessageSent records a chart delivered to a backend.
func (r *Recorder) RecordMessageSent(backend string) {
	r.messagesSent.WithLabelValues(backend).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordCache(hit bool) {
	r.cache.WithLabelValues(strconv.FormatBool(hit)).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
