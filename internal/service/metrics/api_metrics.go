package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	APILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "natal",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of chart endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	APIErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "natal",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by chart endpoint and kind",
		},
		[]string{"endpoint", "kind"},
	)

	WSSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "natal",
			Subsystem: "api",
			Name:      "ws_sessions",
			Help:      "Open chart WebSocket sessions",
		},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(APILatency, APIErrors, WSSessions)
	})
}
