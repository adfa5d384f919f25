package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Client metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lstar",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total number of media service requests",
		},
		[]string{"op", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lstar",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Media service request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"op"},
	)

	// Download outcomes: finished, cancelled, failed
	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lstar",
			Subsystem: "downloads",
			Name:      "total",
			Help:      "Total downloads by outcome",
		},
		[]string{"outcome"},
	)

	DownloadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lstar",
			Subsystem: "downloads",
			Name:      "bytes_total",
			Help:      "Total bytes written by downloads",
		},
	)

	ActiveDownloads = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lstar",
			Subsystem: "downloads",
			Name:      "active",
			Help:      "Downloads currently transferring",
		},
	)
)

// StatusLabel turns an HTTP status into a label value; 0 means the request never got a response
func StatusLabel(code int) string {
	if code == 0 {
		return "error"
	}
	return strconv.Itoa(code)
}
