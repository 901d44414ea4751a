package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maildue_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "maildue_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "maildue_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	dbConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "maildue_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	dbConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "maildue_db_connections_in_use",
			Help: "Number of database connections currently in use",
		},
	)

	instancesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maildue_instances_generated_total",
			Help: "Total number of email instances generated",
		},
		[]string{"mode"},
	)

	instanceTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maildue_instance_transitions_total",
			Help: "Total number of instance lifecycle transitions",
		},
		[]string{"to"},
	)

	pendingInstances = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "maildue_pending_instances",
			Help: "Number of pending instances for the current day",
		},
	)

	overdueInstances = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "maildue_overdue_instances",
			Help: "Number of overdue instances for the current day",
		},
	)

	notifyConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "maildue_notify_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "maildue_sweep_duration_seconds",
			Help:    "Background sweep execution time in seconds",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	statusStr := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func IncrementInFlight() {
	httpRequestsInFlight.Inc()
}

func DecrementInFlight() {
	httpRequestsInFlight.Dec()
}

func UpdateDBStats(open, inUse int) {
	dbConnectionsOpen.Set(float64(open))
	dbConnectionsInUse.Set(float64(inUse))
}

// RecordGenerated counts created instances; mode is "live" or "backfill".
func RecordGenerated(mode string, count int) {
	instancesGenerated.WithLabelValues(mode).Add(float64(count))
}

func RecordTransition(to string) {
	instanceTransitions.WithLabelValues(to).Inc()
}

func UpdateDayCounts(pending, overdue int) {
	pendingInstances.Set(float64(pending))
	overdueInstances.Set(float64(overdue))
}

func UpdateNotifyConnections(n int) {
	notifyConnections.Set(float64(n))
}

func RecordSweep(duration time.Duration) {
	sweepDuration.Observe(duration.Seconds())
}

func NormalizePath(path string) string {
	if len(path) > 100 {
		path = path[:100]
	}

	normalized := ""
	inParam := false
	for i := 0; i < len(path); i++ {
		if path[i] == '{' {
			inParam = true
			normalized += ":"
			continue
		}
		if path[i] == '}' {
			inParam = false
			continue
		}
		if !inParam {
			normalized += string(path[i])
		}
	}
	return normalized
}
