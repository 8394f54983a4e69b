package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "linkctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "linkctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	graphEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "linkctl",
			Subsystem: "graph",
			Name:      "events_total",
			Help:      "Registry events applied to the graph model.",
		},
		[]string{"kind"},
	)
	graphObjects = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "linkctl",
			Subsystem: "graph",
			Name:      "objects",
			Help:      "Ports and link buckets currently in the graph model.",
		},
		[]string{"kind"},
	)
	reconcileTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "linkctl",
			Subsystem: "reconcile",
			Name:      "ticks_total",
			Help:      "Control loop ticks by stability.",
		},
		[]string{"stable"},
	)
	connectRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "linkctl",
			Subsystem: "reconcile",
			Name:      "connect_requests_total",
			Help:      "Connect requests sent to the media server.",
		},
	)
	unresolvedLinks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "linkctl",
			Subsystem: "reconcile",
			Name:      "unresolved_links",
			Help:      "Desired links whose ports are currently not resolvable by name.",
		},
	)
	sessionsEnded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "linkctl",
			Subsystem: "session",
			Name:      "ended_total",
			Help:      "Media server sessions ended, by quit kind.",
		},
		[]string{"kind"},
	)
	sessionConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "linkctl",
			Subsystem: "session",
			Name:      "connected",
			Help:      "1 while a media server session is running.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			graphEvents,
			graphObjects,
			reconcileTicks,
			connectRequests,
			unresolvedLinks,
			sessionsEnded,
			sessionConnected,
		)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func RecordGraphEvent(kind string) {
	RegisterMetrics()
	graphEvents.WithLabelValues(kind).Inc()
}

func SetGraphSize(ports, links int) {
	RegisterMetrics()
	graphObjects.WithLabelValues("port").Set(float64(ports))
	graphObjects.WithLabelValues("link").Set(float64(links))
}

func RecordTick(stable bool) {
	RegisterMetrics()
	reconcileTicks.WithLabelValues(strconv.FormatBool(stable)).Inc()
}

func RecordConnectRequest() {
	RegisterMetrics()
	connectRequests.Inc()
}

func SetUnresolvedLinks(n int) {
	RegisterMetrics()
	unresolvedLinks.Set(float64(n))
}

func RecordSessionEnd(kind string) {
	RegisterMetrics()
	sessionsEnded.WithLabelValues(kind).Inc()
}

func SetSessionConnected(connected bool) {
	RegisterMetrics()
	v := 0.0
	if connected {
		v = 1
	}
	sessionConnected.Set(v)
}
