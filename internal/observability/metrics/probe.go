package metrics

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/upload-probe/internal/core/domain"
)

// ProbeMetrics collects run-level counters: oracle traffic, interpreter
// tier usage and attempt outcomes. Exposed over /metrics when the
// metrics listener is enabled.
type ProbeMetrics struct {
	registry *prometheus.Registry
	service  string

	oracleCallsTotal   *prometheus.CounterVec
	oracleCallDuration *prometheus.HistogramVec

	interpretationsTotal *prometheus.CounterVec
	attemptsTotal        *prometheus.CounterVec
	cacheHitsTotal       prometheus.Counter
	cacheMissesTotal     prometheus.Counter
}

func NewProbeMetrics(service string) *ProbeMetrics {
	registry := prometheus.NewRegistry()

	oracleCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "uprobe",
			Subsystem: "oracle",
			Name:      "calls_total",
			Help:      "Total oracle calls by operation and result.",
		},
		[]string{"service", "operation", "result"},
	)
	oracleCallDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "uprobe",
			Subsystem: "oracle",
			Name:      "call_duration_seconds",
			Help:      "Oracle call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)
	interpretationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "uprobe",
			Subsystem: "interpreter",
			Name:      "interpretations_total",
			Help:      "Failure interpretations by tier; tier 0 is a miss.",
		},
		[]string{"service", "tier"},
	)
	attemptsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "uprobe",
			Subsystem: "probe",
			Name:      "attempts_total",
			Help:      "Recorded attempts by outcome.",
		},
		[]string{"service", "outcome"},
	)
	cacheHitsTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "uprobe",
			Subsystem:   "cache",
			Name:        "hits_total",
			Help:        "Classification cache hits.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	cacheMissesTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "uprobe",
			Subsystem:   "cache",
			Name:        "misses_total",
			Help:        "Classification cache misses.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)

	registry.MustRegister(
		oracleCallsTotal,
		oracleCallDuration,
		interpretationsTotal,
		attemptsTotal,
		cacheHitsTotal,
		cacheMissesTotal,
	)

	return &ProbeMetrics{
		registry:             registry,
		service:              service,
		oracleCallsTotal:     oracleCallsTotal,
		oracleCallDuration:   oracleCallDuration,
		interpretationsTotal: interpretationsTotal,
		attemptsTotal:        attemptsTotal,
		cacheHitsTotal:       cacheHitsTotal,
		cacheMissesTotal:     cacheMissesTotal,
	}
}

func (m *ProbeMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveOracleCall satisfies the oracle client's recorder hook.
func (m *ProbeMetrics) ObserveOracleCall(operation string, duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.oracleCallsTotal.WithLabelValues(m.service, operation, result).Inc()
	m.oracleCallDuration.WithLabelValues(m.service, operation).Observe(duration.Seconds())
}

// RecordInterpretation counts one interpreter verdict. tier 0 means no
// tier produced a usable requirement.
func (m *ProbeMetrics) RecordInterpretation(tier int) {
	m.interpretationsTotal.WithLabelValues(m.service, strconv.Itoa(tier)).Inc()
}

func (m *ProbeMetrics) RecordAttempt(outcome domain.Outcome) {
	m.attemptsTotal.WithLabelValues(m.service, string(outcome)).Inc()
}

func (m *ProbeMetrics) RecordCacheHit()  { m.cacheHitsTotal.Inc() }
func (m *ProbeMetrics) RecordCacheMiss() { m.cacheMissesTotal.Inc() }

// Serve runs the metrics listener until the server is shut down by the
// caller closing the returned server.
func Serve(addr string, m *ProbeMetrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics listener: %v", err)
		}
	}()
	return server
}
