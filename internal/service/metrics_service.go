package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation. A nil receiver is
// a valid no-op.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	txDuration      *prometheus.HistogramVec
	cacheHitRatio   prometheus.Gauge
	cacheLookups    *prometheus.CounterVec
	doses           *prometheus.CounterVec
	lotFailures     *prometheus.CounterVec
	linkTransitions *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	txDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_transaction_duration_seconds",
		Help:    "Duration of database transactions",
		Buckets: prometheus.DefBuckets,
	}, []string{"label", "outcome"})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	doses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "doses_administered_total",
		Help: "Vaccine doses recorded against appointments",
	}, []string{"center"})

	lotFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lot_consumption_failures_total",
		Help: "Rejected lot consumptions by reason",
	}, []string{"reason"})

	linkTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "link_transitions_total",
		Help: "Link request state transitions",
	}, []string{"status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, txDuration, cacheHitRatio, cacheLookups, doses, lotFailures, linkTransitions, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		txDuration:      txDuration,
		cacheHitRatio:   cacheHitRatio,
		cacheLookups:    cacheLookups,
		doses:           doses,
		lotFailures:     lotFailures,
		linkTransitions: linkTransitions,
	}
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveTransaction implements database.TxObserver.
func (m *MetricsService) ObserveTransaction(label string, duration time.Duration, committed bool) {
	if m == nil {
		return
	}
	outcome := "rollback"
	if committed {
		outcome = "commit"
	}
	m.txDuration.WithLabelValues(label, outcome).Observe(duration.Seconds())
}

// RecordCacheOperation records a cache lookup and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// RecordDoseAdministered counts a committed attendance.
func (m *MetricsService) RecordDoseAdministered(centerID string) {
	if m == nil {
		return
	}
	m.doses.WithLabelValues(centerID).Inc()
}

// RecordLotFailure counts a rejected consumption by error code.
func (m *MetricsService) RecordLotFailure(reason string) {
	if m == nil {
		return
	}
	m.lotFailures.WithLabelValues(reason).Inc()
}

// RecordLinkTransition counts link requests entering status.
func (m *MetricsService) RecordLinkTransition(status string) {
	if m == nil {
		return
	}
	m.linkTransitions.WithLabelValues(status).Inc()
}
