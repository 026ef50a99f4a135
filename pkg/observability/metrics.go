package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the framework
type Metrics struct {
	// Cache metrics
	CacheHitsTotal     *prometheus.CounterVec
	CacheMissesTotal   *prometheus.CounterVec
	CacheBypassTotal   *prometheus.CounterVec
	CacheErrorsTotal   *prometheus.CounterVec
	CacheDeletedKeys   *prometheus.CounterVec

	// Event metrics
	EventsPublishedTotal *prometheus.CounterVec

	// Audit metrics
	AuditRecordsTotal        *prometheus.CounterVec
	AuditDispatchErrorsTotal *prometheus.CounterVec

	// Query metrics
	QueryDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chassis_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"entity"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chassis_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"entity"},
		),
		CacheBypassTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chassis_cache_bypass_total",
				Help: "Total number of cache reads bypassed by a zero TTL",
			},
			[]string{"entity"},
		),
		CacheErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chassis_cache_errors_total",
				Help: "Total number of cache store errors degraded to recompute",
			},
			[]string{"operation"},
		),
		CacheDeletedKeys: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chassis_cache_deleted_keys_total",
				Help: "Total number of cache keys removed by pattern invalidation",
			},
			[]string{"entity"},
		),
		EventsPublishedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chassis_events_published_total",
				Help: "Total number of lifecycle events published",
			},
			[]string{"channel", "action"},
		),
		AuditRecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chassis_audit_records_total",
				Help: "Total number of audit records written",
			},
			[]string{"destination"},
		),
		AuditDispatchErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chassis_audit_dispatch_errors_total",
				Help: "Total number of swallowed audit dispatch failures",
			},
			[]string{"destination"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chassis_query_duration_seconds",
				Help:    "Repository query duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"entity", "operation"},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.CacheHitsTotal,
			m.CacheMissesTotal,
			m.CacheBypassTotal,
			m.CacheErrorsTotal,
			m.CacheDeletedKeys,
			m.EventsPublishedTotal,
			m.AuditRecordsTotal,
			m.AuditDispatchErrorsTotal,
			m.QueryDuration,
		)
	}

	return m
}
