// Package observability provides structured JSON logging and Prometheus
// metrics for the framework packages.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, nil)
//	logger.WithField("entity", "user").Info("cache invalidated")
//
// Attribution from the ambient request context:
//
//	logger.WithRequestContext(ctx).Info("entity restored")
//
// # Prometheus Metrics
//
//	metrics := observability.NewMetrics(prometheus.NewRegistry())
//	metrics.CacheHitsTotal.WithLabelValues("user").Inc()
package observability
