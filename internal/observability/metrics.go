package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scribe_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CascadeRuns counts cascade executions by kind and outcome.
	CascadeRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_cascade_runs_total",
		Help: "Cascade executions by kind and outcome",
	}, []string{"cascade", "outcome"})

	// CascadeStepFailures counts best-effort cascade steps that failed and were skipped.
	CascadeStepFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_cascade_step_failures_total",
		Help: "Cascade steps that failed and were skipped",
	}, []string{"cascade", "step"})

	// CascadeDuration records cascade wall time.
	CascadeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scribe_cascade_duration_seconds",
		Help:    "Cascade duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"cascade"})

	// CounterAdjustments counts derived-counter deltas applied, by counter.
	CounterAdjustments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_counter_adjustments_total",
		Help: "Derived counter adjustments applied",
	}, []string{"counter"})

	// ReconcileCorrections counts rows whose counters the reconciler rewrote.
	ReconcileCorrections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_reconcile_corrections_total",
		Help: "Rows whose derived counters were corrected by reconciliation",
	}, []string{"counter"})

	// ClassifierRequests counts moderation classifier calls by outcome.
	ClassifierRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_classifier_requests_total",
		Help: "Moderation classifier requests by outcome",
	}, []string{"outcome"})

	// ActiveWebSockets tracks open notification streams.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scribe_active_websockets",
		Help: "Open notification websocket connections",
	})

	WebSocketDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_websocket_dropped_messages_total",
		Help: "Messages dropped because a client could not keep up",
	}, []string{"reason"})
)

// ObserveCascade records one cascade run. Call the returned func with the
// cascade's final error.
func ObserveCascade(cascade string) func(err error) {
	start := time.Now()
	return func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		CascadeRuns.WithLabelValues(cascade, outcome).Inc()
		CascadeDuration.WithLabelValues(cascade).Observe(time.Since(start).Seconds())
	}
}

const queryStartKey = "scribe:query_start"

// RegisterDatabaseMetrics installs gorm callbacks that record query latency
// per operation and table.
func RegisterDatabaseMetrics(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			DatabaseQueryLatency.WithLabelValues(operation, tx.Statement.Table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	steps := []struct {
		op  string
		reg func(name string, fn func(*gorm.DB)) error
		aft func(name string, fn func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, s := range steps {
		if err := s.reg("metrics:before_"+s.op, before); err != nil {
			return err
		}
		if err := s.aft("metrics:after_"+s.op, after(s.op)); err != nil {
			return err
		}
	}
	return nil
}
