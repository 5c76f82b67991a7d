package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the database bootstrap

var (
	// Migration metrics
	MigrationsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ormtestkit_migrations_applied_total",
		Help: "Schema migrations applied by database",
	}, []string{"database"})

	MigrationRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ormtestkit_migration_run_duration_seconds",
		Help:    "Time taken to bring a data source up to the latest schema version",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"database", "result"}) // result: success|error

	// Session factory metrics
	SessionFactoriesBuilt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ormtestkit_session_factories_built_total",
		Help: "Session factory builds by database and result",
	}, []string{"database", "result"})

	SchemaValidationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ormtestkit_schema_validation_failures_total",
		Help: "Session factory builds rejected because the schema did not match the mapped models",
	})

	// Cache metrics
	CacheOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ormtestkit_cache_operations_total",
		Help: "Second-level cache operations by region, operation type and result",
	}, []string{"region", "operation", "result"}) // operation: get|put|evict, result: hit|miss|ok|error
)
