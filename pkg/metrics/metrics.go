// Package metrics exposes the sync pipeline's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fern",
		Name:      "sync_runs_total",
		Help:      "Sync runs by terminal status.",
	}, []string{"status"})

	PhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fern",
		Name:      "sync_phase_duration_seconds",
		Help:      "Duration of each sync phase.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"phase"})

	RecordsSynced = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fern",
		Name:      "sync_records_total",
		Help:      "Records synced per entity type.",
	}, []string{"entity_type"})

	RecordErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fern",
		Name:      "sync_record_errors_total",
		Help:      "Records that failed to sync per entity type.",
	}, []string{"entity_type"})

	CacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fern",
		Name:      "cache_evictions_total",
		Help:      "Cached journey graphs evicted after syncs.",
	})
)
