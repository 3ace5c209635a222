// ABOUTME: Prometheus counters for the import and reporting pipeline
// ABOUTME: Registered on the default registry, served by the web dashboard
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SyncBatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hubrep_sync_batches_total",
		Help: "Completed import batches.",
	})

	RecordsImported = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hubrep_records_imported_total",
		Help: "Deal records imported, by pipeline source.",
	}, []string{"source"})

	SyncErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hubrep_sync_errors_total",
		Help: "Failed import attempts, by pipeline source.",
	}, []string{"source"})

	ReportBuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hubrep_report_builds_total",
		Help: "Report tables built.",
	})

	ReportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hubrep_report_build_seconds",
		Help:    "Time spent building a report table.",
		Buckets: prometheus.DefBuckets,
	})
)
