// Package metrics exposes Prometheus instrumentation for the core
// workers: the scanner, hasher, matcher, and operations queue.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "milestone_scan_duration_seconds",
			Help:    "Duration of a completed scan, per drive.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"drive"},
	)

	ScanFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "milestone_scan_files_total",
			Help: "Files reconciled by the scanner, partitioned by outcome.",
		},
		[]string{"outcome"}, // new, updated, unchanged (missing and errored files are counted only in the scanner's Status)
	)

	ScanInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "milestone_scan_in_progress",
			Help: "1 while a scan is running or paused, 0 otherwise.",
		},
	)

	HashQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "milestone_hash_queue_size",
			Help: "Files currently waiting to be fingerprinted.",
		},
	)

	HashDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "milestone_hash_duration_seconds",
			Help:    "Duration of computing a file's fingerprint.",
			Buckets: prometheus.DefBuckets,
		},
	)

	HashErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "milestone_hash_errors_total",
			Help: "Files that failed fingerprinting.",
		},
	)

	MatcherItemsLinked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "milestone_matcher_items_linked_total",
			Help: "Files linked to a media item, by match kind.",
		},
		[]string{"match_kind"}, // full_hash, quick_sig, new_item
	)

	OpsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "milestone_ops_active",
			Help: "Copy operations currently running.",
		},
	)

	OpsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "milestone_ops_completed_total",
			Help: "Copy operations that reached a terminal state, by outcome.",
		},
		[]string{"outcome"}, // completed, failed, cancelled
	)

	OpsBytesCopiedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "milestone_ops_bytes_copied_total",
			Help: "Total bytes copied across all completed operations.",
		},
	)
)
