package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "creditmeter"

//nolint:gochecknoglobals // promauto registers collectors once per process
var (
	// LedgerEntriesTotal counts committed ledger entries by kind.
	LedgerEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ledger",
			Name:      "entries_total",
			Help:      "Committed ledger entries",
		},
		[]string{"kind"},
	)

	// LedgerWriteConflictsTotal counts storage conflicts seen by the ledger writer.
	LedgerWriteConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ledger",
			Name:      "write_conflicts_total",
			Help:      "Transient ledger write conflicts, including retried ones",
		},
	)

	// LedgerWriteDuration observes ledger append latency including retries.
	LedgerWriteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "ledger",
			Name:      "write_duration_seconds",
			Help:      "Ledger append duration in seconds",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// UsageRejectedTotal counts usage events rejected before reaching the ledger.
	UsageRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "usage",
			Name:      "rejected_total",
			Help:      "Usage events rejected by reason",
		},
		[]string{"reason"},
	)

	// MarginFallbacksTotal counts dynamic margin resolutions that fell back to a fixed rate.
	MarginFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "margin",
			Name:      "fallbacks_total",
			Help:      "Dynamic margin resolutions that degraded to a fixed rate",
		},
		[]string{"vendor"},
	)

	// SuspiciousMarginsTotal counts billed costs below base cost.
	SuspiciousMarginsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "margin",
			Name:      "below_cost_total",
			Help:      "Usage events billed below vendor cost",
		},
	)

	// RoundingIncrement exposes the active rounding increment in credits.
	RoundingIncrement = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "rounding",
			Name:      "increment_credits",
			Help:      "Active credit rounding increment",
		},
	)
)
