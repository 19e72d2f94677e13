// Package metrics defines and registers all custom Prometheus metrics for the
// portal API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry at package
// init via promauto and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// ── Bundle metrics ────────────────────────────────────────────────────────────

// BundleLoadsTotal counts reads of a role's bundle from the backing store.
// Labels:
//   - role: student, tutor or staff
//   - result: "ok", "not_found" or "error"
var BundleLoadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bundle_loads_total",
		Help:      "Total number of bundle loads from the backing store.",
	},
	[]string{"role", "result"},
)

// BundleCacheFallbacksTotal counts reads served from the in-memory copy
// because the backing store could not be read.
var BundleCacheFallbacksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bundle_cache_fallbacks_total",
		Help:      "Total number of bundle reads served from cache after a backend failure.",
	},
	[]string{"role"},
)

// BundleUpdatesTotal counts full-document bundle writes.
// Label:
//   - result: "ok" or "error"
var BundleUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bundle_updates_total",
		Help:      "Total number of bundle updates written through to the backing store.",
	},
	[]string{"role", "result"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: resolved role on success, "invalid_domain" or "error" otherwise
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of demo logins, by outcome.",
	},
	[]string{"result"},
)

// ── Material and report metrics ───────────────────────────────────────────────

// MaterialsUploadedTotal counts stored uploads.
var MaterialsUploadedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "materials_uploaded_total",
		Help:      "Total number of uploaded material files stored.",
	},
)

// MaterialUploadBytes observes the size of stored uploads.
var MaterialUploadBytes = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "material_upload_bytes",
		Help:      "Size of stored material uploads in bytes.",
		Buckets:   prometheus.ExponentialBuckets(1024, 4, 8), // 1KiB … 16MiB
	},
)

// ReportsGeneratedTotal counts PDF renders.
// Labels:
//   - report_type: scholarship, academic, feedback or other
//   - result: "ok", "unavailable" or "error"
var ReportsGeneratedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reports_generated_total",
		Help:      "Total number of PDF reports rendered.",
	},
	[]string{"report_type", "result"},
)

// ReportRenderDuration measures PDF rendering time.
var ReportRenderDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "report_render_duration_seconds",
		Help:      "Duration of PDF report rendering.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"report_type"},
)
