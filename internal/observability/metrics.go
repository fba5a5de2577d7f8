package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nativeload",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nativeload",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	loadAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nativeload",
			Subsystem: "loader",
			Name:      "load_attempts_total",
			Help:      "Native module load sequences by path and outcome.",
		},
		[]string{"path", "outcome"},
	)
	loadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nativeload",
			Subsystem: "loader",
			Name:      "load_duration_seconds",
			Help:      "Duration of native module load sequences.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"path"},
	)
	telemetryFlags = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "nativeload",
			Subsystem: "loader",
			Name:      "telemetry_flag",
			Help:      "Main process load telemetry switches (1 = set).",
		},
		[]string{"flag"},
	)
	workerRegistrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nativeload",
			Subsystem: "loader",
			Name:      "worker_telemetry_registrations_total",
			Help:      "Worker process telemetry registrations forwarded to native code.",
		},
		[]string{"requested_sharing", "fixed_address_failed"},
	)
	nativeTracing = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "nativeload",
			Subsystem: "trace",
			Name:      "native_enabled",
			Help:      "1 once event tracing follows the native side.",
		},
	)
)

// TelemetryFlags mirrors the loader telemetry switches.
type TelemetryFlags struct {
	UsedSharedRelocationSharing bool
	FixedAddressLoadFailed      bool
	ArchiveDirectLoadSupported  bool
	UsedWorkaroundLoader        bool
}

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			loadAttempts, loadDuration,
			telemetryFlags, workerRegistrations, nativeTracing,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordLoad(path, outcome string, duration time.Duration) {
	RegisterMetrics()
	loadAttempts.WithLabelValues(path, outcome).Inc()
	loadDuration.WithLabelValues(path).Observe(duration.Seconds())
}

func RecordTelemetry(flags TelemetryFlags) {
	RegisterMetrics()
	telemetryFlags.WithLabelValues("used_shared_relocation_sharing").Set(boolGauge(flags.UsedSharedRelocationSharing))
	telemetryFlags.WithLabelValues("fixed_address_load_failed").Set(boolGauge(flags.FixedAddressLoadFailed))
	telemetryFlags.WithLabelValues("archive_direct_load_supported").Set(boolGauge(flags.ArchiveDirectLoadSupported))
	telemetryFlags.WithLabelValues("used_workaround_loader").Set(boolGauge(flags.UsedWorkaroundLoader))
}

func RecordWorkerTelemetry(requestedSharing, fixedAddressFailed bool) {
	RegisterMetrics()
	workerRegistrations.WithLabelValues(
		strconv.FormatBool(requestedSharing),
		strconv.FormatBool(fixedAddressFailed),
	).Inc()
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
