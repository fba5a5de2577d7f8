package observability

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// TraceObserver follows native tracing state once the native side is up.
type TraceObserver struct {
	logger  zerolog.Logger
	enabled atomic.Bool
}

func NewTraceObserver(logger zerolog.Logger) *TraceObserver {
	return &TraceObserver{logger: logger}
}

// RegisterNativeEnabledObserver switches tracing to follow native code.
// Repeated calls are no-ops.
func (o *TraceObserver) RegisterNativeEnabledObserver() {
	if !o.enabled.CompareAndSwap(false, true) {
		return
	}
	RegisterMetrics()
	nativeTracing.Set(1)
	o.logger.Debug().Msg("event tracing synced with native")
}

func (o *TraceObserver) Enabled() bool {
	return o.enabled.Load()
}
