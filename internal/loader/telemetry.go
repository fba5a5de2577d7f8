package loader

import (
	"context"

	"github.com/danmuck/nativeload/internal/observability"
)

// OnNativeInitializationComplete records the load telemetry of the main
// process. The switches are read under the lock and recorded outside it.
func (c *Coordinator) OnNativeInitializationComplete(ctx context.Context) {
	_, release := c.acquire(ctx)
	state := c.state
	t := c.telemetry
	release()

	if !state.Initialized() {
		panic("loader: telemetry recorded before initialization")
	}
	if c.opts.Role != RoleMain {
		panic("loader: immediate telemetry is only recorded by the main process")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c.deps.Bridge.RecordMainProcessTelemetry(ctx, t)
	observability.RecordTelemetry(observability.TelemetryFlags{
		UsedSharedRelocationSharing: t.UsedSharedRelocationSharing,
		FixedAddressLoadFailed:      t.FixedAddressLoadFailed,
		ArchiveDirectLoadSupported:  t.ArchiveDirectLoadSupported,
		UsedWorkaroundLoader:        t.UsedWorkaroundLoader,
	})
	c.log.Info().
		Bool("used_shared_relocation_sharing", t.UsedSharedRelocationSharing).
		Bool("fixed_address_load_failed", t.FixedAddressLoadFailed).
		Bool("archive_direct_load_supported", t.ArchiveDirectLoadSupported).
		Bool("used_workaround_loader", t.UsedWorkaroundLoader).
		Msg("main process load telemetry recorded")
}

// RegisterWorkerProcessTelemetry stores worker telemetry on the native side
// for a later recorder. It does not take the lock and does not depend on load
// state. Only the custom loader produces these values.
func (c *Coordinator) RegisterWorkerProcessTelemetry(ctx context.Context, requestedSharing, fixedAddressFailed bool) {
	if c.path != PathCustom {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	c.deps.Bridge.RegisterWorkerProcessTelemetry(ctx, requestedSharing, fixedAddressFailed)
	observability.RecordWorkerTelemetry(requestedSharing, fixedAddressFailed)
}
