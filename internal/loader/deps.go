package loader

import (
	"context"

	"github.com/danmuck/nativeload/internal/cmdline"
	"github.com/rs/zerolog"
)

// Bridge is the boundary into the loaded native module.
// Calls receive the ctx of the coordinator operation that issued them; a
// bridge may call back into the coordinator with that ctx without deadlocking.
type Bridge interface {
	InitCommandLine(ctx context.Context, args []string)
	RegisterEverythingElse(ctx context.Context) bool
	Version(ctx context.Context) string
	RecordMainProcessTelemetry(ctx context.Context, t Telemetry)
	RegisterWorkerProcessTelemetry(ctx context.Context, requestedSharing, fixedAddressFailed bool)
}

// SystemLoader is the platform loader used on the system path.
type SystemLoader interface {
	Load(module string) error
}

// CustomLoader is the loader facility used on the custom path.
// An empty archive means "load from extracted storage".
type CustomLoader interface {
	Prepare()
	LoadSharing(module, archive string) error
	LoadDirect(module, archive string) error
	Finish()
	DisableSharing()
	SupportsArchiveDirectLoad(archive string) bool
}

// WorkaroundLoader is the last-resort mechanism for broken system loaders.
// ScheduleArtifactCleanup must not block.
type WorkaroundLoader interface {
	TryLoad(env Environment, module string) bool
	ScheduleArtifactCleanup(env Environment)
}

// Tracer keeps event tracing in sync with the native side once registered.
type Tracer interface {
	RegisterNativeEnabledObserver()
}

// Dependencies wires the coordinator collaborators. Bridge and System are
// required; the rest are optional.
type Dependencies struct {
	Bridge      Bridge
	System      SystemLoader
	Custom      CustomLoader
	Workaround  WorkaroundLoader
	CommandLine *cmdline.CommandLine
	Tracer      Tracer
	Logger      *zerolog.Logger
}
