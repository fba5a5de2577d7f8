// Package loader owns the native module load protocol.
//
// Ownership boundary:
// - load state (unloaded -> loaded -> initialized, command line switch)
//
// - load path selection (system loader or custom loader)
//
// - shared relocation fallback and workaround loading
//
// - version gate before initialization
//
// - load telemetry flags
//
// Lifecycle order:
// - load -> version gate -> command line -> register -> proxy -> tracing
//
// - load and initialize may run on different goroutines (LoadNow, Initialize).
//
// - state flags only move forward for the lifetime of a Coordinator.
//
// The platform loaders, the workaround mechanism and the native bridge are
// collaborators injected through Dependencies. Package dl provides purego
// backed implementations.
package loader
