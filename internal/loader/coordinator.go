package loader

import (
	"context"
	"sync"
	"time"

	"github.com/danmuck/nativeload/internal/cmdline"
	"github.com/danmuck/nativeload/internal/observability"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Coordinator serializes loading and initialization of the native modules.
// Deploy one per process; tests may create as many as they need.
type Coordinator struct {
	opts Options
	deps Dependencies
	path LoadPath
	log  zerolog.Logger

	mu             sync.Mutex
	state          State
	telemetry      Telemetry
	archiveChecked bool
	// versionOK is set once the loaded module passed the version gate.
	versionOK bool
}

// New builds a coordinator. Bridge and System must be set.
func New(opts Options, deps Dependencies) *Coordinator {
	if deps.Bridge == nil {
		panic("loader: native bridge is required")
	}
	if deps.System == nil {
		panic("loader: system loader is required")
	}
	if deps.CommandLine == nil {
		deps.CommandLine = cmdline.New(nil)
	}
	logger := log.Logger
	if deps.Logger != nil {
		logger = *deps.Logger
	}
	opts.Modules = append([]string(nil), opts.Modules...)
	c := &Coordinator{
		opts: opts,
		deps: deps,
		path: opts.Path(deps.Custom),
	}
	c.log = logger.With().Str("component", "loader").Str("path", string(c.path)).Logger()
	return c
}

// Path reports the load path selected from the options.
func (c *Coordinator) Path() LoadPath {
	return c.path
}

// EnsureInitialized loads and initializes the native modules, blocking until
// both are done. It is a no-op once initialized. A failed call leaves the
// coordinator uninitialized and a later call may retry.
func (c *Coordinator) EnsureInitialized(ctx context.Context, env Environment, deleteOldWorkaroundArtifacts bool) error {
	ctx, release := c.acquire(ctx)
	defer release()

	if c.state.Initialized() {
		return nil
	}
	if err := c.loadAlreadyLocked(ctx, env, deleteOldWorkaroundArtifacts); err != nil {
		return err
	}
	return c.initializeAlreadyLocked(ctx)
}

// LoadNow loads the native modules without initializing them. The calling
// goroutine runs the modules' static initializers; Initialize must follow.
func (c *Coordinator) LoadNow(ctx context.Context, env Environment, deleteOldWorkaroundArtifacts bool) error {
	ctx, release := c.acquire(ctx)
	defer release()
	return c.loadAlreadyLocked(ctx, env, deleteOldWorkaroundArtifacts)
}

// Initialize registers the loaded modules. Calling it before a successful
// load is a programming error and panics.
func (c *Coordinator) Initialize(ctx context.Context) error {
	ctx, release := c.acquire(ctx)
	defer release()
	if !c.state.Loaded() {
		panic("loader: Initialize called before native modules were loaded")
	}
	if !c.state.Initialized() && !c.versionOK {
		if err := c.checkVersionAlreadyLocked(ctx); err != nil {
			return err
		}
	}
	return c.initializeAlreadyLocked(ctx)
}

func (c *Coordinator) IsInitialized(ctx context.Context) bool {
	_, release := c.acquire(ctx)
	defer release()
	return c.state.Initialized()
}

// State returns a snapshot of the load switches.
func (c *Coordinator) State(ctx context.Context) State {
	_, release := c.acquire(ctx)
	defer release()
	return c.state
}

// Telemetry returns a snapshot of the telemetry switches.
func (c *Coordinator) Telemetry(ctx context.Context) Telemetry {
	_, release := c.acquire(ctx)
	defer release()
	return c.telemetry
}

func (c *Coordinator) loadAlreadyLocked(ctx context.Context, env Environment, deleteOldWorkaroundArtifacts bool) error {
	if !c.state.Loaded() {
		attempt := newAttemptID()
		logger := c.log.With().Str("attempt_id", attempt).Logger()
		start := time.Now()

		var err error
		if c.path == PathCustom {
			err = c.loadCustomAlreadyLocked(env, logger)
		} else {
			err = c.loadSystemAlreadyLocked(env, logger)
		}
		elapsed := time.Since(start)
		if err != nil {
			observability.RecordLoad(string(c.path), "failed", elapsed)
			logger.Error().Err(err).Dur("elapsed", elapsed).Msg("native module load failed")
			return err
		}

		if env != nil && deleteOldWorkaroundArtifacts && !c.telemetry.UsedWorkaroundLoader && c.deps.Workaround != nil {
			c.deps.Workaround.ScheduleArtifactCleanup(env)
		}

		observability.RecordLoad(string(c.path), "loaded", elapsed)
		logger.Info().
			Int64("elapsed_ms", elapsed.Milliseconds()).
			Int("modules", len(c.opts.Modules)).
			Msg("native modules loaded")
		c.state.advance(PhaseLoaded)
	}
	return c.checkVersionAlreadyLocked(ctx)
}

func (c *Coordinator) initializeAlreadyLocked(ctx context.Context) error {
	if c.state.Initialized() {
		return nil
	}

	if !c.state.CommandLineSwitched {
		c.deps.Bridge.InitCommandLine(ctx, c.deps.CommandLine.Switches())
	}

	if !c.deps.Bridge.RegisterEverythingElse(ctx) {
		c.log.Error().Msg("native registration failed")
		return &ProcessInitError{Code: CodeFailedToRegister}
	}
	// Native code is usable from here on.
	c.state.advance(PhaseInitialized)

	if !c.state.CommandLineSwitched {
		c.deps.CommandLine.EnableNativeProxy()
		c.state.CommandLineSwitched = true
	}

	if c.deps.Tracer != nil {
		c.deps.Tracer.RegisterNativeEnabledObserver()
	}
	c.log.Info().Msg("native modules initialized")
	return nil
}

func newAttemptID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
