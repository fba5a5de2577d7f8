package main

import (
	"context"
	"os"

	"github.com/danmuck/nativeload/internal/cmdline"
	"github.com/danmuck/nativeload/internal/config"
	"github.com/danmuck/nativeload/internal/dl"
	"github.com/danmuck/nativeload/internal/loader"
	"github.com/danmuck/nativeload/internal/logging"
	"github.com/danmuck/nativeload/internal/observability"
	"github.com/danmuck/nativeload/internal/status"
	"github.com/rs/zerolog/log"
)

func main() {
	logging.ConfigureRuntime()
	configPath := "cmd/nativeloadctl/config.toml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	cfg, err := config.LoadLoaderConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load loader config")
	}
	log.Info().Str("path", configPath).Strs("modules", cfg.Modules).Msg("loaded loader config")

	coord := newCoordinator(cfg)
	ctx := context.Background()

	if err := startNative(ctx, coord, cfg); err != nil {
		log.Fatal().Err(err).Msg("native initialization failed")
	}
	log.Info().Str("path", string(coord.Path())).Msg("native subsystem ready")

	if cfg.StatusAddr == "" {
		return
	}
	server := status.NewServer(cfg.StatusAddr, coord, cfg.CorsOrigins, log.Logger)
	log.Info().Str("addr", cfg.StatusAddr).Msg("status server started")
	if err := server.Serve(); err != nil {
		log.Fatal().Err(err).Msg("status server stopped")
	}
}

func newCoordinator(cfg config.LoaderConfig) *loader.Coordinator {
	lib := dl.NewLibrary(cfg.SearchDirs...)
	deps := loader.Dependencies{
		Bridge:      dl.NewBridge(lib, cfg.BridgeModule),
		System:      lib,
		Workaround:  dl.NewWorkaround(lib, cfg.WorkaroundDir),
		CommandLine: cmdline.New(append([]string{os.Args[0]}, cfg.Switches...)),
		Tracer:      observability.NewTraceObserver(log.Logger),
	}
	if cfg.CustomLoader {
		deps.Custom = dl.NewArchiveLoader(lib, cfg.StagingDir)
	}
	return loader.New(cfg.Options(), deps)
}

// startNative brings the native subsystem up and reports load telemetry for
// the configured role. Workers report only after loading so the fixed-address
// outcome reflects what actually happened.
func startNative(ctx context.Context, coord *loader.Coordinator, cfg config.LoaderConfig) error {
	if err := coord.EnsureInitialized(ctx, cfg.Environment(), cfg.DeleteOldWorkaroundArtifacts); err != nil {
		return err
	}
	opts := cfg.Options()
	switch opts.Role {
	case loader.RoleMain:
		coord.OnNativeInitializationComplete(ctx)
	case loader.RoleWorker:
		coord.RegisterWorkerProcessTelemetry(ctx, opts.SharedRelocationSharing,
			coord.Telemetry(ctx).FixedAddressLoadFailed)
	}
	return nil
}
