package dl

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/danmuck/nativeload/internal/loader"
	"github.com/rs/zerolog/log"
)

// Exported symbols the bridge module must provide.
const (
	SymInitCommandLine         = "nativeload_init_command_line"
	SymRegister                = "nativeload_register"
	SymVersion                 = "nativeload_version"
	SymRecordMainTelemetry     = "nativeload_record_main"
	SymRegisterWorkerTelemetry = "nativeload_register_worker"
)

// ArgSeparator joins command line arguments into one C string.
const ArgSeparator = "\x1e"

// Bridge calls into the bridge module through purego. Symbols are bound on
// first use after the module is loaded; until then calls are dropped, except
// worker telemetry which is held and forwarded once binding succeeds.
type Bridge struct {
	lib    *Library
	module string

	lookup  func(module, sym string) (uintptr, error)
	install func(fptr any, addr uintptr)

	mu            sync.Mutex
	bound         bool
	pendingWorker []workerTelemetry

	initCommandLine func(string)
	register        func() bool
	version         func() string
	recordMain      func(bool, bool, bool, bool)
	registerWorker  func(bool, bool)
}

type workerTelemetry struct {
	requestedSharing   bool
	fixedAddressFailed bool
}

var _ loader.Bridge = (*Bridge)(nil)

func NewBridge(lib *Library, module string) *Bridge {
	return &Bridge{
		lib:     lib,
		module:  strings.TrimSpace(module),
		lookup:  lib.Lookup,
		install: registerFunc,
	}
}

func (b *Bridge) bind() error {
	b.mu.Lock()
	if b.bound {
		b.mu.Unlock()
		return nil
	}
	targets := []struct {
		sym  string
		fptr any
	}{
		{SymInitCommandLine, &b.initCommandLine},
		{SymRegister, &b.register},
		{SymVersion, &b.version},
		{SymRecordMainTelemetry, &b.recordMain},
		{SymRegisterWorkerTelemetry, &b.registerWorker},
	}
	addrs := make([]uintptr, len(targets))
	for i, t := range targets {
		addr, err := b.lookup(b.module, t.sym)
		if err != nil {
			b.mu.Unlock()
			return fmt.Errorf("dl: bind bridge: %w", err)
		}
		addrs[i] = addr
	}
	for i, t := range targets {
		b.install(t.fptr, addrs[i])
	}
	b.bound = true
	pending := b.pendingWorker
	b.pendingWorker = nil
	b.mu.Unlock()

	for _, p := range pending {
		b.registerWorker(p.requestedSharing, p.fixedAddressFailed)
	}
	return nil
}

func (b *Bridge) ready() bool {
	if err := b.bind(); err != nil {
		log.Error().Err(err).Str("module", b.module).Msg("dl.Bridge unavailable")
		return false
	}
	return true
}

func (b *Bridge) InitCommandLine(ctx context.Context, args []string) {
	if !b.ready() {
		return
	}
	b.initCommandLine(strings.Join(args, ArgSeparator))
}

func (b *Bridge) RegisterEverythingElse(ctx context.Context) bool {
	if !b.ready() {
		return false
	}
	return b.register()
}

// Version returns "" when the bridge cannot be bound, which the version gate
// rejects.
func (b *Bridge) Version(ctx context.Context) string {
	if !b.ready() {
		return ""
	}
	return b.version()
}

func (b *Bridge) RecordMainProcessTelemetry(ctx context.Context, t loader.Telemetry) {
	if !b.ready() {
		return
	}
	b.recordMain(t.UsedSharedRelocationSharing, t.FixedAddressLoadFailed, t.ArchiveDirectLoadSupported, t.UsedWorkaroundLoader)
}

func (b *Bridge) RegisterWorkerProcessTelemetry(ctx context.Context, requestedSharing, fixedAddressFailed bool) {
	if err := b.bind(); err != nil {
		b.mu.Lock()
		b.pendingWorker = append(b.pendingWorker, workerTelemetry{requestedSharing, fixedAddressFailed})
		b.mu.Unlock()
		log.Debug().Err(err).Msg("dl.Bridge worker telemetry held until bind")
		return
	}
	b.registerWorker(requestedSharing, fixedAddressFailed)
}
