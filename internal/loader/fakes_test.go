package loader

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/danmuck/nativeload/internal/cmdline"
)

var errLinkFailed = errors.New("dlopen: cannot open shared object")

type fakeBridge struct {
	mu               sync.Mutex
	version          string
	registerOK       bool
	registerCalls    int
	commandLines     [][]string
	mainRecords      []Telemetry
	workerRecords    [][2]bool
	onRegister       func(ctx context.Context)
	registerDuration time.Duration
}

func newFakeBridge(version string) *fakeBridge {
	return &fakeBridge{version: version, registerOK: true}
}

func (b *fakeBridge) InitCommandLine(ctx context.Context, args []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commandLines = append(b.commandLines, args)
}

func (b *fakeBridge) RegisterEverythingElse(ctx context.Context) bool {
	if b.registerDuration > 0 {
		time.Sleep(b.registerDuration)
	}
	if b.onRegister != nil {
		b.onRegister(ctx)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.registerCalls++
	return b.registerOK
}

func (b *fakeBridge) Version(ctx context.Context) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.version
}

func (b *fakeBridge) RecordMainProcessTelemetry(ctx context.Context, t Telemetry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mainRecords = append(b.mainRecords, t)
}

func (b *fakeBridge) RegisterWorkerProcessTelemetry(ctx context.Context, requestedSharing, fixedAddressFailed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.workerRecords = append(b.workerRecords, [2]bool{requestedSharing, fixedAddressFailed})
}

type fakeSystem struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls []string
}

func (s *fakeSystem) Load(module string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, module)
	if s.fail[module] {
		return errLinkFailed
	}
	return nil
}

func (s *fakeSystem) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type fakeCustom struct {
	failSharing    map[string]bool
	failDirect     map[string]bool
	archiveSupport bool

	events        []string
	archiveChecks int
	sharingOff    bool
	prepareCalls  int
	finishCalls   int
	lastArchive   string
}

func (c *fakeCustom) Prepare() {
	c.prepareCalls++
	c.events = append(c.events, "prepare")
}

func (c *fakeCustom) LoadSharing(module, archive string) error {
	c.events = append(c.events, "sharing:"+module)
	c.lastArchive = archive
	if c.failSharing[module] {
		return errLinkFailed
	}
	return nil
}

func (c *fakeCustom) LoadDirect(module, archive string) error {
	c.events = append(c.events, "direct:"+module)
	c.lastArchive = archive
	if c.failDirect[module] {
		return errLinkFailed
	}
	return nil
}

func (c *fakeCustom) Finish() {
	c.finishCalls++
	c.events = append(c.events, "finish")
}

func (c *fakeCustom) DisableSharing() {
	c.sharingOff = true
	c.events = append(c.events, "disable-sharing")
}

func (c *fakeCustom) SupportsArchiveDirectLoad(archive string) bool {
	c.archiveChecks++
	return c.archiveSupport
}

type fakeWorkaround struct {
	ok       map[string]bool
	tried    []string
	cleanups int
}

func (w *fakeWorkaround) TryLoad(env Environment, module string) bool {
	w.tried = append(w.tried, module)
	return w.ok[module]
}

func (w *fakeWorkaround) ScheduleArtifactCleanup(env Environment) {
	w.cleanups++
}

type fakeTracer struct {
	calls int
}

func (t *fakeTracer) RegisterNativeEnabledObserver() {
	t.calls++
}

type harness struct {
	bridge     *fakeBridge
	system     *fakeSystem
	custom     *fakeCustom
	workaround *fakeWorkaround
	tracer     *fakeTracer
	cl         *cmdline.CommandLine
}

func newHarness() *harness {
	return &harness{
		bridge:     newFakeBridge("1.2.3"),
		system:     &fakeSystem{fail: map[string]bool{}},
		custom:     &fakeCustom{failSharing: map[string]bool{}, failDirect: map[string]bool{}},
		workaround: &fakeWorkaround{ok: map[string]bool{}},
		tracer:     &fakeTracer{},
		cl:         cmdline.New([]string{"prog", "--v=1"}),
	}
}

func (h *harness) coordinator(opts Options) *Coordinator {
	if opts.ExpectedVersion == "" {
		opts.ExpectedVersion = "1.2.3"
	}
	if opts.Modules == nil {
		opts.Modules = []string{"base", "core"}
	}
	return New(opts, Dependencies{
		Bridge:      h.bridge,
		System:      h.system,
		Custom:      h.custom,
		Workaround:  h.workaround,
		CommandLine: h.cl,
		Tracer:      h.tracer,
	})
}
