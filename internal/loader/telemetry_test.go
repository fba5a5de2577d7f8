package loader

import (
	"context"
	"testing"
	"time"

	"github.com/danmuck/nativeload/internal/testutil/testlog"
)

func TestOnNativeInitializationCompleteRecordsFlags(t *testing.T) {
	testlog.Start(t)
	h := newHarness()
	h.custom.failSharing["core"] = true
	c := h.coordinator(Options{UseCustomLoader: true, SharedRelocationSharing: true})
	ctx := context.Background()

	if err := c.EnsureInitialized(ctx, nil, false); err != nil {
		t.Fatalf("ensure initialized: %v", err)
	}
	c.OnNativeInitializationComplete(ctx)

	if len(h.bridge.mainRecords) != 1 {
		t.Fatalf("expected one main process record, got %d", len(h.bridge.mainRecords))
	}
	got := h.bridge.mainRecords[0]
	want := Telemetry{UsedSharedRelocationSharing: true, FixedAddressLoadFailed: true}
	if got != want {
		t.Fatalf("unexpected telemetry record: got=%+v want=%+v", got, want)
	}
}

func TestOnNativeInitializationCompleteBeforeInitPanics(t *testing.T) {
	testlog.Start(t)
	h := newHarness()
	c := h.coordinator(Options{})
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic before initialization")
		}
		if len(h.bridge.mainRecords) != 0 {
			t.Fatalf("nothing must be recorded")
		}
	}()
	c.OnNativeInitializationComplete(context.Background())
}

func TestOnNativeInitializationCompleteRequiresMainRole(t *testing.T) {
	testlog.Start(t)
	h := newHarness()
	c := h.coordinator(Options{Role: RoleWorker})
	if err := c.EnsureInitialized(context.Background(), nil, false); err != nil {
		t.Fatalf("ensure initialized: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for worker role")
		}
	}()
	c.OnNativeInitializationComplete(context.Background())
}

func TestRegisterWorkerTelemetryBeforeLoad(t *testing.T) {
	testlog.Start(t)
	h := newHarness()
	c := h.coordinator(Options{UseCustomLoader: true, Role: RoleWorker})

	// Hold the lock to prove registration never waits on it.
	_, release := c.acquire(context.Background())
	done := make(chan struct{})
	go func() {
		c.RegisterWorkerProcessTelemetry(context.Background(), true, true)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("worker telemetry registration blocked on the coordinator lock")
	}
	release()

	if len(h.bridge.workerRecords) != 1 || h.bridge.workerRecords[0] != [2]bool{true, true} {
		t.Fatalf("unexpected worker records: %v", h.bridge.workerRecords)
	}
	if c.State(context.Background()).Loaded() {
		t.Fatalf("registration must not load anything")
	}
}

func TestRegisterWorkerTelemetryIgnoredOnSystemPath(t *testing.T) {
	testlog.Start(t)
	h := newHarness()
	c := h.coordinator(Options{Role: RoleWorker})
	c.RegisterWorkerProcessTelemetry(context.Background(), true, false)
	if len(h.bridge.workerRecords) != 0 {
		t.Fatalf("system path produces no worker telemetry: %v", h.bridge.workerRecords)
	}
}
