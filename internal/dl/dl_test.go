package dl

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/nativeload/internal/loader"
	"github.com/danmuck/nativeload/internal/testutil/testlog"
)

type zipEntry struct {
	name   string
	body   string
	method uint16
}

func writeArchive(t *testing.T, entries ...zipEntry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.apk")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: e.method})
		if err != nil {
			t.Fatalf("create entry %s: %v", e.name, err)
		}
		if _, err := w.Write([]byte(e.body)); err != nil {
			t.Fatalf("write entry %s: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return path
}

func TestExtractPrefersRunningABI(t *testing.T) {
	testlog.Start(t)
	name := LibraryFileName("core")
	archive := writeArchive(t,
		zipEntry{name: "lib/other-abi/" + name, body: "other", method: zip.Deflate},
		zipEntry{name: "lib/" + abiDir() + "/" + name, body: "native", method: zip.Deflate},
	)
	dir := filepath.Join(t.TempDir(), "out")

	path, err := extractFromArchive(archive, "core", dir)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read extracted: %v", err)
	}
	if string(data) != "native" {
		t.Fatalf("expected abi specific entry, got %q", data)
	}
}

func TestExtractMissingModule(t *testing.T) {
	testlog.Start(t)
	archive := writeArchive(t, zipEntry{name: "assets/readme.txt", body: "x", method: zip.Deflate})
	if _, err := extractFromArchive(archive, "core", t.TempDir()); !errors.Is(err, ErrModuleNotInArchive) {
		t.Fatalf("expected ErrModuleNotInArchive, got %v", err)
	}
}

func TestArchiveMappableRejectsCompressedModules(t *testing.T) {
	testlog.Start(t)
	archive := writeArchive(t, zipEntry{name: "lib/" + abiDir() + "/" + LibraryFileName("core"), body: "x", method: zip.Deflate})
	if archiveMappable(archive) {
		t.Fatalf("compressed modules cannot be mapped from the archive")
	}
	if archiveMappable(filepath.Join(t.TempDir(), "missing.apk")) {
		t.Fatalf("missing archive must not be mappable")
	}
}

func TestLibraryLoadMissingModuleFails(t *testing.T) {
	testlog.Start(t)
	lib := NewLibrary(t.TempDir(), " ")
	if err := lib.Load("nativeload_missing_module"); err == nil {
		t.Fatalf("expected load failure")
	}
	if _, ok := lib.Handle("nativeload_missing_module"); ok {
		t.Fatalf("failed load must not record a handle")
	}
	if _, err := lib.Lookup("nativeload_missing_module", SymVersion); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
}

func TestArchiveLoaderSharingAlwaysFallsBack(t *testing.T) {
	testlog.Start(t)
	a := NewArchiveLoader(NewLibrary(), t.TempDir())
	a.Prepare()
	if err := a.LoadSharing("core", ""); !errors.Is(err, ErrSharingUnsupported) {
		t.Fatalf("expected ErrSharingUnsupported, got %v", err)
	}
	a.DisableSharing()
	if err := a.LoadSharing("core", ""); !errors.Is(err, ErrSharingUnsupported) {
		t.Fatalf("expected ErrSharingUnsupported, got %v", err)
	}
	if err := a.LoadDirect("core", filepath.Join(t.TempDir(), "missing.apk")); err == nil {
		t.Fatalf("expected archive open failure")
	}
	a.Finish()
}

func TestWorkaroundExtractsAndCleansUp(t *testing.T) {
	testlog.Start(t)
	archive := writeArchive(t, zipEntry{name: "lib/" + abiDir() + "/" + LibraryFileName("core"), body: "not an elf", method: zip.Deflate})
	dir := filepath.Join(t.TempDir(), "workaround")
	w := NewWorkaround(NewLibrary(), dir)

	if w.TryLoad(nil, "core") {
		t.Fatalf("workaround needs an environment")
	}
	// The extracted file is not loadable code, so dlopen rejects it.
	if w.TryLoad(loader.ArchiveEnvironment(archive), "core") {
		t.Fatalf("expected invalid module to fail loading")
	}
	if _, err := os.Stat(filepath.Join(dir, LibraryFileName("core"))); err != nil {
		t.Fatalf("expected extracted artifact: %v", err)
	}

	w.ScheduleArtifactCleanup(loader.ArchiveEnvironment(archive))
	select {
	case <-w.cleaned:
	case <-time.After(2 * time.Second):
		t.Fatalf("cleanup did not finish")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("expected workaround dir removed, got %v", err)
	}
}

func TestBridgeUnboundIsSafe(t *testing.T) {
	testlog.Start(t)
	b := NewBridge(NewLibrary(), "core")
	ctx := context.Background()

	if v := b.Version(ctx); v != "" {
		t.Fatalf("expected empty version from unbound bridge, got %q", v)
	}
	if b.RegisterEverythingElse(ctx) {
		t.Fatalf("unbound bridge must report registration failure")
	}
	b.InitCommandLine(ctx, []string{"prog"})
	b.RecordMainProcessTelemetry(ctx, loader.Telemetry{})
	b.RegisterWorkerProcessTelemetry(ctx, true, false)
	if len(b.pendingWorker) != 1 {
		t.Fatalf("expected worker telemetry held until bind, got %d", len(b.pendingWorker))
	}
}
