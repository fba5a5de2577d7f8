package dl

import (
	"os"
	"strings"
	"sync"

	"github.com/danmuck/nativeload/internal/loader"
	"github.com/rs/zerolog/log"
)

// Workaround loads a module by extracting a private copy from the
// application archive when the system loader cannot find it.
type Workaround struct {
	lib       *Library
	dir       string
	cleanOnce sync.Once
	// cleaned is closed after a scheduled cleanup finished.
	cleaned chan struct{}
}

func NewWorkaround(lib *Library, dir string) *Workaround {
	return &Workaround{lib: lib, dir: strings.TrimSpace(dir), cleaned: make(chan struct{})}
}

func (w *Workaround) Dir() string {
	return w.dir
}

func (w *Workaround) TryLoad(env loader.Environment, module string) bool {
	if env == nil || w.dir == "" {
		return false
	}
	archive := strings.TrimSpace(env.ArchivePath())
	if archive == "" {
		return false
	}
	logger := log.With().Str("module", module).Str("archive", archive).Logger()
	path, err := extractFromArchive(archive, module, w.dir)
	if err != nil {
		logger.Warn().Err(err).Msg("dl.Workaround extract failed")
		return false
	}
	if err := w.lib.LoadPath(module, path); err != nil {
		logger.Warn().Err(err).Msg("dl.Workaround load failed")
		return false
	}
	logger.Info().Str("file", path).Msg("dl.Workaround loaded")
	return true
}

// ScheduleArtifactCleanup removes the workaround directory in the background.
// Best effort: failures are only logged.
func (w *Workaround) ScheduleArtifactCleanup(env loader.Environment) {
	if w.dir == "" {
		return
	}
	go func() {
		defer w.cleanOnce.Do(func() { close(w.cleaned) })
		if err := os.RemoveAll(w.dir); err != nil {
			log.Warn().Err(err).Str("dir", w.dir).Msg("dl.Workaround cleanup failed")
			return
		}
		log.Debug().Str("dir", w.dir).Msg("dl.Workaround artifacts removed")
	}()
}
