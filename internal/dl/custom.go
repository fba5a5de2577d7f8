package dl

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// ArchiveLoader is the custom loader facility. dlopen cannot place a module
// at a fixed address shared between processes, so every sharing request
// fails and the caller falls back to LoadDirect.
type ArchiveLoader struct {
	lib        *Library
	stagingDir string
}

// NewArchiveLoader stages modules taken from archives under stagingDir.
func NewArchiveLoader(lib *Library, stagingDir string) *ArchiveLoader {
	return &ArchiveLoader{lib: lib, stagingDir: strings.TrimSpace(stagingDir)}
}

func (a *ArchiveLoader) Prepare() {
	if a.stagingDir == "" {
		return
	}
	if err := os.MkdirAll(a.stagingDir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", a.stagingDir).Msg("dl.ArchiveLoader staging dir unavailable")
	}
}

func (a *ArchiveLoader) LoadSharing(module, archive string) error {
	return fmt.Errorf("%w: %s", ErrSharingUnsupported, module)
}

func (a *ArchiveLoader) LoadDirect(module, archive string) error {
	if strings.TrimSpace(archive) == "" {
		return a.lib.Load(module)
	}
	if a.stagingDir == "" {
		return fmt.Errorf("dl: staging dir required to load %s from %s", module, archive)
	}
	path, err := extractFromArchive(archive, module, a.stagingDir)
	if err != nil {
		return err
	}
	return a.lib.LoadPath(module, path)
}

func (a *ArchiveLoader) Finish() {
	log.Debug().Str("dir", a.stagingDir).Msg("dl.ArchiveLoader batch finished")
}

// DisableSharing has nothing to turn off since LoadSharing never succeeds.
func (a *ArchiveLoader) DisableSharing() {
	log.Debug().Msg("dl.ArchiveLoader sharing disabled for batch")
}

func (a *ArchiveLoader) SupportsArchiveDirectLoad(archive string) bool {
	return archiveMappable(archive)
}
