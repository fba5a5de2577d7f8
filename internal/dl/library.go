package dl

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Library is the system loader facility: it dlopens modules by platform file
// name and keeps the handles for symbol lookup.
type Library struct {
	searchDirs []string

	mu      sync.Mutex
	handles map[string]uintptr
}

// NewLibrary tries searchDirs in order before the dynamic linker's own path.
func NewLibrary(searchDirs ...string) *Library {
	dirs := make([]string, 0, len(searchDirs))
	for _, dir := range searchDirs {
		if dir = strings.TrimSpace(dir); dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return &Library{searchDirs: dirs, handles: make(map[string]uintptr)}
}

// Load opens module unless it is already open.
func (l *Library) Load(module string) error {
	if _, ok := l.Handle(module); ok {
		return nil
	}
	name := LibraryFileName(module)
	var errs []error
	for _, dir := range l.searchDirs {
		err := l.LoadPath(module, filepath.Join(dir, name))
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	if err := l.LoadPath(module, name); err != nil {
		errs = append(errs, err)
		return errors.Join(errs...)
	}
	return nil
}

// LoadPath opens the file at path and records it as module.
func (l *Library) LoadPath(module, path string) error {
	handle, err := openLibrary(path)
	if err != nil {
		return fmt.Errorf("dl: open %s (%s): %w", module, path, err)
	}
	if handle == 0 {
		return fmt.Errorf("dl: open %s (%s): nil handle", module, path)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.handles[module]; ok && prev != handle {
		_ = closeLibrary(handle)
		return nil
	}
	l.handles[module] = handle
	log.Debug().Str("module", module).Str("file", path).Msg("dl.Library opened")
	return nil
}

func (l *Library) Handle(module string) (uintptr, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.handles[module]
	return h, ok
}

// Lookup resolves a symbol exported by module.
func (l *Library) Lookup(module, symbol string) (uintptr, error) {
	h, ok := l.Handle(module)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotLoaded, module)
	}
	addr, err := lookupSymbol(h, symbol)
	if err != nil {
		return 0, fmt.Errorf("dl: lookup %s in %s: %w", symbol, module, err)
	}
	return addr, nil
}
