package dl

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// findInArchive returns the archive entry for module, preferring the entry
// built for the running arch.
func findInArchive(r *zip.Reader, module string) *zip.File {
	name := LibraryFileName(module)
	var fallback *zip.File
	for _, f := range r.File {
		if f.FileInfo().IsDir() || path.Base(f.Name) != name {
			continue
		}
		if strings.Contains(f.Name, "/"+abiDir()+"/") {
			return f
		}
		if fallback == nil {
			fallback = f
		}
	}
	return fallback
}

// extractFromArchive copies module out of archive into dir and returns the
// extracted file path.
func extractFromArchive(archive, module, dir string) (string, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return "", fmt.Errorf("dl: open archive %s: %w", archive, err)
	}
	defer r.Close()

	entry := findInArchive(&r.Reader, module)
	if entry == nil {
		return "", fmt.Errorf("%w: %s in %s", ErrModuleNotInArchive, module, archive)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	src, err := entry.Open()
	if err != nil {
		return "", fmt.Errorf("dl: read %s: %w", entry.Name, err)
	}
	defer src.Close()

	dst := filepath.Join(dir, LibraryFileName(module))
	tmp, err := os.CreateTemp(dir, ".extract-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("dl: extract %s: %w", entry.Name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Chmod(tmp.Name(), 0o755); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return dst, nil
}

// archiveMappable reports whether every module in archive is stored
// uncompressed at a page-aligned offset, the layout needed to map code
// straight out of the archive.
func archiveMappable(archive string) bool {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return false
	}
	defer r.Close()

	page := int64(os.Getpagesize())
	found := false
	for _, f := range r.File {
		if !strings.HasPrefix(f.Name, "lib/") || f.FileInfo().IsDir() {
			continue
		}
		found = true
		if f.Method != zip.Store {
			return false
		}
		off, err := f.DataOffset()
		if err != nil || off%page != 0 {
			return false
		}
	}
	return found
}
