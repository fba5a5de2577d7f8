package dl

import (
	"errors"
	"runtime"
	"strings"
)

var (
	ErrUnsupportedPlatform = errors.New("dl: dynamic loading unsupported on this platform")
	ErrModuleNotInArchive  = errors.New("dl: module not found in archive")
	ErrSharingUnsupported  = errors.New("dl: shared relocation loading unsupported")
	ErrNotLoaded           = errors.New("dl: module not loaded")
)

// LibraryFileName maps a module name to the platform file name.
func LibraryFileName(module string) string {
	module = strings.TrimSpace(module)
	switch runtime.GOOS {
	case "darwin", "ios":
		return "lib" + module + ".dylib"
	case "windows":
		return module + ".dll"
	default:
		return "lib" + module + ".so"
	}
}

// abiDir is the archive directory holding modules for the running arch.
func abiDir() string {
	switch runtime.GOARCH {
	case "arm64":
		return "arm64-v8a"
	case "arm":
		return "armeabi-v7a"
	case "amd64":
		return "x86_64"
	case "386":
		return "x86"
	default:
		return runtime.GOARCH
	}
}
