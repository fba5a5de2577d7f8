//go:build !(darwin || linux)

package dl

func openLibrary(path string) (uintptr, error) {
	return 0, ErrUnsupportedPlatform
}

func lookupSymbol(handle uintptr, name string) (uintptr, error) {
	return 0, ErrUnsupportedPlatform
}

func closeLibrary(handle uintptr) error {
	return nil
}

func registerFunc(fptr any, addr uintptr) {}
