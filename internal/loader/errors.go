package loader

import (
	"errors"
	"fmt"
)

var (
	ErrLoadFailure     = errors.New("loader: native module load failed")
	ErrVersionMismatch = errors.New("loader: native module version mismatch")
	ErrInitFailure     = errors.New("loader: native module initialization failed")
)

// ErrorCode identifies why process initialization failed.
type ErrorCode int

const (
	CodeNativeLibraryLoadFailed ErrorCode = iota + 1
	CodeWrongVersion
	CodeFailedToRegister
)

func (c ErrorCode) String() string {
	switch c {
	case CodeNativeLibraryLoadFailed:
		return "native_library_load_failed"
	case CodeWrongVersion:
		return "native_library_wrong_version"
	case CodeFailedToRegister:
		return "failed_to_register"
	default:
		return fmt.Sprintf("error_code(%d)", int(c))
	}
}

// ProcessInitError is returned by the coordinator for every fatal load or
// initialization failure.
type ProcessInitError struct {
	Code     ErrorCode
	Module   string
	Expected string
	Actual   string
	Err      error
}

func (e *ProcessInitError) Error() string {
	switch e.Code {
	case CodeWrongVersion:
		return fmt.Sprintf("loader: %s: expected=%q actual=%q", e.Code, e.Expected, e.Actual)
	case CodeNativeLibraryLoadFailed:
		if e.Err != nil {
			return fmt.Sprintf("loader: %s module=%q: %v", e.Code, e.Module, e.Err)
		}
		return fmt.Sprintf("loader: %s module=%q", e.Code, e.Module)
	default:
		return fmt.Sprintf("loader: %s", e.Code)
	}
}

func (e *ProcessInitError) Unwrap() error {
	return e.Err
}

// Is maps codes onto the two fatal kinds. A wrong version is a load failure
// with its own sub-kind.
func (e *ProcessInitError) Is(target error) bool {
	switch target {
	case ErrLoadFailure:
		return e.Code == CodeNativeLibraryLoadFailed || e.Code == CodeWrongVersion
	case ErrVersionMismatch:
		return e.Code == CodeWrongVersion
	case ErrInitFailure:
		return e.Code == CodeFailedToRegister
	}
	return false
}

func loadFailed(module string, err error) error {
	return &ProcessInitError{Code: CodeNativeLibraryLoadFailed, Module: module, Err: err}
}
