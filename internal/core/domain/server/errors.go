package server

import (
	"errors"
	"fmt"
)

// ErrorKind classifies locator and launch failures
type ErrorKind string

const (
	KindMissingEnvironmentValue  ErrorKind = "missing_environment_value"
	KindSymlinkResolutionFailure ErrorKind = "symlink_resolution_failure"
	KindFileNotFound             ErrorKind = "file_not_found"
	KindRuntimeBinaryNotFound    ErrorKind = "runtime_binary_not_found"
)

// Sentinel errors for errors.Is checks against a LocateError
var (
	ErrMissingEnvironmentValue  = errors.New("missing environment value")
	ErrSymlinkResolutionFailure = errors.New("symlink resolution failure")
	ErrFileNotFound             = errors.New("file not found")
	ErrRuntimeBinaryNotFound    = errors.New("runtime binary not found")
)

// LocateError is returned when the server or its runtime cannot be resolved
type LocateError struct {
	Kind ErrorKind

	// Path is the path that was attempted, or the variable name for
	// KindMissingEnvironmentValue
	Path string

	// Base is the directory resolution started from, when known
	Base string

	Err error
}

func (e *LocateError) Error() string {
	switch e.Kind {
	case KindMissingEnvironmentValue:
		return fmt.Sprintf("environment variable %s is not set", e.Path)
	case KindSymlinkResolutionFailure:
		return fmt.Sprintf("failed to resolve symlink %s: %v", e.Path, e.Err)
	case KindFileNotFound:
		if e.Base != "" {
			return fmt.Sprintf("server not found at %s (base directory: %s)", e.Path, e.Base)
		}
		return fmt.Sprintf("server not found at %s", e.Path)
	case KindRuntimeBinaryNotFound:
		if e.Err != nil {
			return fmt.Sprintf("node runtime not found: %v", e.Err)
		}
		return "node runtime not found"
	default:
		return fmt.Sprintf("locate failed: %v", e.Err)
	}
}

func (e *LocateError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error for the kind
func (e *LocateError) Is(target error) bool {
	switch target {
	case ErrMissingEnvironmentValue:
		return e.Kind == KindMissingEnvironmentValue
	case ErrSymlinkResolutionFailure:
		return e.Kind == KindSymlinkResolutionFailure
	case ErrFileNotFound:
		return e.Kind == KindFileNotFound
	case ErrRuntimeBinaryNotFound:
		return e.Kind == KindRuntimeBinaryNotFound
	}
	return false
}

// MissingEnvironmentValue creates an error for an unset variable
func MissingEnvironmentValue(name string) error {
	return &LocateError{Kind: KindMissingEnvironmentValue, Path: name}
}

// SymlinkResolutionFailure creates an error for a link that cannot be followed
func SymlinkResolutionFailure(link string, err error) error {
	return &LocateError{Kind: KindSymlinkResolutionFailure, Path: link, Err: err}
}

// FileNotFound creates an error for a missing server entry point
func FileNotFound(path, base string, err error) error {
	return &LocateError{Kind: KindFileNotFound, Path: path, Base: base, Err: err}
}

// RuntimeBinaryNotFound creates an error for a missing node runtime
func RuntimeBinaryNotFound(err error) error {
	return &LocateError{Kind: KindRuntimeBinaryNotFound, Err: err}
}

// KindOf returns the kind of a LocateError anywhere in the chain
func KindOf(err error) (ErrorKind, bool) {
	var locateErr *LocateError
	if errors.As(err, &locateErr) {
		return locateErr.Kind, true
	}
	return "", false
}
