package detector

import (
	"errors"
	"net/http"
)

// modelNotLoadedError signals that inference was requested without a loaded model.
type modelNotLoadedError struct{}

func (modelNotLoadedError) Error() string { return "model not loaded" }

// StatusCode lets the HTTP layer report a missing model as a server error.
func (modelNotLoadedError) StatusCode() int { return http.StatusInternalServerError }

// ErrModelNotLoaded is returned by Infer and Info when no backend is available.
var ErrModelNotLoaded error = modelNotLoadedError{}

// IsModelNotLoaded reports whether err indicates a missing model.
func IsModelNotLoaded(err error) bool {
	var e modelNotLoadedError
	return errors.As(err, &e)
}

// modelFileMissingError signals that the configured weights file does not exist.
type modelFileMissingError struct{ path string }

func (e modelFileMissingError) Error() string { return "model file not found: " + e.path }

// ErrModelFileMissing constructs a modelFileMissingError.
func ErrModelFileMissing(path string) error { return modelFileMissingError{path: path} }

// IsModelFileMissing reports whether err indicates a missing weights file.
func IsModelFileMissing(err error) bool {
	var e modelFileMissingError
	return errors.As(err, &e)
}

// dependencyUnavailableError signals a missing runtime (backend not compiled in,
// shared library not found) so callers can tell it apart from bad weights.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing/failed runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var e dependencyUnavailableError
	return errors.As(err, &e)
}
