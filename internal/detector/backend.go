package detector

import (
	"context"
	"fmt"
	"image"
	"strings"
)

// Box is one raw detection in source-image pixels, as produced by a Backend.
// Corner order and ranges are not guaranteed; Handle normalizes them.
type Box struct {
	X1, Y1, X2, Y2 float64
	Score          float32
	ClassID        int
}

// Backend is the external detector. Implementations own the weights and the
// runtime; they may also implement io.Closer and ClassNamer.
type Backend interface {
	Detect(ctx context.Context, img image.Image) ([]Box, error)
}

// ClassNamer is implemented by backends that carry their own label table.
type ClassNamer interface {
	ClassNames() map[int]string
}

// BackendConfig carries the parameters a backend needs to load weights.
type BackendConfig struct {
	ModelPath     string
	InputSize     int
	ConfThreshold float32
	IOUThreshold  float32
	// LibraryPath points at the onnxruntime shared library; empty uses the system default.
	LibraryPath string
}

// Backend names accepted by NewBackend.
const (
	BackendONNXRuntime = "onnxruntime"
	BackendOpenCV      = "opencv"
)

// CanonicalBackend maps aliases to a backend name, or "" if unknown.
func CanonicalBackend(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "onnxruntime", "onnx", "ort":
		return BackendONNXRuntime
	case "opencv", "gocv", "dnn":
		return BackendOpenCV
	default:
		return ""
	}
}

// BackendBuilt reports whether the named backend was compiled into this binary.
func BackendBuilt(name string) bool {
	switch CanonicalBackend(name) {
	case BackendONNXRuntime:
		return onnxBuilt
	case BackendOpenCV:
		return opencvBuilt
	default:
		return false
	}
}

// NewBackend constructs the named backend.
func NewBackend(name string, bc BackendConfig) (Backend, error) {
	switch CanonicalBackend(name) {
	case BackendONNXRuntime:
		return NewONNXBackend(bc)
	case BackendOpenCV:
		return NewOpenCVBackend(bc)
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}
