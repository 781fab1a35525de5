//go:build !onnx

package detector

// onnxBuilt indicates whether this binary was compiled with onnxruntime support.
var onnxBuilt = false

// NewONNXBackend refuses to load without the 'onnx' build tag so that default
// builds never pretend to run inference.
func NewONNXBackend(bc BackendConfig) (Backend, error) {
	return nil, ErrDependencyUnavailable("onnxruntime support not built (missing 'onnx' build tag)")
}
