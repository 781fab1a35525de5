//go:build !opencv

package detector

var opencvBuilt = false

// NewOpenCVBackend refuses to load without the 'opencv' build tag.
func NewOpenCVBackend(bc BackendConfig) (Backend, error) {
	return nil, ErrDependencyUnavailable("opencv support not built (missing 'opencv' build tag)")
}
