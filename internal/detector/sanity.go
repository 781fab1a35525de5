package detector

import (
	"inspector/internal/common/fsutil"
)

// SanityReport describes whether the model can be loaded in this environment.
type SanityReport struct {
	ModelPath      string `json:"model_path"`
	ModelFound     bool   `json:"model_found"`
	ModelSizeBytes int64  `json:"model_size_bytes,omitempty"`
	ClassesPath    string `json:"classes_path,omitempty"`
	ClassesFound   bool   `json:"classes_found"`
	Backend        string `json:"backend"`
	BackendBuilt   bool   `json:"backend_built"`
	Error          string `json:"error,omitempty"`
}

// OK reports whether nothing blocks loading.
func (r SanityReport) OK() bool { return r.Error == "" }

// SanityCheck inspects the weights file, the optional classes file and the backend.
// It does not load anything and is safe to call at any time.
func SanityCheck(cfg Config) SanityReport {
	r := SanityReport{
		ModelPath:    cfg.ModelPath,
		ClassesPath:  cfg.ClassesPath,
		Backend:      CanonicalBackend(cfg.Backend),
		BackendBuilt: BackendBuilt(cfg.Backend),
	}
	if r.Backend == "" {
		r.Backend = cfg.Backend
	}
	if size, err := fsutil.FileSize(cfg.ModelPath); err == nil {
		r.ModelFound = true
		r.ModelSizeBytes = size
	}
	if cfg.ClassesPath != "" {
		_, err := fsutil.FileSize(cfg.ClassesPath)
		r.ClassesFound = err == nil
	}
	switch {
	case !r.ModelFound:
		r.Error = ErrModelFileMissing(cfg.ModelPath).Error()
	case cfg.ClassesPath != "" && !r.ClassesFound:
		r.Error = "classes file not found: " + cfg.ClassesPath
	case CanonicalBackend(cfg.Backend) == "":
		r.Error = "unknown backend: " + cfg.Backend
	case !r.BackendBuilt:
		r.Error = r.Backend + " support not built"
	}
	return r
}
