package config

import (
	"os"
	"strconv"
	"strings"
)

// Defaults applied when the corresponding Config fields are unset.
const (
	DefaultAddr           = "0.0.0.0:5800"
	DefaultUploadsDir     = "uploads"
	DefaultResultsDir     = "results"
	DefaultModelPath      = "model/best.onnx"
	DefaultBackend        = "onnxruntime"
	DefaultInputSize      = 640
	DefaultConfThreshold  = 0.25
	DefaultIOUThreshold   = 0.45
	DefaultMaxUploadBytes = 16 << 20
	DefaultLogLevel       = "info"
	DefaultMinGoVersion   = "go1.21"
)

// Default returns a Config with every field set to its default.
func Default() Config {
	return Config{}.WithDefaults()
}

// WithDefaults returns a copy of c with zero fields replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.UploadsDir == "" {
		c.UploadsDir = DefaultUploadsDir
	}
	if c.ResultsDir == "" {
		c.ResultsDir = DefaultResultsDir
	}
	if c.ModelPath == "" {
		c.ModelPath = DefaultModelPath
	}
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
	if c.InputSize <= 0 {
		c.InputSize = DefaultInputSize
	}
	if c.ConfThreshold <= 0 {
		c.ConfThreshold = DefaultConfThreshold
	}
	if c.IOUThreshold <= 0 {
		c.IOUThreshold = DefaultIOUThreshold
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.InferTimeoutSeconds < 0 {
		c.InferTimeoutSeconds = 0
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.MinGoVersion == "" {
		c.MinGoVersion = DefaultMinGoVersion
	}
	return c
}

// ApplyEnv overrides fields of c from INSPECTOR_* environment variables.
// Unparseable numeric or boolean values are ignored.
func ApplyEnv(c *Config) {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	str("INSPECTOR_ADDR", &c.Addr)
	str("INSPECTOR_UPLOADS_DIR", &c.UploadsDir)
	str("INSPECTOR_RESULTS_DIR", &c.ResultsDir)
	str("INSPECTOR_MODEL_PATH", &c.ModelPath)
	str("INSPECTOR_CLASSES_PATH", &c.ClassesPath)
	str("INSPECTOR_BACKEND", &c.Backend)
	str("INSPECTOR_ONNXRUNTIME_LIB", &c.ONNXRuntimeLib)
	str("INSPECTOR_LOG_LEVEL", &c.LogLevel)
	str("INSPECTOR_INSTALL_COMMAND", &c.InstallCommand)

	if v := os.Getenv("INSPECTOR_INPUT_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.InputSize = n
		}
	}
	if v := os.Getenv("INSPECTOR_CONF_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.ConfThreshold = f
		}
	}
	if v := os.Getenv("INSPECTOR_IOU_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.IOUThreshold = f
		}
	}
	if v := os.Getenv("INSPECTOR_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("INSPECTOR_INFER_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.InferTimeoutSeconds = n
		}
	}
	if v := os.Getenv("INSPECTOR_ALLOW_DEGRADED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.AllowDegraded = b
		}
	}
	if v := os.Getenv("INSPECTOR_CORS_ORIGINS"); v != "" {
		c.CORS.Enabled = true
		c.CORS.AllowedOrigins = splitCSV(v)
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
