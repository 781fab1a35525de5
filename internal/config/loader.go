package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// CORSConfig controls the optional CORS middleware.
type CORSConfig struct {
	Enabled        bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" toml:"allowed_origins"`
	AllowedMethods []string `json:"allowed_methods" yaml:"allowed_methods" toml:"allowed_methods"`
	AllowedHeaders []string `json:"allowed_headers" yaml:"allowed_headers" toml:"allowed_headers"`
}

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	Addr                string     `json:"addr" yaml:"addr" toml:"addr"`
	UploadsDir          string     `json:"uploads_dir" yaml:"uploads_dir" toml:"uploads_dir"`
	ResultsDir          string     `json:"results_dir" yaml:"results_dir" toml:"results_dir"`
	ModelPath           string     `json:"model_path" yaml:"model_path" toml:"model_path"`
	ClassesPath         string     `json:"classes_path" yaml:"classes_path" toml:"classes_path"`
	Backend             string     `json:"backend" yaml:"backend" toml:"backend"`
	ONNXRuntimeLib      string     `json:"onnxruntime_lib" yaml:"onnxruntime_lib" toml:"onnxruntime_lib"`
	InputSize           int        `json:"input_size" yaml:"input_size" toml:"input_size"`
	ConfThreshold       float64    `json:"conf_threshold" yaml:"conf_threshold" toml:"conf_threshold"`
	IOUThreshold        float64    `json:"iou_threshold" yaml:"iou_threshold" toml:"iou_threshold"`
	MaxUploadBytes      int64      `json:"max_upload_bytes" yaml:"max_upload_bytes" toml:"max_upload_bytes"`
	InferTimeoutSeconds int64      `json:"infer_timeout_seconds" yaml:"infer_timeout_seconds" toml:"infer_timeout_seconds"`
	AllowDegraded       bool       `json:"allow_degraded" yaml:"allow_degraded" toml:"allow_degraded"`
	LogLevel            string     `json:"log_level" yaml:"log_level" toml:"log_level"`
	CORS                CORSConfig `json:"cors" yaml:"cors" toml:"cors"`
	InstallCommand      string     `json:"install_command" yaml:"install_command" toml:"install_command"`
	MinGoVersion        string     `json:"min_go_version" yaml:"min_go_version" toml:"min_go_version"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
