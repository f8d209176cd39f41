// Package config holds the application configuration for leafscan and its
// loading from files, environment variables, and command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/verdantis/leafscan/internal/models"
	"github.com/verdantis/leafscan/internal/pipeline"
)

// Config represents the complete configuration for the leafscan application.
// It covers all commands (classify, labels, serve) and supports loading from
// configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	ModelsDir string `mapstructure:"models_dir" yaml:"models_dir" json:"models_dir"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Pipeline configuration
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// PipelineConfig contains classification pipeline settings.
type PipelineConfig struct {
	Classifier ClassifierConfig `mapstructure:"classifier" yaml:"classifier" json:"classifier"`
	LabelsPath string           `mapstructure:"labels_path" yaml:"labels_path" json:"labels_path"`
	Threshold  float64          `mapstructure:"threshold" yaml:"threshold" json:"threshold"`
	TopN       int              `mapstructure:"top_n" yaml:"top_n" json:"top_n"`
}

// ClassifierConfig contains ONNX classifier settings.
type ClassifierConfig struct {
	ModelPath      string `mapstructure:"model_path" yaml:"model_path" json:"model_path"`
	UseServerModel bool   `mapstructure:"use_server_model" yaml:"use_server_model" json:"use_server_model"`
	NumThreads     int    `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
	Warmup         bool   `mapstructure:"warmup" yaml:"warmup" json:"warmup"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format              string `mapstructure:"format" yaml:"format" json:"format"`
	File                string `mapstructure:"file" yaml:"file" json:"file"`
	ConfidencePrecision int    `mapstructure:"confidence_precision" yaml:"confidence_precision" json:"confidence_precision"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ModelsDir: models.DefaultModelsDir,
		LogLevel:  "info",
		Verbose:   false,
		Pipeline: PipelineConfig{
			Classifier: defaultClassifierConfig(),
			Threshold:  pipeline.DefaultThreshold,
			TopN:       pipeline.DefaultTopN,
		},
		Output: OutputConfig{
			Format:              "text",
			ConfidencePrecision: 3,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     20,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
		},
	}
}

// defaultClassifierConfig mirrors classifier.DefaultConfig.
func defaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		UseServerModel: false,
		NumThreads:     0,
		Warmup:         false,
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json", "csv"}
	if c.Output.Format != "" && !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	if err := validateThreshold(c.Pipeline.Threshold, "pipeline.threshold"); err != nil {
		return err
	}
	if c.Pipeline.TopN <= 0 {
		return fmt.Errorf("invalid top_n: %d (must be positive)", c.Pipeline.TopN)
	}
	if c.Pipeline.Classifier.NumThreads < 0 {
		return fmt.Errorf("invalid classifier num_threads: %d (must not be negative)", c.Pipeline.Classifier.NumThreads)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}

	return nil
}

// ToPipelineConfig converts the config to the internal pipeline configuration format.
func (c *Config) ToPipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.ModelsDir = models.GetModelsDir(c.ModelsDir)
	cfg.Threshold = c.Pipeline.Threshold
	cfg.TopN = c.Pipeline.TopN
	cfg.Classifier.UseServerModel = c.Pipeline.Classifier.UseServerModel
	cfg.Classifier.NumThreads = c.Pipeline.Classifier.NumThreads
	cfg.Classifier.EnableWarmup = c.Pipeline.Classifier.Warmup
	cfg.Classifier.UpdateModelPath(cfg.ModelsDir)
	if c.Pipeline.Classifier.ModelPath != "" {
		cfg.Classifier.ModelPath = c.Pipeline.Classifier.ModelPath
	}
	cfg.LabelsPath = models.GetLabelsPath(cfg.ModelsDir, models.LabelsPlantVillage)
	if c.Pipeline.LabelsPath != "" {
		cfg.LabelsPath = c.Pipeline.LabelsPath
	}
	return cfg
}

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// validateThreshold validates that a value is between 0.0 and 1.0.
func validateThreshold(value float64, name string) error {
	if value < 0.0 || value > 1.0 {
		return fmt.Errorf("invalid %s: %.2f (must be between 0.0 and 1.0)", name, value)
	}
	return nil
}
