// Package config handles runtime settings and the YAML data files posekit
// reads: the bone table and the rig definition.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/viper"

	"github.com/f3rmion/posekit/internal/imageio"
	"github.com/f3rmion/posekit/internal/orient"
)

// Config holds all runtime settings.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Detector DetectorConfig `mapstructure:"detector" yaml:"detector"`
	Extract  ExtractConfig  `mapstructure:"extract" yaml:"extract"`
	Apply    ApplyConfig    `mapstructure:"apply" yaml:"apply"`
	Scene    SceneConfig    `mapstructure:"scene" yaml:"scene"`
	Batch    BatchConfig    `mapstructure:"batch" yaml:"batch"`
}

// LoggerConfig controls the global zap logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"` // "console" or "json"
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"` // empty disables the file sink
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig names the console color for each level.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
}

// DetectorConfig selects and configures the landmark detector.
type DetectorConfig struct {
	Kind          string        `mapstructure:"kind" yaml:"kind"` // "sidecar" or "http"
	Endpoint      string        `mapstructure:"endpoint" yaml:"endpoint"`
	Token         string        `mapstructure:"token" yaml:"token"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	SidecarSuffix string        `mapstructure:"sidecar_suffix" yaml:"sidecar_suffix"`
	MinConfidence float64       `mapstructure:"min_confidence" yaml:"min_confidence"`
}

// ExtractConfig holds pose extraction defaults.
type ExtractConfig struct {
	Bones    string `mapstructure:"bones" yaml:"bones"` // empty uses the built-in table
	Rotation string `mapstructure:"rotation" yaml:"rotation"`
	Strict   bool   `mapstructure:"strict" yaml:"strict"`
}

// ApplyConfig holds pose application defaults.
type ApplyConfig struct {
	Strict bool `mapstructure:"strict" yaml:"strict"`
}

// SceneConfig locates the scene document.
type SceneConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
	Rig  string `mapstructure:"rig" yaml:"rig"` // empty uses the built-in rig
}

// BatchConfig controls directory extraction.
type BatchConfig struct {
	Workers    int      `mapstructure:"workers" yaml:"workers"`
	Extensions []string `mapstructure:"extensions" yaml:"extensions"`
}

// SetDefaults registers every default with v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "posekit")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("logger.compress", false)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	v.SetDefault("detector.kind", "sidecar")
	v.SetDefault("detector.endpoint", "")
	v.SetDefault("detector.token", "")
	v.SetDefault("detector.timeout", "30s")
	v.SetDefault("detector.sidecar_suffix", ".landmarks.json")
	v.SetDefault("detector.min_confidence", 0.5)

	v.SetDefault("extract.bones", "")
	v.SetDefault("extract.rotation", string(orient.ModeSimilarity))
	v.SetDefault("extract.strict", false)

	v.SetDefault("apply.strict", false)

	v.SetDefault("scene.path", "scene.db")
	v.SetDefault("scene.rig", "")

	v.SetDefault("batch.workers", 4)
	v.SetDefault("batch.extensions", slices.Clone(imageio.Extensions))
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	switch c.Logger.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logger.format must be console or json, got %q", c.Logger.Format)
	}

	switch c.Detector.Kind {
	case "sidecar":
		if c.Detector.SidecarSuffix == "" {
			return fmt.Errorf("detector.sidecar_suffix is required for the sidecar detector")
		}
	case "http":
		if c.Detector.Endpoint == "" {
			return fmt.Errorf("detector.endpoint is required for the http detector")
		}
	default:
		return fmt.Errorf("detector.kind must be sidecar or http, got %q", c.Detector.Kind)
	}
	if c.Detector.Timeout <= 0 {
		return fmt.Errorf("detector.timeout must be positive")
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		return fmt.Errorf("detector.min_confidence must be between 0.0 and 1.0")
	}

	if _, err := orient.ParseMode(c.Extract.Rotation); err != nil {
		return fmt.Errorf("extract.rotation: %w", err)
	}

	if c.Scene.Path == "" {
		return fmt.Errorf("scene.path is required")
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("batch.workers must be a positive integer")
	}
	return nil
}

// GetConfigDir returns the per-user configuration directory.
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "posekit"), nil
}
