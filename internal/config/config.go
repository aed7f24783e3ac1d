// Package config provides configuration loading for both the desktop editor
// and the HTTP service. It reads an optional YAML file, applies environment
// overrides and validates the result.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "region-obliterator.yaml"

// Config represents the application configuration loaded from YAML
type Config struct {
	Log struct {
		// Level is one of debug, info, warn, error
		Level string `yaml:"level"`

		// Console selects human-readable output instead of JSON lines
		Console bool `yaml:"console"`
	} `yaml:"log"`

	Server struct {
		Addr string `yaml:"addr"`

		// MaxBodyBytes caps request bodies; 0 leaves them unbounded
		MaxBodyBytes int64 `yaml:"max_body_bytes"`

		// RequestTimeout bounds processing per request; 0 disables it
		RequestTimeout time.Duration `yaml:"request_timeout"`

		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`

	Blur struct {
		KernelSize int    `yaml:"kernel_size"`
		Engine     string `yaml:"engine"`
	} `yaml:"blur"`

	Inpaint struct {
		Radius float32 `yaml:"radius"`
	} `yaml:"inpaint"`

	Mask struct {
		// A mask pixel is selected when its value exceeds the threshold.
		ServiceThreshold     int `yaml:"service_threshold"`
		InteractiveThreshold int `yaml:"interactive_threshold"`
	} `yaml:"mask"`

	Editor struct {
		BrushSize    int    `yaml:"brush_size"`
		BrushMin     int    `yaml:"brush_min"`
		BrushMax     int    `yaml:"brush_max"`
		BrushStep    int    `yaml:"brush_step"`
		OutputPath   string `yaml:"output_path"`
		OverlayColor string `yaml:"overlay_color"`
	} `yaml:"editor"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Log.Level = "info"
	cfg.Log.Console = true

	cfg.Server.Addr = ":5000"
	cfg.Server.CORSOrigins = []string{"*"}

	cfg.Blur.KernelSize = 35
	cfg.Blur.Engine = "opencv"

	cfg.Inpaint.Radius = 3

	cfg.Mask.ServiceThreshold = 127
	cfg.Mask.InteractiveThreshold = 0

	cfg.Editor.BrushSize = 20
	cfg.Editor.BrushMin = 5
	cfg.Editor.BrushMax = 100
	cfg.Editor.BrushStep = 5
	cfg.Editor.OutputPath = filepath.Join("output", "output.jpg")
	cfg.Editor.OverlayColor = "#ff0000"

	return cfg
}

// Load reads configPath (defaults when it does not exist), applies
// environment overrides and validates.
func Load(configPath string) (*Config, error) {
	cfg, err := LoadFile(configPath)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFile loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadFile(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overlays LOG_LEVEL, DEBUG and PORT.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if level := getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if getenv("DEBUG") == "1" {
		c.Log.Level = "debug"
	}
	if port := getenv("PORT"); port != "" {
		c.Server.Addr = ":" + strings.TrimPrefix(port, ":")
	}
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server address is empty")
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("max_body_bytes must not be negative")
	}
	if c.Server.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}

	if c.Blur.KernelSize <= 0 {
		return fmt.Errorf("blur kernel_size must be positive, got %d", c.Blur.KernelSize)
	}
	switch c.Blur.Engine {
	case "opencv", "bild":
	default:
		return fmt.Errorf("unknown blur engine %q", c.Blur.Engine)
	}

	if c.Inpaint.Radius <= 0 {
		return fmt.Errorf("inpaint radius must be positive, got %v", c.Inpaint.Radius)
	}

	for name, v := range map[string]int{
		"service_threshold":     c.Mask.ServiceThreshold,
		"interactive_threshold": c.Mask.InteractiveThreshold,
	} {
		if v < 0 || v > 255 {
			return fmt.Errorf("mask %s must be within [0,255], got %d", name, v)
		}
	}

	e := c.Editor
	if e.BrushMin <= 0 || e.BrushMax < e.BrushMin {
		return fmt.Errorf("brush range [%d,%d] is invalid", e.BrushMin, e.BrushMax)
	}
	if e.BrushStep <= 0 {
		return fmt.Errorf("brush step must be positive, got %d", e.BrushStep)
	}
	if e.BrushSize < e.BrushMin || e.BrushSize > e.BrushMax {
		return fmt.Errorf("brush size %d outside [%d,%d]", e.BrushSize, e.BrushMin, e.BrushMax)
	}
	if e.OutputPath == "" {
		return fmt.Errorf("editor output_path is empty")
	}
	if _, err := colorful.Hex(e.OverlayColor); err != nil {
		return fmt.Errorf("overlay_color %q: %w", e.OverlayColor, err)
	}

	return nil
}

// Save writes the configuration to a YAML file
func Save(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
