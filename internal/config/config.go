// Application configuration loaded from YAML with flag overrides
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the complete application configuration.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Camera  CameraConfig  `yaml:"camera"`
	Render  RenderConfig  `yaml:"render"`
	Overlay OverlayConfig `yaml:"overlay"`
	Window  WindowConfig  `yaml:"window"`
}

// CameraConfig selects and sizes the capture device.
type CameraConfig struct {
	DeviceID int `yaml:"device_id"`
	Width    int `yaml:"width"`  // requested capture width, 0 keeps the driver default
	Height   int `yaml:"height"` // requested capture height, 0 keeps the driver default
}

// RenderConfig controls the compositing loop and initial blend values.
type RenderConfig struct {
	FPS             int       `yaml:"fps"`
	Workers         int       `yaml:"workers"`
	DistortionBound float64   `yaml:"distortion_bound"`
	Distortion      float64   `yaml:"distortion"`
	Transparency    float64   `yaml:"transparency"`
	ApplyAlphaMask  bool      `yaml:"apply_alpha_mask"`
	Invert          bool      `yaml:"invert"`
	Accent          []float64 `yaml:"accent"` // normalized RGB
}

// OverlayConfig limits overlay images.
type OverlayConfig struct {
	MaxDimension int    `yaml:"max_dimension"`
	Path         string `yaml:"path"` // optional overlay loaded at startup
}

// WindowConfig sizes the main window.
type WindowConfig struct {
	Width  float32 `yaml:"width"`
	Height float32 `yaml:"height"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			FPS:             30,
			DistortionBound: 2.0,
			Transparency:    0.5,
			Accent:          []float64{0.0235, 0.2235, 0.4392},
		},
		Overlay: OverlayConfig{
			MaxDimension: 4096,
		},
		Window: WindowConfig{
			Width:  1280,
			Height: 800,
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
