package config

import (
	"fmt"
	"math"
	"runtime"
)

// Validate checks the configuration and fills derived defaults.
func Validate(cfg *Config) error {
	if cfg.Camera.DeviceID < 0 {
		return fmt.Errorf("camera.device_id must be >= 0")
	}
	if cfg.Camera.Width < 0 || cfg.Camera.Height < 0 {
		return fmt.Errorf("camera.width and camera.height must be >= 0")
	}

	if cfg.Render.FPS <= 0 || cfg.Render.FPS > 240 {
		return fmt.Errorf("render.fps must be in [1, 240], got %d", cfg.Render.FPS)
	}
	if cfg.Render.Workers < 0 {
		return fmt.Errorf("render.workers must be >= 0")
	}
	if cfg.Render.Workers == 0 {
		cfg.Render.Workers = runtime.GOMAXPROCS(0)
	}

	if !finite(cfg.Render.DistortionBound) || cfg.Render.DistortionBound <= 0 {
		return fmt.Errorf("render.distortion_bound must be > 0")
	}
	if !finite(cfg.Render.Distortion) || math.Abs(cfg.Render.Distortion) > cfg.Render.DistortionBound {
		return fmt.Errorf("render.distortion must be within ±%v", cfg.Render.DistortionBound)
	}
	if !finite(cfg.Render.Transparency) || cfg.Render.Transparency < 0 || cfg.Render.Transparency > 1 {
		return fmt.Errorf("render.transparency must be in [0, 1]")
	}

	if len(cfg.Render.Accent) != 3 {
		return fmt.Errorf("render.accent must have 3 components, got %d", len(cfg.Render.Accent))
	}
	for i, c := range cfg.Render.Accent {
		if !finite(c) || c < 0 || c > 1 {
			return fmt.Errorf("render.accent[%d] must be in [0, 1]", i)
		}
	}

	if cfg.Overlay.MaxDimension <= 0 {
		return fmt.Errorf("overlay.max_dimension must be > 0")
	}

	if cfg.Window.Width <= 0 {
		cfg.Window.Width = 1280
	}
	if cfg.Window.Height <= 0 {
		cfg.Window.Height = 800
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
