// Package compositor blends a lens-distorted video frame with a contain-fit
// overlay image, optionally masked by the overlay's inverse luminance.
package compositor

import (
	"lens-overlay/internal/core"
)

// DefaultAccent is the indigo swatch painted where the alpha mask is opaque.
var DefaultAccent = core.Color{R: 0.0235, G: 0.2235, B: 0.4392, A: 1}

// BT.601 luma weights.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Luminance returns the BT.601 luma of c's RGB channels.
func Luminance(c core.Color) float64 {
	return lumaR*c.R + lumaG*c.G + lumaB*c.B
}

// Options configure an Engine.
type Options struct {
	// Accent replaces overlay RGB when the alpha mask is applied.
	Accent core.Color
	// Workers bounds the number of row bands rendered concurrently.
	Workers int
}

// Engine is the per-pixel compositor. It holds only immutable options, so a
// single Engine can serve any number of concurrent renders.
type Engine struct {
	accent  core.Color
	workers int
}

// New creates an Engine. A zero Accent selects DefaultAccent.
func New(opts Options) *Engine {
	accent := opts.Accent
	if accent == (core.Color{}) {
		accent = DefaultAccent
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Engine{accent: accent, workers: workers}
}

// Accent returns the mask color in use.
func (e *Engine) Accent() core.Color {
	return e.accent
}

// CompositePixel computes the output color at normalized coordinate p.
// overlay may be nil; it is only sampled when params.HasOverlay is set.
func (e *Engine) CompositePixel(p Point, params core.RenderParameters, out Size, video, overlay *core.Surface) core.Color {
	d := Distort(p, params.Distortion)
	result := video.Sample(d.X, d.Y)

	if params.HasOverlay && overlay != nil {
		result = e.blendOverlay(p, params, out, result, overlay)
	}

	if params.Invert {
		result.R = 1 - result.R
		result.G = 1 - result.G
		result.B = 1 - result.B
	}
	return result
}

// blendOverlay places the overlay with the undistorted coordinate and mixes
// it over videoColor.
func (e *Engine) blendOverlay(p Point, params core.RenderParameters, out Size, videoColor core.Color, overlay *core.Surface) core.Color {
	box := ContainBox(out, Size{Width: overlay.Width(), Height: overlay.Height()})
	q, ok := box.Map(p)
	if !ok {
		return videoColor
	}

	overlayColor := overlay.Sample(q.X, q.Y)
	if params.ApplyAlphaMask {
		overlayColor = e.maskColor(overlayColor)
	}

	return videoColor.Lerp(overlayColor, overlayColor.A*params.Transparency)
}

// maskColor turns dark overlay regions into opaque accent and light regions
// into transparency.
func (e *Engine) maskColor(c core.Color) core.Color {
	alpha := 1 - Luminance(c)
	if alpha < 0 {
		alpha = 0
	}
	return core.Color{R: e.accent.R, G: e.accent.G, B: e.accent.B, A: alpha}
}
