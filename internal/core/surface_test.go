package core

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quadrantSurface(t *testing.T) *Surface {
	t.Helper()
	s, err := NewSurface(2, 2)
	require.NoError(t, err)
	s.Set(0, 0, Color{1, 0, 0, 1}) // red
	s.Set(1, 0, Color{0, 1, 0, 1}) // green
	s.Set(0, 1, Color{0, 0, 1, 1}) // blue
	s.Set(1, 1, Color{1, 1, 0, 1}) // yellow
	return s
}

func TestNewSurfaceRejectsInvalidDimensions(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"zero width", 0, 10},
		{"zero height", 10, 0},
		{"negative", -1, 5},
		{"too large", MaxSurfaceDimension + 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSurface(tt.w, tt.h)
			assert.Error(t, err)
		})
	}
}

func TestSampleAtPixelCentersIsExact(t *testing.T) {
	s := quadrantSurface(t)

	assert.Equal(t, s.At(0, 0).ToNRGBA(), s.Sample(0.25, 0.25).ToNRGBA())
	assert.Equal(t, s.At(1, 0).ToNRGBA(), s.Sample(0.75, 0.25).ToNRGBA())
	assert.Equal(t, s.At(0, 1).ToNRGBA(), s.Sample(0.25, 0.75).ToNRGBA())
	assert.Equal(t, s.At(1, 1).ToNRGBA(), s.Sample(0.75, 0.75).ToNRGBA())
}

func TestSampleInterpolatesBetweenCenters(t *testing.T) {
	s := quadrantSurface(t)

	c := s.Sample(0.5, 0.25)
	assert.InDelta(t, 0.5, c.R, 1e-9)
	assert.InDelta(t, 0.5, c.G, 1e-9)
	assert.InDelta(t, 0.0, c.B, 1e-9)
}

func TestSampleClampsToEdge(t *testing.T) {
	s := quadrantSurface(t)

	tests := []struct {
		name     string
		u, v     float64
		edgeU    float64
		edgeV    float64
	}{
		{"before top-left", -0.5, -0.5, 0, 0},
		{"after bottom-right", 1.5, 1.5, 1, 1},
		{"left of middle", -0.1, 0.5, 0, 0.5},
		{"right of middle", 1.1, 0.5, 1, 0.5},
		{"far above", 0.3, -40, 0.3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sample(tt.u, tt.v)
			want := s.Sample(tt.edgeU, tt.edgeV)
			assert.Equal(t, want, got)
			assert.Equal(t, 1.0, got.A, "clamped samples must stay opaque")
		})
	}
}

func TestSurfaceFromImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 13, 12))
	for y := 10; y < 12; y++ {
		for x := 10; x < 13; x++ {
			src.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	s, err := SurfaceFromImage(src)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Width())
	assert.Equal(t, 2, s.Height())
	assert.Equal(t, color.NRGBA{R: 200, G: 100, B: 50, A: 255}, s.At(0, 0).ToNRGBA())
	assert.InDelta(t, 1.5, s.Aspect(), 1e-12)
}

func TestFillAndClone(t *testing.T) {
	s, err := NewSurface(4, 3)
	require.NoError(t, err)
	s.Fill(Color{1, 0, 0, 1})

	c := s.Clone()
	s.Fill(Black)

	assert.Equal(t, color.NRGBA{R: 255, A: 255}, c.At(3, 2).ToNRGBA())
	assert.Equal(t, color.NRGBA{A: 255}, s.At(3, 2).ToNRGBA())
	assert.True(t, s.SameSize(c))
}

func TestColorToNRGBARounds(t *testing.T) {
	c := Color{0.0235, 0.2235, 0.4392, 1}
	assert.Equal(t, color.NRGBA{R: 6, G: 57, B: 112, A: 255}, c.ToNRGBA())
	assert.Equal(t, color.NRGBA{}, Color{-1, -0.1, 0, 0}.ToNRGBA())
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, Color{2, 1, 1.5, 1}.ToNRGBA())
}

func TestScaleToFit(t *testing.T) {
	s, err := NewSurface(400, 100)
	require.NoError(t, err)
	s.Fill(Color{0, 1, 0, 1})

	assert.Same(t, s, s.ScaleToFit(400))
	assert.Same(t, s, s.ScaleToFit(0))

	small := s.ScaleToFit(100)
	assert.Equal(t, 100, small.Width())
	assert.Equal(t, 25, small.Height())
	c := small.At(50, 12)
	assert.InDelta(t, 1.0, c.G, 0.01)
	assert.InDelta(t, 0.0, c.R, 0.01)
	assert.InDelta(t, 1.0, c.A, 0.01)
}

func TestCloneOpaque(t *testing.T) {
	s, err := NewSurface(2, 1)
	require.NoError(t, err)
	s.Set(0, 0, Color{0.2, 0.4, 0.6, 0.75})

	o := s.CloneOpaque()
	assert.Equal(t, color.NRGBA{51, 102, 153, 255}, o.Image().NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{A: 255}, o.Image().NRGBAAt(1, 0))
	assert.Equal(t, uint8(191), s.Image().NRGBAAt(0, 0).A, "source is untouched")
}

func TestFitSize(t *testing.T) {
	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{400, 100, 0, 400, 100},
		{400, 100, 400, 400, 100},
		{400, 100, 100, 100, 25},
		{100, 400, 100, 25, 100},
		{1000, 1, 10, 10, 1},
	}
	for _, tt := range tests {
		w, h := FitSize(tt.w, tt.h, tt.max)
		assert.Equal(t, tt.wantW, w, "%dx%d max %d", tt.w, tt.h, tt.max)
		assert.Equal(t, tt.wantH, h, "%dx%d max %d", tt.w, tt.h, tt.max)
	}
}
