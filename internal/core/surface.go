// Pixel surfaces sampled by normalized coordinate
package core

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// MaxSurfaceDimension bounds either side of a surface.
const MaxSurfaceDimension = 16384

// Color is a non-premultiplied RGBA color with channels normalized to [0,1].
type Color struct {
	R, G, B, A float64
}

// Black is opaque black.
var Black = Color{0, 0, 0, 1}

// Lerp returns c*(1-t) + o*t on all four channels.
func (c Color) Lerp(o Color, t float64) Color {
	return Color{
		R: c.R + (o.R-c.R)*t,
		G: c.G + (o.G-c.G)*t,
		B: c.B + (o.B-c.B)*t,
		A: c.A + (o.A-c.A)*t,
	}
}

// ToNRGBA converts to 8 bit channels with rounding.
func (c Color) ToNRGBA() color.NRGBA {
	return color.NRGBA{
		R: to8(c.R),
		G: to8(c.G),
		B: to8(c.B),
		A: to8(c.A),
	}
}

func to8(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Surface is a 2D NRGBA pixel buffer sampleable by normalized coordinate.
// Sampling uses bilinear filtering with clamp-to-edge addressing.
type Surface struct {
	img *image.NRGBA
}

// NewSurface allocates a transparent surface of the given size.
func NewSurface(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface dimensions: %dx%d", width, height)
	}
	if width > MaxSurfaceDimension || height > MaxSurfaceDimension {
		return nil, fmt.Errorf("surface too large: %dx%d (max: %d)", width, height, MaxSurfaceDimension)
	}
	return &Surface{img: image.NewNRGBA(image.Rect(0, 0, width, height))}, nil
}

// SurfaceFromImage copies any image into a new surface anchored at (0,0).
func SurfaceFromImage(src image.Image) (*Surface, error) {
	b := src.Bounds()
	s, err := NewSurface(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	draw.Copy(s.img, image.Point{}, src, b, draw.Src, nil)
	return s, nil
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int { return s.img.Rect.Dx() }

// Height returns the surface height in pixels.
func (s *Surface) Height() int { return s.img.Rect.Dy() }

// Aspect returns width/height.
func (s *Surface) Aspect() float64 {
	return float64(s.Width()) / float64(s.Height())
}

// Image exposes the backing buffer. Callers must not retain it past the
// lifetime of the surface they borrowed.
func (s *Surface) Image() *image.NRGBA { return s.img }

// At returns the pixel at integer coordinates, clamped to the surface edge.
func (s *Surface) At(x, y int) Color {
	x = clampInt(x, 0, s.Width()-1)
	y = clampInt(y, 0, s.Height()-1)
	i := s.img.PixOffset(x, y)
	p := s.img.Pix[i : i+4 : i+4]
	return Color{
		R: float64(p[0]) / 255,
		G: float64(p[1]) / 255,
		B: float64(p[2]) / 255,
		A: float64(p[3]) / 255,
	}
}

// Set writes the pixel at integer coordinates. Out of range writes are ignored.
func (s *Surface) Set(x, y int, c Color) {
	if x < 0 || y < 0 || x >= s.Width() || y >= s.Height() {
		return
	}
	s.img.SetNRGBA(x, y, c.ToNRGBA())
}

// Fill sets every pixel to c.
func (s *Surface) Fill(c Color) {
	n := c.ToNRGBA()
	pix := s.img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i+0] = n.R
		pix[i+1] = n.G
		pix[i+2] = n.B
		pix[i+3] = n.A
	}
}

// Sample reads the surface at normalized (u, v), where (0,0) is the top-left
// corner of the first pixel and (1,1) the bottom-right corner of the last.
// Coordinates outside [0,1] are clamped to the edge before lookup.
func (s *Surface) Sample(u, v float64) Color {
	u = clampFloat(u, 0, 1)
	v = clampFloat(v, 0, 1)

	w, h := s.Width(), s.Height()
	fx := u*float64(w) - 0.5
	fy := v*float64(h) - 0.5

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	c00 := s.At(x0, y0)
	c10 := s.At(x0+1, y0)
	c01 := s.At(x0, y0+1)
	c11 := s.At(x0+1, y0+1)

	top := c00.Lerp(c10, tx)
	bottom := c01.Lerp(c11, tx)
	return top.Lerp(bottom, ty)
}

// Clone returns a deep copy.
func (s *Surface) Clone() *Surface {
	img := image.NewNRGBA(s.img.Rect)
	copy(img.Pix, s.img.Pix)
	return &Surface{img: img}
}

// CloneOpaque returns a deep copy with every alpha set to 255.
func (s *Surface) CloneOpaque() *Surface {
	c := s.Clone()
	pix := c.img.Pix
	for i := 3; i < len(pix); i += 4 {
		pix[i] = 255
	}
	return c
}

// FitSize returns the size a width x height image scales to so that neither
// side exceeds maxDim, preserving the aspect ratio.
func FitSize(width, height, maxDim int) (int, int) {
	if maxDim <= 0 || (width <= maxDim && height <= maxDim) {
		return width, height
	}
	scale := float64(maxDim) / float64(max(width, height))
	return max(1, int(math.Round(float64(width)*scale))), max(1, int(math.Round(float64(height)*scale)))
}

// ScaleToFit returns a copy no larger than maxDim on either side, preserving
// the aspect ratio. Surfaces already within bounds are returned unchanged.
func (s *Surface) ScaleToFit(maxDim int) *Surface {
	w, h := s.Width(), s.Height()
	nw, nh := FitSize(w, h, maxDim)
	if nw == w && nh == h {
		return s
	}

	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Rect, s.img, s.img.Rect, draw.Src, nil)
	return &Surface{img: dst}
}

// SameSize reports whether both surfaces have identical dimensions.
func (s *Surface) SameSize(o *Surface) bool {
	return o != nil && s.Width() == o.Width() && s.Height() == o.Height()
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo || math.IsNaN(v) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
