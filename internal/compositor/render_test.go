package compositor

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lens-overlay/internal/core"
)

func solidNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestRenderRedFrameWithoutOverlay(t *testing.T) {
	e := New(Options{Workers: 4})
	video := uniform(t, 64, 48, red)
	dst, err := core.NewSurface(64, 48)
	require.NoError(t, err)

	params := core.RenderParameters{Distortion: 0.15, Transparency: 0.8, ApplyAlphaMask: true}
	require.NoError(t, e.Render(context.Background(), dst, params, video, nil))

	want := color.NRGBA{R: 255, A: 255}
	for y := 0; y < dst.Height(); y++ {
		for x := 0; x < dst.Width(); x++ {
			require.Equal(t, want, dst.Image().NRGBAAt(x, y), "pixel %d,%d", x, y)
		}
	}
}

func TestRenderPillarboxedMaskOverBlue(t *testing.T) {
	e := New(Options{Workers: 3})
	video := uniform(t, 200, 100, blue)
	overlay := uniform(t, 100, 100, core.Black)
	dst, err := core.NewSurface(200, 100)
	require.NoError(t, err)

	params := core.RenderParameters{HasOverlay: true, ApplyAlphaMask: true, Transparency: 1}
	require.NoError(t, e.Render(context.Background(), dst, params, video, overlay))

	accent := DefaultAccent.ToNRGBA()
	pureBlue := color.NRGBA{B: 255, A: 255}
	for y := 0; y < dst.Height(); y++ {
		for x := 0; x < dst.Width(); x++ {
			u := (float64(x) + 0.5) / 200
			want := pureBlue
			if u >= 0.25 && u <= 0.75 {
				want = accent
			}
			require.Equal(t, want, dst.Image().NRGBAAt(x, y), "pixel %d,%d", x, y)
		}
	}
	assert.Equal(t, color.NRGBA{R: 6, G: 57, B: 112, A: 255}, accent)
}

func TestRenderMatchesSingleThreaded(t *testing.T) {
	video := gradient(t, 37, 53)
	overlay := gradient(t, 11, 7)
	params := core.RenderParameters{Distortion: 0.7, HasOverlay: true, Transparency: 0.6}

	parallel, err := core.NewSurface(37, 53)
	require.NoError(t, err)
	serial, err := core.NewSurface(37, 53)
	require.NoError(t, err)

	require.NoError(t, New(Options{Workers: 8}).Render(context.Background(), parallel, params, video, overlay))
	New(Options{}).RenderPixels(serial, params, video, overlay)

	assert.Equal(t, serial.Image().Pix, parallel.Image().Pix)
}

func TestRenderIgnoresOverlayWhenFlagUnset(t *testing.T) {
	e := New(Options{})
	video := uniform(t, 4, 4, red)
	overlay := uniform(t, 4, 4, core.Black)
	dst, err := core.NewSurface(4, 4)
	require.NoError(t, err)

	require.NoError(t, e.Render(context.Background(), dst, core.RenderParameters{Transparency: 1}, video, overlay))
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, dst.Image().NRGBAAt(2, 2))
}

func TestRenderCancelled(t *testing.T) {
	e := New(Options{})
	video := uniform(t, 4, 64, red)
	dst, err := core.NewSurface(4, 64)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, e.Render(ctx, dst, core.RenderParameters{}, video, nil), context.Canceled)
}

func TestRenderRejectsNilSurfaces(t *testing.T) {
	e := New(Options{})
	dst, err := core.NewSurface(2, 2)
	require.NoError(t, err)
	assert.Error(t, e.Render(context.Background(), dst, core.RenderParameters{}, nil, nil))
	assert.Error(t, e.Render(context.Background(), nil, core.RenderParameters{}, dst, nil))
}

func TestBandsCoverAllRows(t *testing.T) {
	e := New(Options{Workers: 3})
	for _, h := range []int{1, 15, 16, 17, 100, 1080} {
		bands := e.bands(h)
		next := 0
		for _, b := range bands {
			assert.Equal(t, next, b[0])
			assert.Greater(t, b[1], b[0])
			next = b[1]
		}
		assert.Equal(t, h, next)
	}
}
