package compositor

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"lens-overlay/internal/core"
)

// minBandRows keeps bands large enough that scheduling cost stays negligible.
const minBandRows = 16

var errNilSurface = errors.New("render: nil surface")

// Render evaluates CompositePixel at every pixel center of dst. Rows are split
// into bands rendered concurrently; cancellation is checked between bands.
// video and overlay are only read for the duration of the call.
func (e *Engine) Render(ctx context.Context, dst *core.Surface, params core.RenderParameters, video, overlay *core.Surface) error {
	if dst == nil || video == nil {
		return errNilSurface
	}

	out := Size{Width: dst.Width(), Height: dst.Height()}
	if !params.HasOverlay {
		overlay = nil
	}

	bands := e.bands(out.Height)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, band := range bands {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			e.renderRows(dst, band[0], band[1], out, params, video, overlay)
			return nil
		})
	}
	return g.Wait()
}

// RenderPixels is the single-goroutine variant of Render.
func (e *Engine) RenderPixels(dst *core.Surface, params core.RenderParameters, video, overlay *core.Surface) {
	out := Size{Width: dst.Width(), Height: dst.Height()}
	if !params.HasOverlay {
		overlay = nil
	}
	e.renderRows(dst, 0, out.Height, out, params, video, overlay)
}

func (e *Engine) renderRows(dst *core.Surface, y0, y1 int, out Size, params core.RenderParameters, video, overlay *core.Surface) {
	img := dst.Image()
	w := float64(out.Width)
	h := float64(out.Height)

	for y := y0; y < y1; y++ {
		v := (float64(y) + 0.5) / h
		row := img.Pix[img.PixOffset(0, y):]
		for x := 0; x < out.Width; x++ {
			p := Point{X: (float64(x) + 0.5) / w, Y: v}
			c := e.CompositePixel(p, params, out, video, overlay).ToNRGBA()
			i := x * 4
			row[i+0] = c.R
			row[i+1] = c.G
			row[i+2] = c.B
			row[i+3] = c.A
		}
	}
}

// bands splits height rows into at most 4*workers contiguous [start,end) ranges.
func (e *Engine) bands(height int) [][2]int {
	n := e.workers * 4
	rows := (height + n - 1) / n
	if rows < minBandRows {
		rows = minBandRows
	}

	out := make([][2]int, 0, (height+rows-1)/rows)
	for y := 0; y < height; y += rows {
		end := y + rows
		if end > height {
			end = height
		}
		out = append(out, [2]int{y, end})
	}
	return out
}
