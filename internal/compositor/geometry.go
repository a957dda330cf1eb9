package compositor

// Point is a normalized coordinate in [0,1]x[0,1] output space.
type Point struct {
	X, Y float64
}

// Size is a pixel extent.
type Size struct {
	Width, Height int
}

// Aspect returns width/height.
func (s Size) Aspect() float64 {
	return float64(s.Width) / float64(s.Height)
}

// Distort applies the single-term radial model around the frame center:
//
//	centered  = p - 0.5
//	r2        = dot(centered, centered)
//	distorted = centered * (1 + k*r2) + 0.5
//
// Positive k pushes samples outward, so the rendered image contracts toward
// the center (barrel look); negative k pulls samples inward (pincushion look).
func Distort(p Point, k float64) Point {
	if k == 0 {
		return p
	}
	cx := p.X - 0.5
	cy := p.Y - 0.5
	f := 1 + k*(cx*cx+cy*cy)
	return Point{X: cx*f + 0.5, Y: cy*f + 0.5}
}

// Box is the contain-fit placement of an overlay inside the output.
type Box struct {
	Scale  Point
	Offset Point
}

// ContainBox fits the overlay inside the canvas preserving the overlay aspect
// ratio, centered on the axis that does not match (object-fit: contain).
func ContainBox(canvas, overlay Size) Box {
	canvasAspect := canvas.Aspect()
	overlayAspect := overlay.Aspect()

	if canvasAspect > overlayAspect {
		// pillarbox
		sx := overlayAspect / canvasAspect
		return Box{
			Scale:  Point{X: sx, Y: 1},
			Offset: Point{X: (1 - sx) / 2, Y: 0},
		}
	}
	// letterbox
	sy := canvasAspect / overlayAspect
	return Box{
		Scale:  Point{X: 1, Y: sy},
		Offset: Point{X: 0, Y: (1 - sy) / 2},
	}
}

// Map converts an output coordinate into overlay space. ok is false when the
// coordinate falls outside the box on either axis.
func (b Box) Map(p Point) (Point, bool) {
	q := Point{
		X: (p.X - b.Offset.X) / b.Scale.X,
		Y: (p.Y - b.Offset.Y) / b.Scale.Y,
	}
	if q.X < 0 || q.X > 1 || q.Y < 0 || q.Y > 1 {
		return q, false
	}
	return q, true
}

// Area returns the fraction of the canvas covered by the box.
func (b Box) Area() float64 {
	return b.Scale.X * b.Scale.Y
}
