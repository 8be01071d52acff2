// Package boundary turns a region mask into ordered outline paths for
// display.
package boundary

import (
	"image"

	"solar-annotator/internal/region"
	"solar-annotator/pkg/geometry"

	"gocv.io/x/gocv"
)

// Path is one ordered fragment of an outline.
type Path []geometry.PointInt

// Outline is the result of tracing one region.
type Outline struct {
	Primary    Path
	Secondary  []Path
	Generation uint64 // copied from the traced mask
}

// Empty reports whether the outline has no points.
func (o Outline) Empty() bool {
	return len(o.Primary) == 0 && len(o.Secondary) == 0
}

// Paths returns the primary path followed by the secondary fragments.
func (o Outline) Paths() []Path {
	if len(o.Primary) == 0 {
		return o.Secondary
	}
	return append([]Path{o.Primary}, o.Secondary...)
}

// Len returns the total number of points over all fragments.
func (o Outline) Len() int {
	n := len(o.Primary)
	for _, p := range o.Secondary {
		n += len(p)
	}
	return n
}

// Tracer produces an outline for a region.
type Tracer interface {
	Trace(m *region.Mask) Outline
}

// Params holds the tuning constants of the tracers.
type Params struct {
	// Proximity is the largest Manhattan step allowed inside one fragment.
	Proximity int
	// MinRemaining stops fragment collection once this many or fewer
	// boundary pixels are left unassigned.
	MinRemaining int
	// MinContourLength drops ContourTracer pieces of this many points or
	// fewer.
	MinContourLength int
}

// DefaultParams returns the constants used by the annotation tool.
func DefaultParams() Params {
	return Params{
		Proximity:        5,
		MinRemaining:     5,
		MinContourLength: 5,
	}
}

// GreedyTracer orders boundary pixels by a nearest-neighbour walk.
//
// It is a heuristic rather than a contour follower: narrow necks and
// single-pixel noise can produce orderings that cut across the region.
// Finding the next pixel scans every unvisited pixel, so cost is quadratic
// in boundary length.
type GreedyTracer struct {
	Params Params
}

// NewGreedyTracer creates a tracer, falling back to defaults for unset
// parameters.
func NewGreedyTracer(p Params) *GreedyTracer {
	def := DefaultParams()
	if p.Proximity <= 0 {
		p.Proximity = def.Proximity
	}
	if p.MinRemaining < 0 {
		p.MinRemaining = def.MinRemaining
	}
	return &GreedyTracer{Params: p}
}

// Trace implements Tracer.
func (t *GreedyTracer) Trace(m *region.Mask) Outline {
	out := Outline{Generation: m.Generation}

	pixels := BoundaryPixels(m)
	if len(pixels) == 0 {
		return out
	}

	visited := make([]bool, len(pixels))
	remaining := len(pixels)

	walk := func(start int) Path {
		path := Path{pixels[start]}
		visited[start] = true
		remaining--
		cur := start
		for remaining > 0 {
			next, dist := nearest(pixels, visited, pixels[cur])
			if dist > t.Params.Proximity {
				break
			}
			path = append(path, pixels[next])
			visited[next] = true
			remaining--
			cur = next
		}
		return path
	}

	out.Primary = walk(0)
	last := out.Primary[len(out.Primary)-1]
	for remaining > t.Params.MinRemaining {
		start, _ := nearest(pixels, visited, last)
		frag := walk(start)
		out.Secondary = append(out.Secondary, frag)
		last = frag[len(frag)-1]
	}
	return out
}

// nearest returns the index of the unvisited pixel closest to p and its
// Manhattan distance. Ties go to the earliest pixel in row-major order.
func nearest(pixels []geometry.PointInt, visited []bool, p geometry.PointInt) (int, int) {
	best, bestDist := -1, int(^uint(0)>>1)
	for i, q := range pixels {
		if visited[i] {
			continue
		}
		if d := p.Manhattan(q); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

// BoundaryPixels returns the one-pixel-wide inner boundary of the mask in
// row-major order. Pixels on the outermost image rows and columns are
// removed first so regions touching the frame are not outlined along it.
// The boundary is the mask minus its erosion by a 3x3 cross.
func BoundaryPixels(m *region.Mask) []geometry.PointInt {
	inner := interior(m)
	if inner == nil {
		return nil
	}

	src, err := inner.ToMat()
	if err != nil {
		return nil
	}
	defer src.Close()

	kernel := gocv.GetStructuringElement(gocv.MorphCross, image.Point{X: 3, Y: 3})
	defer kernel.Close()

	eroded := gocv.NewMat()
	defer eroded.Close()
	gocv.Erode(src, &eroded, kernel)

	kept := eroded.ToBytes()
	var out []geometry.PointInt
	for i, b := range inner.Bits {
		if !b {
			continue
		}
		if kept[i] == 0 {
			x, y := i%inner.Width, i/inner.Width
			out = append(out, geometry.PointInt{X: x, Y: y})
		}
	}
	return out
}

// interior returns a copy of the mask with the outermost rows and columns
// cleared, or nil when nothing is left.
func interior(m *region.Mask) *region.Mask {
	if m.Width < 3 || m.Height < 3 {
		return nil
	}
	inner := m.Clone()
	for x := 0; x < inner.Width; x++ {
		inner.Set(x, 0, false)
		inner.Set(x, inner.Height-1, false)
	}
	for y := 0; y < inner.Height; y++ {
		inner.Set(0, y, false)
		inner.Set(inner.Width-1, y, false)
	}
	if inner.Count() == 0 {
		return nil
	}
	return inner
}
