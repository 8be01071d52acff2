// Package lasso converts a freehand selection curve into the pixels it
// encloses.
package lasso

import (
	"math"

	"solar-annotator/pkg/geometry"
)

// edgeTolerance is the distance within which a pixel center counts as lying
// on the lasso outline.
const edgeTolerance = 1e-9

// Rasterize returns the pixels of a width x height image whose centers lie
// inside the closed polygon through vertices. Pixel (x, y) has its center at
// the point (x, y). The last vertex connects back to the first.
//
// Containment uses the even-odd rule; centers exactly on an edge are
// included. Fewer than three vertices or a polygon with zero area select
// nothing. Results are in row-major order.
func Rasterize(vertices []geometry.Point2D, width, height int) []geometry.PointInt {
	if len(vertices) < 3 || width <= 0 || height <= 0 {
		return nil
	}
	if math.Abs(geometry.PolygonArea(vertices)) < edgeTolerance {
		return nil
	}

	bb := geometry.BoundingBox(vertices)
	x0 := clamp(int(math.Ceil(bb.X-edgeTolerance)), 0, width-1)
	y0 := clamp(int(math.Ceil(bb.Y-edgeTolerance)), 0, height-1)
	x1 := clamp(int(math.Floor(bb.X+bb.Width+edgeTolerance)), 0, width-1)
	y1 := clamp(int(math.Floor(bb.Y+bb.Height+edgeTolerance)), 0, height-1)
	if bb.X+bb.Width < -edgeTolerance || bb.Y+bb.Height < -edgeTolerance ||
		bb.X > float64(width-1)+edgeTolerance || bb.Y > float64(height-1)+edgeTolerance {
		return nil
	}

	var pixels []geometry.PointInt
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			p := geometry.Point2D{X: float64(x), Y: float64(y)}
			if geometry.PointInPolygon(p, vertices) || geometry.PointOnPolygonEdge(p, vertices, edgeTolerance) {
				pixels = append(pixels, geometry.PointInt{X: x, Y: y})
			}
		}
	}
	return pixels
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
