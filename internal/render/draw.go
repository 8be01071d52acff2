package render

import (
	"image"
	"image/color"

	"solar-annotator/internal/boundary"
	"solar-annotator/pkg/geometry"
)

// DrawLine draws a line between two points using Bresenham's algorithm.
// Points outside the image are clipped.
func DrawLine(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	bounds := output.Bounds()

	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy

	for {
		for t := -thickness / 2; t <= thickness/2; t++ {
			for s := -thickness / 2; s <= thickness/2; s++ {
				px, py := x1+s, y1+t
				if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
					output.SetRGBA(px, py, col)
				}
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// DrawPath draws consecutive points of a path as connected segments, scaled
// by zoom. A single-point path is drawn as a dot.
func DrawPath(output *image.RGBA, path []geometry.PointInt, col color.RGBA, thickness int, zoom float64) {
	if len(path) == 0 {
		return
	}
	if zoom <= 0 {
		zoom = 1
	}
	scale := func(p geometry.PointInt) (int, int) {
		return int(float64(p.X) * zoom), int(float64(p.Y) * zoom)
	}
	px, py := scale(path[0])
	if len(path) == 1 {
		DrawLine(output, px, py, px, py, col, thickness)
		return
	}
	for _, p := range path[1:] {
		x, y := scale(p)
		DrawLine(output, px, py, x, y, col, thickness)
		px, py = x, y
	}
}

// OutlineStyle sets the colors used for an outline.
type OutlineStyle struct {
	Primary   color.RGBA
	Secondary color.RGBA
	Thickness int
}

// DrawOutline draws the primary path and every secondary fragment.
func DrawOutline(output *image.RGBA, o boundary.Outline, style OutlineStyle, zoom float64) {
	DrawPath(output, o.Primary, style.Primary, style.Thickness, zoom)
	for _, frag := range o.Secondary {
		DrawPath(output, frag, style.Secondary, style.Thickness, zoom)
	}
}

// DrawPolyline draws image-space vertices, closing the shape when closed is
// set. It is used for the lasso while it is being dragged.
func DrawPolyline(output *image.RGBA, pts []geometry.Point2D, col color.RGBA, thickness int, zoom float64, closed bool) {
	if len(pts) < 2 {
		return
	}
	at := func(p geometry.Point2D) (int, int) {
		return int(p.X * zoom), int(p.Y * zoom)
	}
	for i := 1; i < len(pts); i++ {
		x1, y1 := at(pts[i-1])
		x2, y2 := at(pts[i])
		DrawLine(output, x1, y1, x2, y2, col, thickness)
	}
	if closed {
		x1, y1 := at(pts[len(pts)-1])
		x2, y2 := at(pts[0])
		DrawLine(output, x1, y1, x2, y2, col, thickness)
	}
}
