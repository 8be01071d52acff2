package canvas

import (
	"image/color"

	"solar-annotator/internal/boundary"
	"solar-annotator/pkg/geometry"
)

// Overlay is a set of polylines drawn over the image. Points are in image
// coordinates and are drawn through pixel centers.
type Overlay struct {
	Lines     [][]geometry.Point2D
	Color     color.RGBA
	Thickness int
	Closed    bool
}

// OutlineOverlays converts a traced outline into two overlays, the primary
// path and the secondary fragments, so they can be colored apart.
func OutlineOverlays(o boundary.Outline, primary, secondary color.RGBA) (*Overlay, *Overlay) {
	p := &Overlay{Color: primary, Thickness: 1}
	if len(o.Primary) > 0 {
		p.Lines = append(p.Lines, pathPoints(o.Primary))
	}
	s := &Overlay{Color: secondary, Thickness: 1}
	for _, frag := range o.Secondary {
		s.Lines = append(s.Lines, pathPoints(frag))
	}
	return p, s
}

func pathPoints(path boundary.Path) []geometry.Point2D {
	pts := make([]geometry.Point2D, len(path))
	for i, p := range path {
		pts[i] = p.ToFloat()
	}
	return pts
}
