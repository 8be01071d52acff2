package boundary

import (
	"sort"

	"solar-annotator/internal/region"
	"solar-annotator/pkg/geometry"

	"gocv.io/x/gocv"
)

// ContourTracer follows the outer contours of the mask with OpenCV. Unlike
// GreedyTracer it yields true closed contours, one per connected piece,
// longest first. Pieces with MinLength points or fewer are dropped.
type ContourTracer struct {
	MinLength int
}

// Trace implements Tracer.
func (t *ContourTracer) Trace(m *region.Mask) Outline {
	out := Outline{Generation: m.Generation}

	inner := interior(m)
	if inner == nil {
		return out
	}
	src, err := inner.ToMat()
	if err != nil {
		return out
	}
	defer src.Close()

	contours := gocv.FindContours(src, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer contours.Close()

	var paths []Path
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		if contour.Size() <= t.MinLength {
			continue
		}
		path := make(Path, 0, contour.Size())
		for j := 0; j < contour.Size(); j++ {
			pt := contour.At(j)
			path = append(path, geometry.PointInt{X: pt.X, Y: pt.Y})
		}
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		return out
	}

	sort.SliceStable(paths, func(i, j int) bool { return len(paths[i]) > len(paths[j]) })
	out.Primary = paths[0]
	out.Secondary = paths[1:]
	if len(out.Secondary) == 0 {
		out.Secondary = nil
	}
	return out
}

// New returns the tracer for a method name: "contour" selects ContourTracer,
// anything else the greedy walk.
func New(method string, p Params) Tracer {
	if method == MethodContour {
		return &ContourTracer{MinLength: p.MinContourLength}
	}
	return NewGreedyTracer(p)
}

// Tracer method names.
const (
	MethodGreedy  = "greedy"
	MethodContour = "contour"
)
