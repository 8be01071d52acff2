package lasso

import (
	"math"
	"testing"

	"solar-annotator/pkg/geometry"
)

func pts(coords ...float64) []geometry.Point2D {
	out := make([]geometry.Point2D, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		out = append(out, geometry.Point2D{X: coords[i], Y: coords[i+1]})
	}
	return out
}

func asSet(pixels []geometry.PointInt) map[geometry.PointInt]bool {
	set := make(map[geometry.PointInt]bool, len(pixels))
	for _, p := range pixels {
		set[p] = true
	}
	return set
}

func TestRasterizeSquareAroundCenters(t *testing.T) {
	got := Rasterize(pts(-0.5, -0.5, 1.5, -0.5, 1.5, 1.5, -0.5, 1.5), 4, 4)
	want := []geometry.PointInt{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pixel %d = %v, want %v (row-major)", i, got[i], want[i])
		}
	}
}

func TestRasterizeIncludesBoundary(t *testing.T) {
	// vertices sit exactly on pixel centers
	got := asSet(Rasterize(pts(1, 1, 3, 1, 3, 3, 1, 3), 5, 5))
	if len(got) != 9 {
		t.Fatalf("got %d pixels, want 9", len(got))
	}
	for _, p := range []geometry.PointInt{{X: 1, Y: 1}, {X: 3, Y: 3}, {X: 2, Y: 1}, {X: 1, Y: 2}} {
		if !got[p] {
			t.Errorf("boundary pixel %v missing", p)
		}
	}
	if got[geometry.PointInt{X: 0, Y: 0}] || got[geometry.PointInt{X: 4, Y: 2}] {
		t.Error("pixel outside polygon selected")
	}
}

func TestRasterizeDegenerate(t *testing.T) {
	tests := []struct {
		name  string
		verts []geometry.Point2D
	}{
		{"empty", nil},
		{"single", pts(1, 1)},
		{"two vertices", pts(0, 0, 3, 3)},
		{"collinear", pts(0, 0, 1, 1, 2, 2, 3, 3)},
		{"repeated point", pts(2, 2, 2, 2, 2, 2)},
	}
	for _, tt := range tests {
		if got := Rasterize(tt.verts, 5, 5); len(got) != 0 {
			t.Errorf("%s: got %v, want empty", tt.name, got)
		}
	}
}

func TestRasterizeClipsToImage(t *testing.T) {
	got := Rasterize(pts(-10, -10, 10, -10, 10, 10, -10, 10), 3, 2)
	if len(got) != 6 {
		t.Errorf("got %d pixels, want all 6", len(got))
	}
	if got := Rasterize(pts(20, 20, 30, 20, 30, 30), 3, 2); len(got) != 0 {
		t.Errorf("polygon outside image selected %v", got)
	}
}

func TestRasterizeConcave(t *testing.T) {
	// U shape: the notch between the arms must stay unselected
	u := pts(0, 0, 6, 0, 6, 6, 4, 6, 4, 2, 2, 2, 2, 6, 0, 6)
	got := asSet(Rasterize(u, 8, 8))
	if got[geometry.PointInt{X: 3, Y: 4}] {
		t.Error("pixel inside the notch selected")
	}
	if !got[geometry.PointInt{X: 1, Y: 4}] || !got[geometry.PointInt{X: 5, Y: 4}] {
		t.Error("arm pixels missing")
	}
}

func TestRasterizeMonotoneForConvex(t *testing.T) {
	polygon := func(scale float64) []geometry.Point2D {
		var out []geometry.Point2D
		for i := 0; i < 7; i++ {
			a := float64(i) * 2 * math.Pi / 7
			out = append(out, geometry.Point2D{X: 20 + scale*math.Cos(a), Y: 20 + scale*math.Sin(a)})
		}
		return out
	}
	prev := asSet(Rasterize(polygon(1), 40, 40))
	for scale := 1.5; scale <= 18; scale += 0.5 {
		cur := asSet(Rasterize(polygon(scale), 40, 40))
		for p := range prev {
			if !cur[p] {
				t.Fatalf("scale %.1f lost pixel %v selected at a smaller scale", scale, p)
			}
		}
		if len(cur) < len(prev) {
			t.Fatalf("scale %.1f selected fewer pixels", scale)
		}
		prev = cur
	}
}
