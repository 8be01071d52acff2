package canvas

import (
	"image/color"
	"testing"

	"solar-annotator/internal/boundary"
	"solar-annotator/pkg/geometry"
)

func TestPixelAt(t *testing.T) {
	tests := []struct {
		cx, cy float64
		zoom   float64
		x, y   int
	}{
		{0, 0, 1, 0, 0},
		{0.99, 3.5, 1, 0, 3},
		{7.9, 8, 4, 1, 2},
		{-0.5, 2, 2, -1, 1},
	}
	for _, tt := range tests {
		x, y := pixelAt(tt.cx, tt.cy, tt.zoom)
		if x != tt.x || y != tt.y {
			t.Errorf("pixelAt(%v, %v, %v) = %d,%d; want %d,%d", tt.cx, tt.cy, tt.zoom, x, y, tt.x, tt.y)
		}
	}
}

func TestCanvasToImageCenters(t *testing.T) {
	// the center of display pixel 3 at zoom 2 is canvas 7
	p := canvasToImage(7, 7, 2)
	if p != (geometry.Point2D{X: 3, Y: 3}) {
		t.Errorf("canvasToImage = %v, want (3,3)", p)
	}
	back := toDisplay([]geometry.Point2D{p})[0]
	if back.X*2 != 7 {
		t.Errorf("display x = %v, want 3.5", back.X)
	}
}

func TestOutlineOverlays(t *testing.T) {
	o := boundary.Outline{
		Primary:   boundary.Path{{X: 1, Y: 1}, {X: 2, Y: 1}},
		Secondary: []boundary.Path{{{X: 5, Y: 5}}, {{X: 7, Y: 7}, {X: 8, Y: 7}}},
	}
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	p, s := OutlineOverlays(o, red, blue)
	if len(p.Lines) != 1 || len(p.Lines[0]) != 2 || p.Color != red {
		t.Errorf("primary overlay = %+v", p)
	}
	if len(s.Lines) != 2 || s.Color != blue {
		t.Errorf("secondary overlay = %+v", s)
	}

	p, s = OutlineOverlays(boundary.Outline{}, red, blue)
	if len(p.Lines) != 0 || len(s.Lines) != 0 {
		t.Error("empty outline produced lines")
	}
}
