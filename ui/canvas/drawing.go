package canvas

import (
	"image"
	"image/color"
	"math"

	"solar-annotator/internal/render"
	"solar-annotator/pkg/geometry"

	"fyne.io/fyne/v2"
	xdraw "golang.org/x/image/draw"
)

var background = color.RGBA{R: 40, G: 40, B: 40, A: 255}

// draw is the raster callback. It scales the image with nearest-neighbour
// sampling so label boundaries stay crisp, then draws overlays and the
// lasso in progress on top.
func (ic *ImageCanvas) draw(w, h int) image.Image {
	currentSize := fyne.NewSize(float32(w), float32(h))
	if ic.fitToWindow && currentSize != ic.lastScrollSize && w > 0 && h > 0 {
		ic.lastScrollSize = currentSize
		go ic.FitToWindow()
	}

	output := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(output, output.Bounds(), image.NewUniform(background), image.Point{}, xdraw.Src)
	if ic.img == nil {
		return output
	}

	// the raster may be drawn at a different size than requested
	b := ic.img.Bounds()
	zoom := ic.zoom
	if b.Dx() > 0 && float64(w) != float64(b.Dx())*ic.zoom {
		zoom = float64(w) / float64(b.Dx())
	}
	dst := image.Rect(0, 0, int(math.Round(float64(b.Dx())*zoom)), int(math.Round(float64(b.Dy())*zoom)))
	xdraw.NearestNeighbor.Scale(output, dst, ic.img, b, xdraw.Over, nil)

	for _, ov := range ic.overlays {
		if ov != nil {
			drawOverlay(output, ov, zoom)
		}
	}
	if ic.lassoing && len(ic.lasso) > 1 {
		render.DrawPolyline(output, toDisplay(ic.lasso), ic.LassoColor, 1, zoom, true)
	}
	return output
}

func drawOverlay(output *image.RGBA, ov *Overlay, zoom float64) {
	thickness := ov.Thickness
	if thickness < 1 {
		thickness = 1
	}
	for _, line := range ov.Lines {
		pts := toDisplay(line)
		if len(pts) == 1 {
			x, y := int(pts[0].X*zoom), int(pts[0].Y*zoom)
			render.DrawLine(output, x, y, x, y, ov.Color, thickness)
			continue
		}
		render.DrawPolyline(output, pts, ov.Color, thickness, zoom, ov.Closed)
	}
}

// toDisplay shifts image coordinates to the pixel centers of the display
// grid, where pixel x spans [x, x+1).
func toDisplay(pts []geometry.Point2D) []geometry.Point2D {
	out := make([]geometry.Point2D, len(pts))
	for i, p := range pts {
		out[i] = geometry.Point2D{X: p.X + 0.5, Y: p.Y + 0.5}
	}
	return out
}

func canvasToImage(canvasX, canvasY, zoom float64) geometry.Point2D {
	return geometry.Point2D{X: canvasX/zoom - 0.5, Y: canvasY/zoom - 0.5}
}

func pixelAt(canvasX, canvasY, zoom float64) (int, int) {
	return int(math.Floor(canvasX / zoom)), int(math.Floor(canvasY / zoom))
}
