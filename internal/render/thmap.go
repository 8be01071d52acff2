// Package render turns thematic maps, outlines and channel data into images
// for display and export.
package render

import (
	"image"
	"image/color"

	"solar-annotator/internal/thmap"
)

// Palette maps label codes to display colors.
type Palette interface {
	Color(code uint8) color.RGBA
}

// TablePalette is a Palette backed by a color table indexed by code. Codes
// past the end of the table get Fallback.
type TablePalette struct {
	Table    []color.RGBA
	Fallback color.RGBA
}

// Color implements Palette.
func (p TablePalette) Color(code uint8) color.RGBA {
	if int(code) < len(p.Table) {
		return p.Table[code]
	}
	return p.Fallback
}

// Colorize paints every pixel of the raster with its label color.
func Colorize(r *thmap.Raster, palette Palette) *image.RGBA {
	var lut [256]color.RGBA
	for i := range lut {
		lut[i] = palette.Color(uint8(i))
	}

	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < r.Width; x++ {
			c := lut[r.Codes[y*r.Width+x]]
			row[4*x] = c.R
			row[4*x+1] = c.G
			row[4*x+2] = c.B
			row[4*x+3] = c.A
		}
	}
	return img
}
