// Package thmap provides the thematic map document: a labeled raster, its
// label mapping, header metadata and edit history.
package thmap

import (
	"bytes"
	"fmt"

	"solar-annotator/internal/labels"
	"solar-annotator/pkg/geometry"
)

// Raster is a fixed-size grid of label codes stored row-major.
type Raster struct {
	Width  int
	Height int
	Codes  []uint8
}

// NewRaster creates a raster filled with code 0.
func NewRaster(width, height int) *Raster {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Raster{
		Width:  width,
		Height: height,
		Codes:  make([]uint8, width*height),
	}
}

// NewRasterFromCodes wraps codes as a width x height raster.
func NewRasterFromCodes(width, height int, codes []uint8) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid raster size %dx%d", width, height)
	}
	if len(codes) != width*height {
		return nil, fmt.Errorf("raster %dx%d needs %d codes, got %d", width, height, width*height, len(codes))
	}
	return &Raster{Width: width, Height: height, Codes: codes}, nil
}

// InBounds reports whether (x, y) addresses a pixel of the raster.
func (r *Raster) InBounds(x, y int) bool {
	return x >= 0 && x < r.Width && y >= 0 && y < r.Height
}

// At returns the code at (x, y). The caller guarantees bounds.
func (r *Raster) At(x, y int) uint8 {
	return r.Codes[y*r.Width+x]
}

// Set writes code at (x, y). The caller guarantees bounds.
func (r *Raster) Set(x, y int, code uint8) {
	r.Codes[y*r.Width+x] = code
}

// Clone returns an independent deep copy.
func (r *Raster) Clone() *Raster {
	codes := make([]uint8, len(r.Codes))
	copy(codes, r.Codes)
	return &Raster{Width: r.Width, Height: r.Height, Codes: codes}
}

// Equal reports whether both rasters have the same size and codes.
func (r *Raster) Equal(other *Raster) bool {
	if other == nil {
		return false
	}
	return r.Width == other.Width && r.Height == other.Height && bytes.Equal(r.Codes, other.Codes)
}

// Fill sets every pixel to code.
func (r *Raster) Fill(code uint8) {
	for i := range r.Codes {
		r.Codes[i] = code
	}
}

// Histogram counts pixels per code.
func (r *Raster) Histogram() map[uint8]int {
	counts := make(map[uint8]int)
	for _, c := range r.Codes {
		counts[c]++
	}
	return counts
}

// Validate checks that every code is 0 or mapped.
func (r *Raster) Validate(m *labels.Mapping) error {
	for i, c := range r.Codes {
		if !m.Valid(c) {
			return fmt.Errorf("pixel (%d,%d) holds unmapped code %d", i%r.Width, i/r.Width, c)
		}
	}
	return nil
}

// Pixels returns the coordinates holding code, in row-major order.
func (r *Raster) Pixels(code uint8) []geometry.PointInt {
	var out []geometry.PointInt
	for i, c := range r.Codes {
		if c == code {
			out = append(out, geometry.PointInt{X: i % r.Width, Y: i / r.Width})
		}
	}
	return out
}
