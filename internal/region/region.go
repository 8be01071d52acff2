// Package region finds connected regions of equal label in a thematic map
// and relabels them.
package region

import (
	"encoding/binary"
	"errors"
	"fmt"

	"solar-annotator/internal/thmap"
	"solar-annotator/pkg/geometry"

	"gocv.io/x/gocv"
)

// Connectivity is the pixel adjacency used for regions: edge neighbours only.
const Connectivity = 4

// Errors returned by this package.
var (
	ErrSeedOutOfBounds = errors.New("seed outside raster")
	ErrStaleMask       = errors.New("region mask computed from an older raster")
	ErrSizeMismatch    = errors.New("mask size differs from raster")
)

// Mask marks the pixels of one region.
type Mask struct {
	Width      int
	Height     int
	Bits       []bool // row-major
	Label      uint8  // label value shared by the region
	Seed       geometry.PointInt
	Generation uint64 // document generation the mask was computed from
}

// NewMask creates an empty mask.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Bits: make([]bool, width*height)}
}

// At reports whether (x, y) is in the region. Out-of-range pixels are not.
func (m *Mask) At(x, y int) bool {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return false
	}
	return m.Bits[y*m.Width+x]
}

// Set marks or clears (x, y).
func (m *Mask) Set(x, y int, v bool) {
	m.Bits[y*m.Width+x] = v
}

// Count returns the number of pixels in the region.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Pixels lists the region's pixels in row-major order.
func (m *Mask) Pixels() []geometry.PointInt {
	out := make([]geometry.PointInt, 0, m.Count())
	for i, b := range m.Bits {
		if b {
			out = append(out, geometry.PointInt{X: i % m.Width, Y: i / m.Width})
		}
	}
	return out
}

// Clone returns an independent copy.
func (m *Mask) Clone() *Mask {
	c := *m
	c.Bits = make([]bool, len(m.Bits))
	copy(c.Bits, m.Bits)
	return &c
}

// Equal reports whether both masks select the same pixels.
func (m *Mask) Equal(other *Mask) bool {
	if other == nil || m.Width != other.Width || m.Height != other.Height {
		return false
	}
	for i := range m.Bits {
		if m.Bits[i] != other.Bits[i] {
			return false
		}
	}
	return true
}

// ToMat converts the mask into an 8-bit single channel Mat with 255 for
// region pixels. The caller owns the returned Mat.
func (m *Mask) ToMat() (gocv.Mat, error) {
	buf := make([]byte, len(m.Bits))
	for i, b := range m.Bits {
		if b {
			buf[i] = 255
		}
	}
	mat, err := gocv.NewMatFromBytes(m.Height, m.Width, gocv.MatTypeCV8U, buf)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("mask %dx%d to Mat: %w", m.Width, m.Height, err)
	}
	return mat, nil
}

// Identify returns the connected region of equal label that contains seed.
// Regions are 4-connected. The seed must lie inside the raster; callers
// reject out-of-bounds clicks before getting here, and a seed outside is
// reported as ErrSeedOutOfBounds rather than wrapped around.
func Identify(r *thmap.Raster, seed geometry.PointInt) (*Mask, error) {
	if !r.InBounds(seed.X, seed.Y) {
		return nil, fmt.Errorf("seed (%d,%d) in %dx%d raster: %w", seed.X, seed.Y, r.Width, r.Height, ErrSeedOutOfBounds)
	}
	target := r.At(seed.X, seed.Y)

	// Equality mask: raster == raster[seed]
	buf := make([]byte, len(r.Codes))
	for i, c := range r.Codes {
		if c == target {
			buf[i] = 255
		}
	}
	equal, err := gocv.NewMatFromBytes(r.Height, r.Width, gocv.MatTypeCV8U, buf)
	if err != nil {
		return nil, fmt.Errorf("equality mask: %w", err)
	}
	defer equal.Close()

	components := gocv.NewMat()
	defer components.Close()
	gocv.ConnectedComponentsWithParams(equal, &components, Connectivity, gocv.MatTypeCV32S, gocv.CCL_DEFAULT)

	// One copy out of OpenCV, then native-endian int32 labels.
	raw := components.ToBytes()
	if len(raw) != 4*len(r.Codes) {
		return nil, fmt.Errorf("component labels: got %d bytes for %d pixels", len(raw), len(r.Codes))
	}
	labelAt := func(i int) int32 {
		return int32(binary.NativeEndian.Uint32(raw[4*i:]))
	}
	seedComponent := labelAt(seed.Y*r.Width + seed.X)

	mask := NewMask(r.Width, r.Height)
	mask.Label = target
	mask.Seed = seed
	for i, c := range r.Codes {
		if c == target && labelAt(i) == seedComponent {
			mask.Bits[i] = true
		}
	}
	return mask, nil
}

// IdentifyInDocument runs Identify on the document's live raster and stamps
// the mask with the document generation.
func IdentifyInDocument(doc *thmap.Document, seed geometry.PointInt) (*Mask, error) {
	mask, err := Identify(doc.Raster(), seed)
	if err != nil {
		return nil, err
	}
	mask.Generation = doc.Generation()
	return mask, nil
}

// Relabel assigns code to every pixel of the region as one undoable edit.
// The mask must come from the document's current raster.
func Relabel(doc *thmap.Document, m *Mask, code uint8) error {
	if m.Width != doc.Width() || m.Height != doc.Height() {
		return fmt.Errorf("mask %dx%d, raster %dx%d: %w", m.Width, m.Height, doc.Width(), doc.Height(), ErrSizeMismatch)
	}
	if m.Generation != doc.Generation() {
		return ErrStaleMask
	}
	return doc.Paint(m.Pixels(), code)
}
