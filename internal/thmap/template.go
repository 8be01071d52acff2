package thmap

import (
	"fmt"
	"math"
	"time"

	"solar-annotator/internal/labels"
)

// Class names used by the disk/limb template.
const (
	ClassOuterSpace = "outer_space"
	ClassLimb       = "limb"
	ClassQuietSun   = "quiet_sun"
)

// DefaultLimbThickness is the template limb width in pixels.
const DefaultLimbThickness = 10.0

// DiskMask returns a row-major mask that is true for pixels whose distance
// from the image center is less than radius. The center sits between the
// middle pixels, at (width/2-0.5, height/2-0.5).
func DiskMask(width, height int, radius float64) []bool {
	cx := float64(width)/2 - 0.5
	cy := float64(height)/2 - 0.5
	mask := make([]bool, width*height)
	for y := 0; y < height; y++ {
		dy := float64(y) - cy
		for x := 0; x < width; x++ {
			dx := float64(x) - cx
			mask[y*width+x] = math.Sqrt(dx*dx+dy*dy) < radius
		}
	}
	return mask
}

// TemplateOptions configures NewTemplate.
type TemplateOptions struct {
	Width, Height int
	SolarRadius   float64 // pixels
	LimbThickness float64 // pixels, centered on SolarRadius
	Observed      time.Time
	Reference     *Header // WCS keys are copied from here when set
}

// NewTemplate builds a starting document with three concentric classes:
// outer space everywhere, the limb ring, and quiet sun on the disk.
func NewTemplate(mapping *labels.Mapping, opts TemplateOptions) (*Document, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid template size %dx%d", opts.Width, opts.Height)
	}
	if opts.SolarRadius <= 0 {
		return nil, fmt.Errorf("invalid solar radius %v", opts.SolarRadius)
	}
	if opts.LimbThickness <= 0 {
		opts.LimbThickness = DefaultLimbThickness
	}

	codes := make(map[string]uint8, 3)
	for _, name := range []string{ClassOuterSpace, ClassLimb, ClassQuietSun} {
		code, ok := mapping.Code(name)
		if !ok {
			return nil, fmt.Errorf("template needs class %q in the label mapping", name)
		}
		codes[name] = code
	}

	diskRadius := opts.SolarRadius - opts.LimbThickness/2
	limbRadius := opts.SolarRadius + opts.LimbThickness/2

	raster := NewRaster(opts.Width, opts.Height)
	raster.Fill(codes[ClassOuterSpace])
	for i, in := range DiskMask(opts.Width, opts.Height, limbRadius) {
		if in {
			raster.Codes[i] = codes[ClassLimb]
		}
	}
	for i, in := range DiskMask(opts.Width, opts.Height, diskRadius) {
		if in {
			raster.Codes[i] = codes[ClassQuietSun]
		}
	}

	header := NewHeader()
	header.SetDateObs(opts.Observed)
	if opts.Reference != nil {
		header.CopyFrom(opts.Reference, WCSKeys)
	}
	return NewDocument(raster, mapping, header)
}
