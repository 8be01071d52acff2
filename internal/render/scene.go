package render

import (
	"fmt"
	"image"

	"solar-annotator/internal/imageset"
	"solar-annotator/internal/thmap"

	xdraw "golang.org/x/image/draw"
)

// Preview modes.
const (
	PreviewNone       = "none"
	PreviewChannel    = "channel"
	PreviewThreeColor = "three-color"
)

// PreviewOptions selects how an image set is shown under the map.
type PreviewOptions struct {
	Mode    string
	Channel string    // PreviewChannel mode
	RGB     [3]string // PreviewThreeColor mode
	Stretch imageset.StretchOptions
}

// Preview renders an image set according to opts. It returns nil for
// PreviewNone or a nil set.
func Preview(set *imageset.ImageSet, opts PreviewOptions) (*image.RGBA, error) {
	if set == nil {
		return nil, nil
	}
	switch opts.Mode {
	case PreviewNone, "":
		return nil, nil
	case PreviewChannel:
		ch, ok := set.Channel(opts.Channel)
		if !ok {
			return nil, fmt.Errorf("image set has no %s channel", opts.Channel)
		}
		return Gray(ch, opts.Stretch), nil
	case PreviewThreeColor:
		return ThreeColor(set, opts.RGB[0], opts.RGB[1], opts.RGB[2], opts.Stretch)
	default:
		return nil, fmt.Errorf("unknown preview mode %q", opts.Mode)
	}
}

// Scene is a thematic map drawn over an optional preview image.
type Scene struct {
	Raster     *thmap.Raster
	Palette    Palette
	Background image.Image
	MapOpacity float64
	MapBlend   BlendMode
}

// Render produces an image the size of the raster. A background of another
// size is rescaled to fit.
func (s Scene) Render() *image.RGBA {
	labelled := Colorize(s.Raster, s.Palette)
	if s.Background == nil {
		return labelled
	}

	bg := s.Background
	rb := image.Rect(0, 0, s.Raster.Width, s.Raster.Height)
	if bg.Bounds().Size() != rb.Size() {
		scaled := image.NewRGBA(rb)
		xdraw.ApproxBiLinear.Scale(scaled, rb, bg, bg.Bounds(), xdraw.Src, nil)
		bg = scaled
	}

	c := NewComposite(s.Raster.Width, s.Raster.Height)
	c.Add(bg, BlendNormal, 1)
	c.Add(labelled, s.MapBlend, s.MapOpacity)
	return c.Render()
}
