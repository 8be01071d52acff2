package render

import (
	"fmt"
	"image"
	"math"

	"solar-annotator/internal/imageset"
)

// ThreeColor builds an RGB preview from three channels of an image set,
// stretching each one independently.
func ThreeColor(set *imageset.ImageSet, red, green, blue string, opts imageset.StretchOptions) (*image.RGBA, error) {
	names := [3]string{red, green, blue}
	var width, height int
	var planes [3][]float64
	for i, name := range names {
		ch, ok := set.Channel(name)
		if !ok {
			return nil, fmt.Errorf("image set has no %s channel", name)
		}
		if i == 0 {
			width, height = ch.Width(), ch.Height()
		} else if ch.Width() != width || ch.Height() != height {
			return nil, fmt.Errorf("channel %s is %dx%d, expected %dx%d", name, ch.Width(), ch.Height(), width, height)
		}
		planes[i] = imageset.Normalize(ch.Data, opts).RawMatrix().Data
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < width; x++ {
			i := y*width + x
			row[4*x] = uint8(math.Round(planes[0][i] * 255))
			row[4*x+1] = uint8(math.Round(planes[1][i] * 255))
			row[4*x+2] = uint8(math.Round(planes[2][i] * 255))
			row[4*x+3] = 255
		}
	}
	return img, nil
}

// Gray renders a single stretched channel as RGBA so it can be composited.
func Gray(ch *imageset.Channel, opts imageset.StretchOptions) *image.RGBA {
	g := imageset.Stretch(ch, opts)
	img := image.NewRGBA(g.Bounds())
	for i, v := range g.Pix {
		img.Pix[4*i] = v
		img.Pix[4*i+1] = v
		img.Pix[4*i+2] = v
		img.Pix[4*i+3] = 255
	}
	return img
}
