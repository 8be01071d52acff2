package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// BlendMode specifies how an overlay is combined with the image below.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
)

func (m BlendMode) String() string {
	switch m {
	case BlendNormal:
		return "Normal"
	case BlendMultiply:
		return "Multiply"
	case BlendScreen:
		return "Screen"
	default:
		return "Unknown"
	}
}

// Layer is one image in a composite.
type Layer struct {
	Image   image.Image
	Mode    BlendMode
	Opacity float64 // 0..1
}

// Composite stacks layers of the same size, bottom first.
type Composite struct {
	Width     int
	Height    int
	Layers    []Layer
	BackColor color.RGBA
}

// NewComposite creates an empty composite with a black background.
func NewComposite(width, height int) *Composite {
	return &Composite{
		Width:     width,
		Height:    height,
		BackColor: color.RGBA{A: 255},
	}
}

// Add appends a layer on top.
func (c *Composite) Add(img image.Image, mode BlendMode, opacity float64) {
	c.Layers = append(c.Layers, Layer{Image: img, Mode: mode, Opacity: opacity})
}

// Render produces the final composited image.
func (c *Composite) Render() *image.RGBA {
	result := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	draw.Draw(result, result.Bounds(), &image.Uniform{c.BackColor}, image.Point{}, draw.Src)

	for _, l := range c.Layers {
		if l.Image == nil || l.Opacity <= 0 {
			continue
		}
		blendInto(result, l)
	}
	return result
}

func blendInto(dst *image.RGBA, l Layer) {
	b := l.Image.Bounds()
	db := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		dy := y - b.Min.Y
		if dy >= db.Dy() {
			break
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			dx := x - b.Min.X
			if dx >= db.Dx() {
				break
			}
			dst.SetRGBA(dx, dy, blend(dst.RGBAAt(dx, dy), l.Image.At(x, y), l.Mode, l.Opacity))
		}
	}
}

// blend combines one source pixel with the destination.
func blend(dst color.RGBA, src color.Color, mode BlendMode, opacity float64) color.RGBA {
	sr, sg, sb, sa := src.RGBA()

	sf := [4]float64{float64(sr) / 65535.0, float64(sg) / 65535.0, float64(sb) / 65535.0, float64(sa) / 65535.0}
	df := [4]float64{float64(dst.R) / 255.0, float64(dst.G) / 255.0, float64(dst.B) / 255.0, float64(dst.A) / 255.0}

	var rf [3]float64
	for i := 0; i < 3; i++ {
		// sources are alpha-premultiplied
		s := sf[i]
		if sf[3] > 0 {
			s /= sf[3]
		}
		switch mode {
		case BlendMultiply:
			rf[i] = s * df[i]
		case BlendScreen:
			rf[i] = 1 - (1-s)*(1-df[i])
		default:
			rf[i] = s
		}
	}

	alpha := sf[3] * opacity
	return color.RGBA{
		R: to8(rf[0]*alpha + df[0]*(1-alpha)),
		G: to8(rf[1]*alpha + df[1]*(1-alpha)),
		B: to8(rf[2]*alpha + df[2]*(1-alpha)),
		A: to8(alpha + df[3]*(1-alpha)),
	}
}

func to8(v float64) uint8 {
	return uint8(math.Round(clamp(v, 0, 1) * 255))
}

func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
