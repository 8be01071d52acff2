package imageset

import (
	"image"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// StretchOptions control the conversion of channel data to display gray.
type StretchOptions struct {
	Low   float64 // lower clip quantile, 0..1
	High  float64 // upper clip quantile, 0..1
	Gamma float64 // applied after normalization; 1 is linear
}

// DefaultStretch clips the darkest 1% and brightest 0.5% of pixels.
func DefaultStretch() StretchOptions {
	return StretchOptions{Low: 0.01, High: 0.995, Gamma: 1}
}

// Limits returns the data values at the clip quantiles, ignoring NaN and
// infinite values.
func Limits(data *mat.Dense, low, high float64) (lo, hi float64) {
	rows, cols := data.Dims()
	values := make([]float64, 0, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := data.At(y, x)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 0, 0
	}
	sort.Float64s(values)
	return stat.Quantile(low, stat.Empirical, values, nil), stat.Quantile(high, stat.Empirical, values, nil)
}

// Normalize maps data into 0..1 using the clip quantiles and gamma. Values
// outside the limits saturate; NaN becomes 0.
func Normalize(data *mat.Dense, opts StretchOptions) *mat.Dense {
	lo, hi := Limits(data, opts.Low, opts.High)
	gamma := opts.Gamma
	if gamma <= 0 {
		gamma = 1
	}

	rows, cols := data.Dims()
	out := mat.NewDense(rows, cols, nil)
	if hi <= lo {
		return out
	}
	out.Apply(func(_, _ int, v float64) float64 {
		if math.IsNaN(v) {
			return 0
		}
		t := (v - lo) / (hi - lo)
		switch {
		case t <= 0:
			return 0
		case t >= 1:
			return 1
		}
		if gamma != 1 {
			t = math.Pow(t, 1/gamma)
		}
		return t
	}, data)
	return out
}

// Stretch renders a channel as an 8-bit gray image.
func Stretch(c *Channel, opts StretchOptions) *image.Gray {
	norm := Normalize(c.Data, opts)
	rows, cols := norm.Dims()
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			img.Pix[y*img.Stride+x] = uint8(math.Round(norm.At(y, x) * 255))
		}
	}
	return img
}
