package imageset

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"solar-annotator/internal/thmap"

	"github.com/astrogo/fitsio"
	_ "golang.org/x/image/tiff"
	"gonum.org/v1/gonum/mat"
)

// SupportedFormats returns the channel file extensions, in lookup order.
func SupportedFormats() []string {
	return []string{".fits", ".fts", ".fit", ".tif", ".tiff", ".png"}
}

// IsFITS reports whether path has a FITS extension.
func IsFITS(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".fits", ".fts", ".fit":
		return true
	}
	return false
}

// LoadChannel reads one channel from a FITS, TIFF or PNG file.
func LoadChannel(path, name string) (*Channel, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	defer file.Close()

	var ch *Channel
	if IsFITS(path) {
		ch, err = DecodeFITS(file, name)
	} else {
		ch, err = DecodeImage(file, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ch.Path = path
	return ch, nil
}

// DecodeFITS reads the first two-dimensional image HDU of a FITS stream.
func DecodeFITS(r io.Reader, name string) (*Channel, error) {
	f, err := fitsio.Open(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FITS: %w", err)
	}
	defer f.Close()

	for _, hdu := range f.HDUs() {
		img, ok := hdu.(fitsio.Image)
		if !ok {
			continue
		}
		axes := img.Header().Axes()
		if len(axes) != 2 || axes[0] <= 0 || axes[1] <= 0 {
			continue
		}
		values, err := thmap.ReadImageValues(img)
		if err != nil {
			return nil, fmt.Errorf("failed to read image data: %w", err)
		}
		return &Channel{
			Name:   name,
			Data:   mat.NewDense(axes[1], axes[0], values),
			Header: thmap.HeaderFromFITS(img.Header()),
		}, nil
	}
	return nil, fmt.Errorf("no 2D image HDU found")
}

// DecodeImage reads a raster image and converts it to luminance in the
// range 0..65535.
func DecodeImage(r io.Reader, name string) (*Channel, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	b := img.Bounds()
	data := mat.NewDense(b.Dy(), b.Dx(), nil)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
			data.Set(y-b.Min.Y, x-b.Min.X, float64(g.Y))
		}
	}
	return &Channel{Name: name, Data: data, Header: thmap.NewHeader()}, nil
}

// EncodeFITS writes a channel as a single -32 BITPIX image with its header.
func EncodeFITS(w io.Writer, c *Channel) error {
	f, err := fitsio.Create(w)
	if err != nil {
		return err
	}

	rows, cols := c.Data.Dims()
	img := fitsio.NewImage(-32, []int{cols, rows})
	defer img.Close()

	if c.Header != nil {
		var cards []fitsio.Card
		for _, card := range c.Header.Cards() {
			cards = append(cards, fitsio.Card{Name: card.Key, Value: card.Value, Comment: card.Comment})
		}
		if err := img.Header().Append(cards...); err != nil {
			f.Close()
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	pix := make([]float32, 0, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			pix = append(pix, float32(c.Data.At(y, x)))
		}
	}
	if err := img.Write(pix); err != nil {
		f.Close()
		return fmt.Errorf("failed to write image: %w", err)
	}
	if err := f.Write(img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func decodeBytes(data []byte, name string, fits bool) (*Channel, error) {
	if fits {
		return DecodeFITS(bytes.NewReader(data), name)
	}
	return DecodeImage(bytes.NewReader(data), name)
}
