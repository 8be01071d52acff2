package thmap

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"solar-annotator/internal/labels"

	"github.com/astrogo/fitsio"
)

// ErrMalformedDocument reports a file that is not a readable thematic map.
var ErrMalformedDocument = errors.New("malformed thematic map")

// Column names of the label table extension.
const (
	ColumnCode = "Thematic Map Value"
	ColumnName = "Feature Name"
)

// structuralKeys are managed by the FITS writer and never copied from
// document metadata.
var structuralKeys = map[string]bool{
	"SIMPLE": true, "BITPIX": true, "NAXIS": true, "NAXIS1": true, "NAXIS2": true,
	"EXTEND": true, "XTENSION": true, "PCOUNT": true, "GCOUNT": true,
	"BSCALE": true, "BZERO": true, "CHECKSUM": true, "DATASUM": true,
	"COMMENT": true, "HISTORY": true, "END": true, "": true,
}

// Save writes the document to path as a FITS file, replacing any existing
// file.
func (d *Document) Save(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}
	if err := d.Encode(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Encode writes the primary label image and the label table extension.
func (d *Document) Encode(w io.Writer) error {
	f, err := fitsio.Create(w)
	if err != nil {
		return fmt.Errorf("failed to start FITS stream: %w", err)
	}

	if err := d.writePrimary(f); err != nil {
		f.Close()
		return err
	}
	if err := d.writeLabelTable(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (d *Document) writePrimary(f *fitsio.File) error {
	img := fitsio.NewImage(8, []int{d.Width(), d.Height()})
	defer img.Close()

	var cards []fitsio.Card
	for _, c := range d.header.Cards() {
		if structuralKeys[c.Key] {
			continue
		}
		cards = append(cards, fitsio.Card{Name: c.Key, Value: c.Value, Comment: c.Comment})
	}
	if err := img.Header().Append(cards...); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := img.Write(d.raster.Codes); err != nil {
		return fmt.Errorf("failed to write label image: %w", err)
	}
	return f.Write(img)
}

func (d *Document) writeLabelTable(f *fitsio.File) error {
	return writeLabelRows(f, d.mapping.Entries())
}

func writeLabelRows(f *fitsio.File, entries []labels.Entry) error {
	cols := []fitsio.Column{
		{Name: ColumnCode, Format: "B"},
		{Name: ColumnName, Format: fmt.Sprintf("%dA", labels.MaxNameLength)},
	}
	tbl, err := fitsio.NewTable("THEMES", cols, fitsio.BINARY_TBL)
	if err != nil {
		return fmt.Errorf("failed to create label table: %w", err)
	}
	defer tbl.Close()

	for _, e := range entries {
		code, name := e.Code, e.Name
		if err := tbl.Write(&code, &name); err != nil {
			return fmt.Errorf("failed to write label %d: %w", code, err)
		}
	}
	return f.Write(tbl)
}

// Load reads a thematic map from path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Decode reads a thematic map from a FITS stream.
func Decode(r io.Reader) (*Document, error) {
	f, err := fitsio.Open(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	defer f.Close()

	if len(f.HDUs()) < 2 {
		return nil, fmt.Errorf("%w: expected label image and label table, found %d HDUs",
			ErrMalformedDocument, len(f.HDUs()))
	}

	img, ok := f.HDU(0).(fitsio.Image)
	if !ok {
		return nil, fmt.Errorf("%w: primary HDU is not an image", ErrMalformedDocument)
	}
	raster, header, err := readLabelImage(img)
	if err != nil {
		return nil, err
	}

	tbl, ok := f.HDU(1).(*fitsio.Table)
	if !ok {
		return nil, fmt.Errorf("%w: second HDU is not a table", ErrMalformedDocument)
	}
	mapping, err := readLabelTable(tbl)
	if err != nil {
		return nil, err
	}

	doc, err := NewDocument(raster, mapping, header)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return doc, nil
}

func readLabelImage(img fitsio.Image) (*Raster, *Header, error) {
	hdr := img.Header()
	axes := hdr.Axes()
	if len(axes) != 2 || axes[0] <= 0 || axes[1] <= 0 {
		return nil, nil, fmt.Errorf("%w: label image must be 2D, got axes %v", ErrMalformedDocument, axes)
	}
	width, height := axes[0], axes[1]

	values, err := ReadImageValues(img)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	codes := make([]uint8, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		rounded := math.Round(v)
		if rounded < 0 || rounded > 255 {
			return nil, nil, fmt.Errorf("%w: pixel %d holds %v, outside 0..255", ErrMalformedDocument, i, v)
		}
		codes[i] = uint8(rounded)
	}

	raster, err := NewRasterFromCodes(width, height, codes)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return raster, HeaderFromFITS(hdr), nil
}

// ReadImageValues reads any BITPIX image as float64 values with BSCALE and
// BZERO applied.
func ReadImageValues(img fitsio.Image) ([]float64, error) {
	hdr := img.Header()
	n := 1
	for _, dim := range hdr.Axes() {
		n *= dim
	}

	out := make([]float64, n)
	switch hdr.Bitpix() {
	case 8:
		raw := make([]uint8, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case 16:
		raw := make([]int16, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case 32:
		raw := make([]int32, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case 64:
		raw := make([]int64, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case -32:
		raw := make([]float32, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case -64:
		if err := img.Read(&out); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported BITPIX %d", hdr.Bitpix())
	}

	scale, zero := 1.0, 0.0
	if c := hdr.Get("BSCALE"); c != nil {
		if v, ok := cardFloat(c.Value); ok {
			scale = v
		}
	}
	if c := hdr.Get("BZERO"); c != nil {
		if v, ok := cardFloat(c.Value); ok {
			zero = v
		}
	}
	if scale != 1 || zero != 0 {
		for i := range out {
			out[i] = out[i]*scale + zero
		}
	}
	return out, nil
}

// HeaderFromFITS copies the non-structural cards of a FITS header.
func HeaderFromFITS(hdr *fitsio.Header) *Header {
	h := NewHeader()
	for _, key := range hdr.Keys() {
		if structuralKeys[key] {
			continue
		}
		if c := hdr.Get(key); c != nil {
			h.Set(c.Name, c.Value, c.Comment)
		}
	}
	return h
}

func readLabelTable(tbl *fitsio.Table) (*labels.Mapping, error) {
	if tbl.NumCols() < 2 {
		return nil, fmt.Errorf("%w: label table needs 2 columns, has %d", ErrMalformedDocument, tbl.NumCols())
	}

	rows, err := tbl.Read(0, tbl.NumRows())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	defer rows.Close()

	codeFormat := strings.TrimLeft(tbl.Col(0).Format, "0123456789")
	entries := make(map[uint8]string)
	for rows.Next() {
		var (
			code int64
			name string
		)
		switch codeFormat {
		case "B":
			var v uint8
			err = rows.Scan(&v, &name)
			code = int64(v)
		case "I":
			var v int16
			err = rows.Scan(&v, &name)
			code = int64(v)
		case "J":
			var v int32
			err = rows.Scan(&v, &name)
			code = int64(v)
		case "K":
			err = rows.Scan(&code, &name)
		default:
			return nil, fmt.Errorf("%w: unsupported code column format %q", ErrMalformedDocument, tbl.Col(0).Format)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		if code < 0 || code > 255 {
			return nil, fmt.Errorf("%w: label code %d outside 0..255", ErrMalformedDocument, code)
		}
		name = strings.TrimRight(name, " \x00")
		if prev, dup := entries[uint8(code)]; dup {
			return nil, fmt.Errorf("%w: label code %d assigned to both %q and %q", ErrMalformedDocument, code, prev, name)
		}
		entries[uint8(code)] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	m, err := labels.New(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return m, nil
}

func cardFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
