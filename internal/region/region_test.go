package region

import (
	"errors"
	"testing"
	"time"

	"solar-annotator/internal/labels"
	"solar-annotator/internal/thmap"
	"solar-annotator/pkg/geometry"
)

// rasterFrom builds a raster from rows of digits.
func rasterFrom(t *testing.T, rows ...string) *thmap.Raster {
	t.Helper()
	r := thmap.NewRaster(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, ch := range row {
			r.Set(x, y, uint8(ch-'0'))
		}
	}
	return r
}

func docFrom(t *testing.T, rows ...string) *thmap.Document {
	t.Helper()
	m, err := labels.New(map[uint8]string{1: "quiet_sun", 2: "filament", 3: "coronal_hole"})
	if err != nil {
		t.Fatal(err)
	}
	doc, err := thmap.NewDocument(rasterFrom(t, rows...), m, thmap.NewHeader())
	if err != nil {
		t.Fatal(err)
	}
	doc.Header().SetDateObs(time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC))
	return doc
}

func TestIdentifyPicksSeedComponent(t *testing.T) {
	r := rasterFrom(t,
		"1100",
		"1100",
		"0011",
		"0011",
	)
	mask, err := Identify(r, geometry.PointInt{X: 0, Y: 0})
	if err != nil {
		t.Fatal(err)
	}
	if mask.Label != 1 {
		t.Errorf("Label = %d, want 1", mask.Label)
	}
	// the lower-right block touches only diagonally and stays out
	if mask.Count() != 4 {
		t.Errorf("Count = %d, want 4", mask.Count())
	}
	for _, p := range []geometry.PointInt{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}} {
		if !mask.At(p.X, p.Y) {
			t.Errorf("%v missing from region", p)
		}
	}
	if mask.At(2, 2) {
		t.Error("diagonal neighbour joined the region")
	}
}

func TestIdentifyBackgroundRegion(t *testing.T) {
	r := rasterFrom(t,
		"0000",
		"0110",
		"0110",
		"0000",
	)
	mask, err := Identify(r, geometry.PointInt{X: 3, Y: 3})
	if err != nil {
		t.Fatal(err)
	}
	if mask.Label != 0 || mask.Count() != 12 {
		t.Errorf("Label %d Count %d, want 0 and 12", mask.Label, mask.Count())
	}
}

func TestIdentifyIdempotent(t *testing.T) {
	r := rasterFrom(t,
		"12121",
		"22211",
		"10201",
	)
	seed := geometry.PointInt{X: 1, Y: 1}
	a, err := Identify(r, seed)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Identify(r, seed)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equal(b) || a.Label != b.Label {
		t.Error("repeated identification differs")
	}
}

func TestIdentifyRejectsOutOfBounds(t *testing.T) {
	r := rasterFrom(t, "12", "21")
	for _, seed := range []geometry.PointInt{{X: -1, Y: 0}, {X: 2, Y: 0}, {X: 0, Y: -1}, {X: 0, Y: 2}} {
		if _, err := Identify(r, seed); !errors.Is(err, ErrSeedOutOfBounds) {
			t.Errorf("seed %v: err = %v, want ErrSeedOutOfBounds", seed, err)
		}
	}
}

func TestRelabelClosure(t *testing.T) {
	doc := docFrom(t,
		"11022",
		"10022",
		"33322",
	)
	before := doc.Snapshot()
	mask, err := IdentifyInDocument(doc, geometry.PointInt{X: 4, Y: 0})
	if err != nil {
		t.Fatal(err)
	}
	if err := Relabel(doc, mask, 3); err != nil {
		t.Fatal(err)
	}

	after := doc.Raster()
	for y := 0; y < after.Height; y++ {
		for x := 0; x < after.Width; x++ {
			if mask.At(x, y) {
				if after.At(x, y) != 3 {
					t.Errorf("(%d,%d) = %d, want 3", x, y, after.At(x, y))
				}
			} else if after.At(x, y) != before.At(x, y) {
				t.Errorf("(%d,%d) changed outside the region", x, y)
			}
		}
	}
	if doc.HistoryLen() != 2 {
		t.Errorf("HistoryLen = %d, want 2", doc.HistoryLen())
	}
	if !doc.Undo() || !doc.Raster().Equal(before) {
		t.Error("undo did not restore the pre-relabel raster")
	}
}

func TestRelabelRejectsStaleMask(t *testing.T) {
	doc := docFrom(t, "110", "100")
	mask, err := IdentifyInDocument(doc, geometry.PointInt{X: 0, Y: 0})
	if err != nil {
		t.Fatal(err)
	}
	if err := doc.Paint([]geometry.PointInt{{X: 2, Y: 1}}, 2); err != nil {
		t.Fatal(err)
	}
	if err := Relabel(doc, mask, 3); !errors.Is(err, ErrStaleMask) {
		t.Errorf("err = %v, want ErrStaleMask", err)
	}
	if err := Relabel(doc, NewMask(5, 5), 3); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("err = %v, want ErrSizeMismatch", err)
	}
}

func TestMaskToMat(t *testing.T) {
	m := NewMask(3, 2)
	m.Set(2, 1, true)
	mat, err := m.ToMat()
	if err != nil {
		t.Fatal(err)
	}
	defer mat.Close()
	if mat.Rows() != 2 || mat.Cols() != 3 {
		t.Fatalf("mat %dx%d", mat.Cols(), mat.Rows())
	}
	if mat.GetUCharAt(1, 2) != 255 || mat.GetUCharAt(0, 0) != 0 {
		t.Error("mat contents do not match mask")
	}
}

func TestIdentifyManyComponents(t *testing.T) {
	// A checkerboard with a solid bottom row: every pixel above the row is
	// its own 4-connected component, well past 255 labels.
	const w, h = 41, 40
	r := thmap.NewRaster(w, h)
	for y := 0; y < h-1; y++ {
		for x := 0; x < w; x++ {
			r.Set(x, y, uint8(1+(x+y)%2))
		}
	}
	for x := 0; x < w; x++ {
		r.Set(x, h-1, 3)
	}

	mask, err := Identify(r, geometry.PointInt{X: w - 2, Y: h - 3})
	if err != nil {
		t.Fatal(err)
	}
	if mask.Count() != 1 || !mask.At(w-2, h-3) {
		t.Errorf("checkerboard cell: Count = %d, want only the seed", mask.Count())
	}

	row, err := Identify(r, geometry.PointInt{X: w - 1, Y: h - 1})
	if err != nil {
		t.Fatal(err)
	}
	if row.Count() != w || row.Label != 3 {
		t.Errorf("bottom row: Count = %d label %d, want %d of label 3", row.Count(), row.Label, w)
	}
}
