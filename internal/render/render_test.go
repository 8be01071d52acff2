package render

import (
	"image"
	"image/color"
	_ "image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"solar-annotator/internal/boundary"
	"solar-annotator/internal/imageset"
	"solar-annotator/internal/labels"
	"solar-annotator/internal/thmap"
	"solar-annotator/pkg/geometry"

	_ "golang.org/x/image/tiff"
	"gonum.org/v1/gonum/mat"
)

var (
	white = color.RGBA{255, 255, 255, 255}
	red   = color.RGBA{255, 0, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
)

func TestColorize(t *testing.T) {
	r := thmap.NewRaster(3, 2)
	r.Set(1, 0, 1)
	r.Set(2, 1, 2)
	r.Set(0, 1, 9)
	img := Colorize(r, TablePalette{Table: []color.RGBA{white, red, blue}, Fallback: white})

	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{0, 0, white},
		{1, 0, red},
		{2, 1, blue},
		{0, 1, white}, // past the end of the table
	}
	for _, tt := range tests {
		if got := img.RGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestDrawLine(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	DrawLine(img, 0, 0, 9, 9, red, 1)
	for i := 0; i < 10; i++ {
		if img.RGBAAt(i, i) != red {
			t.Errorf("diagonal pixel %d not drawn", i)
		}
	}
	if img.RGBAAt(0, 9) == red {
		t.Error("off-line pixel drawn")
	}
	// clipped without panicking
	DrawLine(img, -5, 5, 20, 5, blue, 3)
	if img.RGBAAt(9, 6) != blue {
		t.Error("thick line missing its second row")
	}
}

func TestDrawOutline(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	o := boundary.Outline{
		Primary:   boundary.Path{{X: 1, Y: 1}, {X: 4, Y: 1}},
		Secondary: []boundary.Path{{{X: 6, Y: 6}}},
	}
	DrawOutline(img, o, OutlineStyle{Primary: red, Secondary: blue, Thickness: 1}, 2)
	if img.RGBAAt(2, 2) != red || img.RGBAAt(8, 2) != red {
		t.Error("primary path not drawn at zoom 2")
	}
	if img.RGBAAt(12, 12) != blue {
		t.Error("single-point fragment not drawn")
	}
}

func TestDrawPolylineClosed(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	pts := []geometry.Point2D{{X: 1, Y: 1}, {X: 8, Y: 1}, {X: 8, Y: 8}}
	DrawPolyline(img, pts, red, 1, 1, false)
	if img.RGBAAt(4, 4) == red {
		t.Error("open polyline was closed")
	}
	DrawPolyline(img, pts, red, 1, 1, true)
	if img.RGBAAt(4, 4) != red {
		t.Error("closing segment missing")
	}
}

func TestCompositeBlend(t *testing.T) {
	bottom := image.NewRGBA(image.Rect(0, 0, 2, 1))
	bottom.SetRGBA(0, 0, white)
	bottom.SetRGBA(1, 0, white)
	top := image.NewRGBA(image.Rect(0, 0, 2, 1))
	top.SetRGBA(0, 0, red)

	c := NewComposite(2, 1)
	c.Add(bottom, BlendNormal, 1)
	c.Add(top, BlendNormal, 0.5)
	out := c.Render()

	if got := out.RGBAAt(0, 0); got != (color.RGBA{255, 128, 128, 255}) {
		t.Errorf("half red over white = %v", got)
	}
	// transparent top pixel leaves the bottom untouched
	if got := out.RGBAAt(1, 0); got != white {
		t.Errorf("transparent pixel = %v, want white", got)
	}

	m := NewComposite(2, 1)
	m.Add(bottom, BlendNormal, 1)
	m.Add(top, BlendMultiply, 1)
	if got := m.Render().RGBAAt(0, 0); got != red {
		t.Errorf("multiply = %v, want red", got)
	}
}

func TestThreeColor(t *testing.T) {
	set := imageset.New(time.Now())
	for i, name := range []string{"171", "195", "284"} {
		data := mat.NewDense(1, 2, []float64{0, float64(i + 1)})
		set.Add(&imageset.Channel{Name: name, Data: data, Header: thmap.NewHeader()})
	}
	img, err := ThreeColor(set, "284", "195", "171", imageset.StretchOptions{Low: 0, High: 1, Gamma: 1})
	if err != nil {
		t.Fatal(err)
	}
	if got := img.RGBAAt(1, 0); got != white {
		t.Errorf("bright pixel = %v, want white", got)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{A: 255}) {
		t.Errorf("dark pixel = %v, want black", got)
	}
	if _, err := ThreeColor(set, "304", "195", "171", imageset.DefaultStretch()); err == nil {
		t.Error("expected an error for a missing channel")
	}
}

func TestLegend(t *testing.T) {
	entries := []labels.Entry{{Code: 1, Name: "outer_space"}, {Code: 7, Name: "quiet_sun"}}
	img := Legend(entries, TablePalette{Table: []color.RGBA{white, red, white, white, white, white, white, blue}}, 2)
	if img.Bounds().Dy() != 2*14+2 {
		t.Errorf("legend height = %d", img.Bounds().Dy())
	}
	if img.RGBAAt(3, 3) != red {
		t.Errorf("first swatch = %v, want red", img.RGBAAt(3, 3))
	}
	if img.RGBAAt(3, 17) != blue {
		t.Errorf("second swatch = %v, want blue", img.RGBAAt(3, 17))
	}
	if TextWidth("ab", 1) != 7 {
		t.Errorf("TextWidth = %d, want 7", TextWidth("ab", 1))
	}
}

func TestSceneRender(t *testing.T) {
	r := thmap.NewRaster(2, 1)
	r.Set(0, 0, 1)
	palette := TablePalette{Table: []color.RGBA{white, red}, Fallback: white}

	plain := Scene{Raster: r, Palette: palette}.Render()
	if plain.RGBAAt(0, 0) != red || plain.RGBAAt(1, 0) != white {
		t.Errorf("scene without background = %v %v", plain.RGBAAt(0, 0), plain.RGBAAt(1, 0))
	}

	// a 1x1 black background is stretched to the raster size
	bg := image.NewRGBA(image.Rect(0, 0, 1, 1))
	bg.SetRGBA(0, 0, color.RGBA{A: 255})
	out := Scene{Raster: r, Palette: palette, Background: bg, MapOpacity: 0.5}.Render()
	if out.Bounds().Dx() != 2 {
		t.Fatalf("scene width = %d, want 2", out.Bounds().Dx())
	}
	if got := out.RGBAAt(0, 0); got != (color.RGBA{128, 0, 0, 255}) {
		t.Errorf("half red over black = %v", got)
	}
	if got := out.RGBAAt(1, 0); got != (color.RGBA{128, 128, 128, 255}) {
		t.Errorf("half white over black = %v", got)
	}
}

func TestPreview(t *testing.T) {
	set := imageset.New(time.Now())
	set.Add(&imageset.Channel{Name: "195", Data: mat.NewDense(1, 2, []float64{0, 10}), Header: thmap.NewHeader()})
	stretch := imageset.StretchOptions{Low: 0, High: 1, Gamma: 1}

	img, err := Preview(set, PreviewOptions{Mode: PreviewNone})
	if err != nil || img != nil {
		t.Errorf("none mode = %v, %v", img, err)
	}
	img, err = Preview(nil, PreviewOptions{Mode: PreviewChannel, Channel: "195"})
	if err != nil || img != nil {
		t.Errorf("nil set = %v, %v", img, err)
	}
	img, err = Preview(set, PreviewOptions{Mode: PreviewChannel, Channel: "195", Stretch: stretch})
	if err != nil {
		t.Fatal(err)
	}
	if img.RGBAAt(1, 0) != white {
		t.Errorf("bright pixel = %v", img.RGBAAt(1, 0))
	}
	if _, err := Preview(set, PreviewOptions{Mode: PreviewChannel, Channel: "304"}); err == nil {
		t.Error("expected an error for a missing channel")
	}
	if _, err := Preview(set, PreviewOptions{Mode: "false-color"}); err == nil {
		t.Error("expected an error for an unknown mode")
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(2, 1, red)

	for _, name := range []string{"map.png", "map.TIFF"} {
		path := filepath.Join(dir, name)
		if err := WriteFile(path, img); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		got, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("decode %s: %v", name, err)
		}
		if r, g, b, _ := got.At(2, 1).RGBA(); r>>8 != 255 || g != 0 || b != 0 {
			t.Errorf("%s: pixel = %v", name, got.At(2, 1))
		}
	}
	if err := WriteFile(filepath.Join(dir, "map.jpg"), img); err == nil {
		t.Error("expected an error for .jpg")
	}
}
