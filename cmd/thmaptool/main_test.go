package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"solar-annotator/internal/imageset"
	"solar-annotator/internal/thmap"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, fn func([]string, io.Writer) error, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	if err := fn(args, &out); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestNewRelabelInfo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.fits")

	out := run(t, runNew, "-size", "8x6", "-date", "2014-06-01T12:00:00", "-o", path)
	if !strings.Contains(out, "Wrote 8x6") {
		t.Errorf("new output = %q", out)
	}

	run(t, runRelabel, "-at", "2,2", "-label", "quiet_sun", path)

	out = run(t, runInfo, path)
	if !strings.Contains(out, "DATE-OBS: 2014-06-01T12:00:00.000") {
		t.Errorf("info lacks DATE-OBS:\n%s", out)
	}
	var found bool
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "quiet_sun") {
			found = true
			if !strings.Contains(line, " 48 ") {
				t.Errorf("quiet_sun line = %q, want 48 pixels", line)
			}
		}
	}
	if !found {
		t.Errorf("info lacks quiet_sun:\n%s", out)
	}
	if strings.Contains(out, "Differs") {
		t.Errorf("default map reported as differing:\n%s", out)
	}
}

func TestTrace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.fits")
	run(t, runNew, "-size", "8x6", "-o", path)

	for _, method := range []string{"greedy", "contour"} {
		out := run(t, runTrace, "-at", "3,3", "-method", method, path)
		var doc outlineDoc
		if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
			t.Fatalf("%s: %v\n%s", method, err, out)
		}
		if doc.Method != method || doc.Seed != [2]int{3, 3} {
			t.Errorf("%s: header = %+v", method, doc)
		}
		// the interior of the 8x6 frame is a 6x4 block with a 16 pixel ring
		if len(doc.Primary) != 16 {
			t.Errorf("%s: primary has %d points, want 16", method, len(doc.Primary))
		}
	}

	out := run(t, runTrace, "-at", "3,3", "-simplify", "0.5", path)
	var doc outlineDoc
	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Primary) >= 16 || len(doc.Primary) < 2 {
		t.Errorf("simplified primary has %d points", len(doc.Primary))
	}

	var buf bytes.Buffer
	if err := runTrace([]string{"-at", "8,0", path}, &buf); err == nil {
		t.Error("expected an error for a seed outside the map")
	}
	if err := runTrace([]string{"-at", "1,1", "-method", "marching", path}, &buf); err == nil {
		t.Error("expected an error for an unknown method")
	}
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.fits")
	png := filepath.Join(dir, "a.png")
	run(t, runNew, "-size", "8x6", "-o", path)
	run(t, runRender, "-legend", "-at", "3,3", "-o", png, path)

	info, err := os.Stat(png)
	if err != nil || info.Size() == 0 {
		t.Fatalf("no image written: %v", err)
	}

	var buf bytes.Buffer
	if err := runRender([]string{"-o", filepath.Join(dir, "a.bmp"), path}, &buf); err == nil {
		t.Error("expected an error for an unsupported format")
	}
}

func TestTemplateFromFITS(t *testing.T) {
	dir := t.TempDir()
	h := thmap.NewHeader()
	h.SetDateObs(time.Date(2019, 9, 6, 12, 30, 0, 0, time.UTC))
	h.Set("DIAM_SUN", 20.0, "solar diameter in pixels")
	ch := &imageset.Channel{Name: "195", Data: mat.NewDense(32, 32, nil), Header: h}

	var data bytes.Buffer
	if err := imageset.EncodeFITS(&data, ch); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(dir, "195.fits")
	if err := os.WriteFile(src, data.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "t.fits")
	if got := run(t, runTemplate, "-fits", src, "-o", out); !strings.Contains(got, "32x32") {
		t.Errorf("template output = %q", got)
	}
	info := run(t, runInfo, out)
	if !strings.Contains(info, "DATE-OBS: 2019-09-06T12:30:00.000") {
		t.Errorf("template DATE-OBS not carried over:\n%s", info)
	}

	var buf bytes.Buffer
	if err := runTemplate([]string{"-o", out}, &buf); err == nil {
		t.Error("expected an error without a source")
	}
}

func TestRelabelErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.fits")
	run(t, runNew, "-size", "4x4", "-o", path)

	var buf bytes.Buffer
	if err := runRelabel([]string{"-at", "1,1", "-label", "sunspot", path}, &buf); err == nil {
		t.Error("expected an error for an unknown class")
	}
	if err := runRelabel([]string{"-at", "9,1", "-label", "limb", path}, &buf); err == nil {
		t.Error("expected an error for a seed outside the map")
	}
}

func TestParseHelpers(t *testing.T) {
	if w, h, err := parseSize("640X480"); err != nil || w != 640 || h != 480 {
		t.Errorf("parseSize = %d, %d, %v", w, h, err)
	}
	for _, s := range []string{"640", "0x4", "ax4"} {
		if _, _, err := parseSize(s); err == nil {
			t.Errorf("parseSize(%q) succeeded", s)
		}
	}
	if x, y, err := parsePoint(" 3, 4"); err != nil || x != 3 || y != 4 {
		t.Errorf("parsePoint = %d, %d, %v", x, y, err)
	}
	if _, _, err := parsePoint("3"); err == nil {
		t.Error("parsePoint accepted a single number")
	}
}
