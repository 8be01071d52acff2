package thmap

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"solar-annotator/internal/labels"

	"github.com/astrogo/fitsio"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	doc := blankDoc(t, 6, 4)
	if err := doc.Paint(block(1, 1, 3, 2), 2); err != nil {
		t.Fatal(err)
	}
	if err := doc.Paint(block(5, 0, 5, 3), 3); err != nil {
		t.Fatal(err)
	}
	doc.Header().Set("TELESCOP", "GOES-16", "")
	doc.Header().Set("CDELT1", 2.5, "arcsec per pixel")

	path := filepath.Join(t.TempDir(), "map.fits")
	if err := doc.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.Raster().Equal(doc.Raster()) {
		t.Error("raster differs after round trip")
	}
	if !loaded.Mapping().CompliesWith(doc.Mapping()) {
		t.Errorf("mapping differs: %v", doc.Mapping().Diff(loaded.Mapping()))
	}
	if loaded.HistoryLen() != 1 {
		t.Errorf("loaded history = %d, want 1", loaded.HistoryLen())
	}

	obs, err := loaded.ObservedAt()
	if err != nil {
		t.Fatal(err)
	}
	if !obs.Equal(time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("DATE-OBS = %v", obs)
	}
	if s, _ := loaded.Header().String("TELESCOP"); s != "GOES-16" {
		t.Errorf("TELESCOP = %q", s)
	}
	if v, ok := loaded.Header().Float("CDELT1"); !ok || v != 2.5 {
		t.Errorf("CDELT1 = %v, %v", v, ok)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("this is not a FITS file at all")))
	if !errors.Is(err, ErrMalformedDocument) {
		t.Errorf("err = %v, want ErrMalformedDocument", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.fits"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want not-exist", err)
	}
}

func TestDecodeRejectsDuplicateCodes(t *testing.T) {
	doc := blankDoc(t, 2, 2)

	var buf bytes.Buffer
	f, err := fitsio.Create(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if err := doc.writePrimary(f); err != nil {
		t.Fatal(err)
	}
	rows := []labels.Entry{{Code: 1, Name: "quiet_sun"}, {Code: 1, Name: "filament"}}
	if err := writeLabelRows(f, rows); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	_, err = Decode(&buf)
	if !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("err = %v, want ErrMalformedDocument", err)
	}
	if !strings.Contains(err.Error(), "quiet_sun") || !strings.Contains(err.Error(), "filament") {
		t.Errorf("err = %v, want both names", err)
	}
}
