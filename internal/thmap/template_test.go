package thmap

import (
	"testing"
	"time"

	"solar-annotator/internal/labels"
)

func TestDiskMask(t *testing.T) {
	const size = 2048
	mask := DiskMask(size, size, 500)
	if mask[0] {
		t.Error("corner should be outside the disk")
	}
	if !mask[1024*size+1024] {
		t.Error("center should be inside the disk")
	}
}

func TestDiskMaskSymmetric(t *testing.T) {
	mask := DiskMask(8, 8, 2)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if mask[y*8+x] != mask[(7-y)*8+(7-x)] {
				t.Fatalf("mask not point-symmetric at (%d,%d)", x, y)
			}
		}
	}
}

func TestNewTemplate(t *testing.T) {
	mapping, err := labels.New(map[uint8]string{1: "outer_space", 7: "quiet_sun", 8: "limb", 4: "filament"})
	if err != nil {
		t.Fatal(err)
	}
	ref := NewHeader(
		Card{Key: "CRPIX1", Value: 50.5},
		Card{Key: "CDELT1", Value: 2.5},
		Card{Key: "EXPTIME", Value: 1.0},
	)
	doc, err := NewTemplate(mapping, TemplateOptions{
		Width: 100, Height: 100,
		SolarRadius:   30,
		LimbThickness: 10,
		Observed:      time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC),
		Reference:     ref,
	})
	if err != nil {
		t.Fatal(err)
	}

	r := doc.Raster()
	if got := r.At(0, 0); got != 1 {
		t.Errorf("corner = %d, want outer_space", got)
	}
	if got := r.At(50, 50); got != 7 {
		t.Errorf("center = %d, want quiet_sun", got)
	}
	// 30 px right of center sits on the limb ring (25 < r < 35)
	if got := r.At(80, 50); got != 8 {
		t.Errorf("limb sample = %d, want limb", got)
	}
	if _, ok := doc.Header().Get("CRPIX1"); !ok {
		t.Error("WCS key not copied")
	}
	if _, ok := doc.Header().Get("EXPTIME"); ok {
		t.Error("non-WCS key copied")
	}
	if _, err := doc.ObservedAt(); err != nil {
		t.Error(err)
	}
}

func TestNewTemplateNeedsClasses(t *testing.T) {
	mapping, _ := labels.New(map[uint8]string{1: "outer_space"})
	_, err := NewTemplate(mapping, TemplateOptions{Width: 10, Height: 10, SolarRadius: 3})
	if err == nil {
		t.Error("expected error for missing limb/quiet_sun classes")
	}
}
