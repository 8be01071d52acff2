package dialogs

import (
	"testing"
	"time"
)

func TestParseDocumentSpec(t *testing.T) {
	spec, err := ParseDocumentSpec(" 1024", "512 ", "2014-06-01T12:00:00")
	if err != nil {
		t.Fatal(err)
	}
	if spec.Width != 1024 || spec.Height != 512 {
		t.Errorf("size = %dx%d", spec.Width, spec.Height)
	}
	want := time.Date(2014, 6, 1, 12, 0, 0, 0, time.UTC)
	if !spec.Observed.Equal(want) {
		t.Errorf("Observed = %v, want %v", spec.Observed, want)
	}

	before := time.Now().UTC().Add(-time.Second)
	spec, err = ParseDocumentSpec("4", "4", "")
	if err != nil {
		t.Fatal(err)
	}
	if spec.Observed.Before(before) {
		t.Errorf("empty time gave %v, want now", spec.Observed)
	}
}

func TestParseDocumentSpecInvalid(t *testing.T) {
	for _, in := range [][3]string{
		{"0", "4", ""},
		{"4", "-1", ""},
		{"abc", "4", ""},
		{"4", "4", "yesterday"},
	} {
		if _, err := ParseDocumentSpec(in[0], in[1], in[2]); err == nil {
			t.Errorf("ParseDocumentSpec(%q) succeeded", in)
		}
	}
}
