package colorutil

import (
	"image/color"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#FF8000", color.RGBA{R: 255, G: 128, B: 0, A: 255}},
		{"#f80", color.RGBA{R: 255, G: 136, B: 0, A: 255}},
		{"#00000080", color.RGBA{R: 0, G: 0, B: 0, A: 128}},
		{"yellow", color.RGBA{R: 255, G: 255, B: 0, A: 255}},
		{"  Black ", color.RGBA{R: 0, G: 0, B: 0, A: 255}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{"", "#12", "#GGGGGG", "notacolor"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) expected error", in)
		}
	}
}

func TestHex(t *testing.T) {
	if got := Hex(color.RGBA{R: 1, G: 171, B: 255, A: 255}); got != "#01ABFF" {
		t.Errorf("Hex = %s", got)
	}
}

func TestWithAlpha(t *testing.T) {
	got := WithAlpha(White, 128)
	if got.A != 128 || got.R != 128 {
		t.Errorf("WithAlpha = %v", got)
	}
}
