package config

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"solar-annotator/internal/boundary"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	m := cfg.Mapping()
	if m.Len() != 8 {
		t.Errorf("default has %d classes, want 8", m.Len())
	}
	for name, want := range map[string]uint8{"outer_space": 1, "quiet_sun": 7, "limb": 8, "flare": 9} {
		if got, ok := m.Code(name); !ok || got != want {
			t.Errorf("Code(%q) = %d, %v; want %d", name, got, ok, want)
		}
	}
	if cfg.MaxIndex() != 9 {
		t.Errorf("MaxIndex = %d, want 9", cfg.MaxIndex())
	}
	if cfg.Retrieval.Timeout != time.Minute {
		t.Errorf("Timeout = %v", cfg.Retrieval.Timeout)
	}
	if p := cfg.TracerParams(); p.Proximity != 5 || p.MinRemaining != 5 || p.MinContourLength != 5 {
		t.Errorf("TracerParams = %+v", p)
	}
	if _, ok := cfg.Tracer().(*boundary.GreedyTracer); !ok {
		t.Errorf("Tracer = %T, want greedy", cfg.Tracer())
	}
}

func TestColorTable(t *testing.T) {
	cfg := Default()
	table := cfg.ColorTable()
	if len(table) != 10 {
		t.Fatalf("table has %d entries, want 10", len(table))
	}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	// codes 0 and 2 have no class
	if table[0] != white || table[2] != white {
		t.Errorf("unused indices = %v, %v; want white", table[0], table[2])
	}
	if table[1] != (color.RGBA{A: 255}) {
		t.Errorf("outer_space = %v, want black", table[1])
	}
	if cfg.Color(200) != white {
		t.Error("out-of-table code should use the unlabeled color")
	}
}

func TestParseJSON(t *testing.T) {
	data := `{
		"classes": {"outer_space": 1, "quiet_sun": 2},
		"display": {"colors": {"outer_space": "black", "quiet_sun": "#ff0"}},
		"boundary": {"method": "contour", "proximity": 3, "min_remaining": 0, "min_contour_length": 9}
	}`
	cfg, err := Parse([]byte(data))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Color(2) != (color.RGBA{R: 255, G: 255, A: 255}) {
		t.Errorf("quiet_sun color = %v", cfg.Color(2))
	}
	if p := cfg.TracerParams(); p.Proximity != 3 || p.MinRemaining != 0 || p.MinContourLength != 9 {
		t.Errorf("TracerParams = %+v", p)
	}
	if ct, ok := cfg.Tracer().(*boundary.ContourTracer); !ok || ct.MinLength != 9 {
		t.Errorf("Tracer = %#v, want contour with MinLength 9", cfg.Tracer())
	}
	if cfg.Retrieval.PreviewChannel != "195" {
		t.Errorf("PreviewChannel = %q, want default 195", cfg.Retrieval.PreviewChannel)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"no classes", `display: {colors: {}}`, "at least one class"},
		{"code range", "classes: {a: 300}\ndisplay: {colors: {a: red}}", "outside 1..255"},
		{"shared code", "classes: {a: 1, b: 1}\ndisplay: {colors: {a: red, b: blue}}", "assigned to both"},
		{"missing color", "classes: {a: 1, b: 2}\ndisplay: {colors: {a: red}}", `no color for class "b"`},
		{"bad color", "classes: {a: 1}\ndisplay: {colors: {a: notacolor}}", "unknown color name"},
		{"stray color", "classes: {a: 1}\ndisplay: {colors: {a: red, b: blue}}", `unknown class "b"`},
		{"preview channel", "classes: {a: 1}\ndisplay: {colors: {a: red}}\nretrieval: {channels: [\"171\"], preview_channel: \"304\"}", "preview_channel"},
		{"proximity", "classes: {a: 1}\ndisplay: {colors: {a: red}}\nboundary: {proximity: -2}", "proximity"},
		{"syntax", "classes: [", "parse"},
		{"contour length", "classes: {a: 1}\ndisplay: {colors: {a: red}}\nboundary: {min_contour_length: -1}", "min_contour_length"},
		{"tracer method", "classes: {a: 1}\ndisplay: {colors: {a: red}}\nboundary: {method: marching}", "boundary.method"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadAndMarshal(t *testing.T) {
	dir := t.TempDir()
	data, err := Default().Marshal()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "classes.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != path {
		t.Errorf("Path = %q", cfg.Path)
	}
	if !cfg.Mapping().CompliesWith(Default().Mapping()) {
		t.Error("reloaded mapping differs from the default")
	}
	if cfg.Retrieval.Timeout != time.Minute {
		t.Errorf("Timeout = %v after round trip", cfg.Retrieval.Timeout)
	}
	if strings.Index(string(data), "outer_space") > strings.Index(string(data), "flare") {
		t.Error("classes not written in code order")
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestClassList(t *testing.T) {
	list := Default().ClassList()
	for i := 1; i < len(list); i++ {
		if list[i-1].Code >= list[i].Code {
			t.Fatalf("ClassList not sorted: %v", list)
		}
	}
}
