package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	p := LoadFrom(dir)
	if p.String(KeyLastDir) != "" || p.FloatWithFallback(KeyMapOpacity, 0.4) != 0.4 {
		t.Fatal("fresh preferences not empty")
	}
	p.SetString(KeyLastDir, "/data/maps")
	p.SetFloat(KeyWindowWidth, 1280)
	if err := p.Save(); err != nil {
		t.Fatal(err)
	}

	q := LoadFrom(dir)
	if q.String(KeyLastDir) != "/data/maps" {
		t.Errorf("lastDirectory = %q", q.String(KeyLastDir))
	}
	if q.FloatWithFallback(KeyWindowWidth, 0) != 1280 {
		t.Errorf("windowWidth = %v", q.FloatWithFallback(KeyWindowWidth, 0))
	}
	// a string stored under a float key falls back
	if q.FloatWithFallback(KeyLastDir, 7) != 7 {
		t.Error("type mismatch did not fall back")
	}
}

func TestLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, prefsFile), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if p := LoadFrom(dir); p.String(KeyLastConfig) != "" {
		t.Error("corrupt file produced values")
	}
}
