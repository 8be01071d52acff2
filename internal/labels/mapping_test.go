package labels

import (
	"errors"
	"strings"
	"testing"
)

func mustNew(t *testing.T, entries map[uint8]string) *Mapping {
	t.Helper()
	m, err := New(entries)
	if err != nil {
		t.Fatalf("New(%v): %v", entries, err)
	}
	return m
}

func TestNewDropsUnlabeled(t *testing.T) {
	m := mustNew(t, map[uint8]string{0: "unlabeled", 1: "quiet_sun"})
	if m.Len() != 1 {
		t.Fatalf("Len = %d, want 1", m.Len())
	}
	if name, ok := m.Name(0); !ok || name != UnlabeledName {
		t.Errorf("Name(0) = %q, %v", name, ok)
	}
	if code, ok := m.Code("quiet_sun"); !ok || code != 1 {
		t.Errorf("Code(quiet_sun) = %d, %v", code, ok)
	}
	if code, ok := m.Code(UnlabeledName); !ok || code != 0 {
		t.Errorf("Code(unlabeled) = %d, %v", code, ok)
	}
}

func TestNewRejects(t *testing.T) {
	tests := []struct {
		name    string
		entries map[uint8]string
		want    error
	}{
		{"empty name", map[uint8]string{1: ""}, ErrEmptyName},
		{"duplicate", map[uint8]string{1: "limb", 2: "limb"}, ErrDuplicateName},
		{"too long", map[uint8]string{1: strings.Repeat("x", MaxNameLength+1)}, ErrNameTooLong},
	}
	for _, tt := range tests {
		_, err := New(tt.entries)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestFromNames(t *testing.T) {
	m, err := FromNames(map[string]int{"outer_space": 1, "quiet_sun": 7, "limb": 8})
	if err != nil {
		t.Fatal(err)
	}
	if m.MaxCode() != 8 {
		t.Errorf("MaxCode = %d, want 8", m.MaxCode())
	}
	entries := m.Entries()
	if len(entries) != 3 || entries[0].Code != 1 || entries[2].Name != "limb" {
		t.Errorf("Entries = %v", entries)
	}

	if _, err := FromNames(map[string]int{"bad": 256}); err == nil {
		t.Error("expected error for code 256")
	}
	if _, err := FromNames(map[string]int{"a": 3, "b": 3}); err == nil {
		t.Error("expected error for shared code")
	}
}

func TestValid(t *testing.T) {
	m := mustNew(t, map[uint8]string{3: "filament"})
	for code, want := range map[uint8]bool{0: true, 3: true, 4: false} {
		if got := m.Valid(code); got != want {
			t.Errorf("Valid(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestCompliesWithSymmetry(t *testing.T) {
	base := map[uint8]string{1: "outer_space", 7: "quiet_sun"}
	tests := []struct {
		name  string
		other map[uint8]string
		want  bool
	}{
		{"identical", map[uint8]string{1: "outer_space", 7: "quiet_sun"}, true},
		{"identical with zero", map[uint8]string{0: "unlabeled", 1: "outer_space", 7: "quiet_sun"}, true},
		{"superset", map[uint8]string{1: "outer_space", 7: "quiet_sun", 8: "limb"}, false},
		{"subset", map[uint8]string{1: "outer_space"}, false},
		{"renamed", map[uint8]string{1: "outer_space", 7: "quiet"}, false},
		{"swapped", map[uint8]string{7: "outer_space", 1: "quiet_sun"}, false},
		{"empty", map[uint8]string{}, false},
	}
	a := mustNew(t, base)
	for _, tt := range tests {
		b := mustNew(t, tt.other)
		ab, ba := a.CompliesWith(b), b.CompliesWith(a)
		if ab != ba {
			t.Errorf("%s: asymmetric result %v vs %v", tt.name, ab, ba)
		}
		if ab != tt.want {
			t.Errorf("%s: CompliesWith = %v, want %v", tt.name, ab, tt.want)
		}
		if tt.want && len(a.Diff(b)) != 0 {
			t.Errorf("%s: Diff = %v, want none", tt.name, a.Diff(b))
		}
		if !tt.want && len(a.Diff(b)) == 0 {
			t.Errorf("%s: Diff empty for mismatching mappings", tt.name)
		}
	}
	if a.CompliesWith(nil) {
		t.Error("CompliesWith(nil) should be false")
	}
}
