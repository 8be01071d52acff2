// Package labels provides the code-to-name table of thematic map classes.
package labels

import (
	"errors"
	"fmt"
	"sort"
)

// Unlabeled is the reserved background code. It never appears as a mapping
// entry.
const Unlabeled uint8 = 0

// UnlabeledName is the display name of the background code.
const UnlabeledName = "unlabeled"

// MaxNameLength is the width of the feature name column in saved documents.
const MaxNameLength = 22

// Errors returned by New.
var (
	ErrEmptyName     = errors.New("label name is empty")
	ErrDuplicateName = errors.New("label name used by more than one code")
	ErrNameTooLong   = errors.New("label name too long")
)

// Entry is one row of a mapping.
type Entry struct {
	Code uint8
	Name string
}

// Mapping is an immutable bijection between label codes (1..255) and names.
type Mapping struct {
	byCode map[uint8]string
	byName map[string]uint8
}

// New validates entries and builds a Mapping. A code 0 entry is dropped since
// 0 is reserved for unlabeled pixels.
func New(entries map[uint8]string) (*Mapping, error) {
	m := &Mapping{
		byCode: make(map[uint8]string, len(entries)),
		byName: make(map[string]uint8, len(entries)),
	}
	for code, name := range entries {
		if code == Unlabeled {
			continue
		}
		if name == "" {
			return nil, fmt.Errorf("code %d: %w", code, ErrEmptyName)
		}
		if len(name) > MaxNameLength {
			return nil, fmt.Errorf("code %d %q: %w (max %d bytes)", code, name, ErrNameTooLong, MaxNameLength)
		}
		if other, ok := m.byName[name]; ok {
			lo, hi := other, code
			if lo > hi {
				lo, hi = hi, lo
			}
			return nil, fmt.Errorf("%q on codes %d and %d: %w", name, lo, hi, ErrDuplicateName)
		}
		m.byCode[code] = name
		m.byName[name] = code
	}
	return m, nil
}

// FromNames builds a Mapping from a name-to-code table, the shape used by
// configuration files.
func FromNames(classes map[string]int) (*Mapping, error) {
	entries := make(map[uint8]string, len(classes))
	for name, code := range classes {
		if code < 1 || code > 255 {
			return nil, fmt.Errorf("class %q: code %d outside 1..255", name, code)
		}
		if prev, ok := entries[uint8(code)]; ok {
			return nil, fmt.Errorf("code %d assigned to both %q and %q", code, prev, name)
		}
		entries[uint8(code)] = name
	}
	return New(entries)
}

// Len returns the number of mapped codes.
func (m *Mapping) Len() int {
	return len(m.byCode)
}

// Name returns the name for code. Code 0 reports UnlabeledName.
func (m *Mapping) Name(code uint8) (string, bool) {
	if code == Unlabeled {
		return UnlabeledName, true
	}
	name, ok := m.byCode[code]
	return name, ok
}

// Code returns the code for name.
func (m *Mapping) Code(name string) (uint8, bool) {
	if name == UnlabeledName {
		if _, taken := m.byName[name]; !taken {
			return Unlabeled, true
		}
	}
	code, ok := m.byName[name]
	return code, ok
}

// Valid reports whether code may appear in a raster governed by m.
func (m *Mapping) Valid(code uint8) bool {
	if code == Unlabeled {
		return true
	}
	_, ok := m.byCode[code]
	return ok
}

// Entries returns the mapping sorted by code.
func (m *Mapping) Entries() []Entry {
	out := make([]Entry, 0, len(m.byCode))
	for code, name := range m.byCode {
		out = append(out, Entry{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// MaxCode returns the largest mapped code, or 0 for an empty mapping.
func (m *Mapping) MaxCode() uint8 {
	var max uint8
	for code := range m.byCode {
		if code > max {
			max = code
		}
	}
	return max
}

// CompliesWith reports whether m and other hold identical entries. Both
// directions are checked so the result is symmetric.
func (m *Mapping) CompliesWith(other *Mapping) bool {
	if other == nil {
		return false
	}
	for code, name := range m.byCode {
		if otherName, ok := other.byCode[code]; !ok || otherName != name {
			return false
		}
	}
	for code, name := range other.byCode {
		if ownName, ok := m.byCode[code]; !ok || ownName != name {
			return false
		}
	}
	return true
}

// Diff describes how other differs from m, for error messages.
func (m *Mapping) Diff(other *Mapping) []string {
	var diffs []string
	for _, e := range m.Entries() {
		otherName, ok := other.byCode[e.Code]
		switch {
		case !ok:
			diffs = append(diffs, fmt.Sprintf("code %d (%s) missing", e.Code, e.Name))
		case otherName != e.Name:
			diffs = append(diffs, fmt.Sprintf("code %d is %q, expected %q", e.Code, otherName, e.Name))
		}
	}
	for _, e := range other.Entries() {
		if _, ok := m.byCode[e.Code]; !ok {
			diffs = append(diffs, fmt.Sprintf("unexpected code %d (%s)", e.Code, e.Name))
		}
	}
	return diffs
}
