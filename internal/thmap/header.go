package thmap

import (
	"fmt"
	"strings"
	"time"
)

// KeyDateObs is the header key holding the observation timestamp.
const KeyDateObs = "DATE-OBS"

// WCSKeys are pointing keys copied from the reference channel into new
// documents when present.
var WCSKeys = []string{
	"WCSNAME", "CTYPE1", "CTYPE2", "CUNIT1", "CUNIT2",
	"CRPIX1", "CRPIX2", "CRVAL1", "CRVAL2", "CDELT1", "CDELT2",
	"CROTA", "CROTA2", "PC1_1", "PC1_2", "PC2_1", "PC2_2",
	"DSUN_OBS", "DIAM_SUN", "RSUN",
}

// dateLayouts are the DATE-OBS formats found in solar FITS headers.
var dateLayouts = []string{
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// Card is one header keyword.
type Card struct {
	Key     string
	Value   interface{}
	Comment string
}

// Header is an ordered list of cards with unique keys.
type Header struct {
	cards []Card
}

// NewHeader creates a header from cards; later duplicates replace earlier ones.
func NewHeader(cards ...Card) *Header {
	h := &Header{}
	for _, c := range cards {
		h.Set(c.Key, c.Value, c.Comment)
	}
	return h
}

// Set adds or replaces key.
func (h *Header) Set(key string, value interface{}, comment string) {
	key = strings.ToUpper(strings.TrimSpace(key))
	for i := range h.cards {
		if h.cards[i].Key == key {
			h.cards[i].Value = value
			h.cards[i].Comment = comment
			return
		}
	}
	h.cards = append(h.cards, Card{Key: key, Value: value, Comment: comment})
}

// Get returns the value for key.
func (h *Header) Get(key string) (interface{}, bool) {
	key = strings.ToUpper(key)
	for _, c := range h.cards {
		if c.Key == key {
			return c.Value, true
		}
	}
	return nil, false
}

// String returns key as a string.
func (h *Header) String(key string) (string, bool) {
	v, ok := h.Get(key)
	if !ok {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

// Float returns key as a float64 when it holds a number.
func (h *Header) Float(key string) (float64, bool) {
	v, ok := h.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

// Cards returns a copy of the cards in insertion order.
func (h *Header) Cards() []Card {
	out := make([]Card, len(h.cards))
	copy(out, h.cards)
	return out
}

// Len returns the number of cards.
func (h *Header) Len() int {
	return len(h.cards)
}

// Clone returns an independent copy.
func (h *Header) Clone() *Header {
	return &Header{cards: h.Cards()}
}

// CopyFrom copies the listed keys present in src.
func (h *Header) CopyFrom(src *Header, keys []string) {
	for _, k := range keys {
		for _, c := range src.cards {
			if c.Key == k {
				h.Set(c.Key, c.Value, c.Comment)
			}
		}
	}
}

// DateObs parses the observation timestamp.
func (h *Header) DateObs() (time.Time, error) {
	s, ok := h.String(KeyDateObs)
	if !ok {
		return time.Time{}, fmt.Errorf("header has no %s", KeyDateObs)
	}
	return ParseDateObs(s)
}

// SetDateObs stores t as an ISO timestamp with millisecond precision.
func (h *Header) SetDateObs(t time.Time) {
	h.Set(KeyDateObs, FormatDateObs(t), "observation start time")
}

// FormatDateObs formats t the way DATE-OBS values are written.
func FormatDateObs(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000")
}

// ParseDateObs accepts the common DATE-OBS layouts. Timestamps without a
// zone are UTC.
func ParseDateObs(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized %s %q", KeyDateObs, s)
}
