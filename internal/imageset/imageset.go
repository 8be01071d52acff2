// Package imageset loads the multi-channel solar images shown behind a
// thematic map while it is being labeled.
package imageset

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"solar-annotator/internal/thmap"

	"gonum.org/v1/gonum/mat"
)

// ErrNoData is wrapped by DataUnavailableError.
var ErrNoData = errors.New("no image data")

// DataUnavailableError reports that no images exist for a requested time.
// It is not a failure of the source itself.
type DataUnavailableError struct {
	Observed time.Time
	Channel  string // empty when the whole set is missing
	Source   string
}

func (e *DataUnavailableError) Error() string {
	stamp := e.Observed.UTC().Format(time.RFC3339)
	if e.Channel == "" {
		return fmt.Sprintf("no images for %s in %s", stamp, e.Source)
	}
	return fmt.Sprintf("no %s image for %s in %s", e.Channel, stamp, e.Source)
}

func (e *DataUnavailableError) Unwrap() error { return ErrNoData }

// Channel is one wavelength image.
type Channel struct {
	Name   string
	Data   *mat.Dense // rows x cols = height x width
	Header *thmap.Header
	Path   string // file or URL the channel came from
}

// Width returns the image width in pixels.
func (c *Channel) Width() int {
	_, cols := c.Data.Dims()
	return cols
}

// Height returns the image height in pixels.
func (c *Channel) Height() int {
	rows, _ := c.Data.Dims()
	return rows
}

// SolarRadius returns the radius of the solar disk in pixels. DIAM_SUN is
// preferred; otherwise RSUN_OBS (arcsec) is divided by CDELT1 (arcsec/pixel).
func (c *Channel) SolarRadius() (float64, error) {
	if c.Header == nil {
		return 0, fmt.Errorf("channel %s has no header", c.Name)
	}
	if d, ok := c.Header.Float("DIAM_SUN"); ok && d > 0 {
		return d / 2, nil
	}
	rsun, ok1 := c.Header.Float("RSUN_OBS")
	cdelt, ok2 := c.Header.Float("CDELT1")
	if ok1 && ok2 && cdelt != 0 {
		if cdelt < 0 {
			cdelt = -cdelt
		}
		return rsun / cdelt, nil
	}
	return 0, fmt.Errorf("channel %s: header has neither DIAM_SUN nor RSUN_OBS/CDELT1", c.Name)
}

// ImageSet holds the channels observed at one time.
type ImageSet struct {
	Observed time.Time
	Channels map[string]*Channel
}

// New creates an empty image set.
func New(observed time.Time) *ImageSet {
	return &ImageSet{Observed: observed, Channels: make(map[string]*Channel)}
}

// Add stores a channel, replacing any channel of the same name.
func (s *ImageSet) Add(c *Channel) {
	s.Channels[c.Name] = c
}

// Channel returns the named channel.
func (s *ImageSet) Channel(name string) (*Channel, bool) {
	c, ok := s.Channels[name]
	return c, ok
}

// Names lists channel names in sorted order.
func (s *ImageSet) Names() []string {
	names := make([]string, 0, len(s.Channels))
	for name := range s.Channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reference returns the preferred channel if present, else the first channel
// by name. It returns nil for an empty set.
func (s *ImageSet) Reference(preferred string) *Channel {
	if c, ok := s.Channels[preferred]; ok {
		return c
	}
	names := s.Names()
	if len(names) == 0 {
		return nil
	}
	return s.Channels[names[0]]
}

// Size returns the shared channel dimensions. It fails when channels differ
// in size.
func (s *ImageSet) Size() (width, height int, err error) {
	for _, name := range s.Names() {
		c := s.Channels[name]
		if width == 0 && height == 0 {
			width, height = c.Width(), c.Height()
			continue
		}
		if c.Width() != width || c.Height() != height {
			return 0, 0, fmt.Errorf("channel %s is %dx%d, expected %dx%d", name, c.Width(), c.Height(), width, height)
		}
	}
	if width == 0 {
		return 0, 0, errors.New("image set has no channels")
	}
	return width, height, nil
}

// TemplateOptions prepares thmap.NewTemplate from the reference channel.
func (s *ImageSet) TemplateOptions(preferred string, limbThickness float64) (thmap.TemplateOptions, error) {
	ref := s.Reference(preferred)
	if ref == nil {
		return thmap.TemplateOptions{}, errors.New("image set has no channels")
	}
	radius, err := ref.SolarRadius()
	if err != nil {
		return thmap.TemplateOptions{}, err
	}
	observed := s.Observed
	if t, err := ref.Header.DateObs(); err == nil {
		observed = t
	}
	return thmap.TemplateOptions{
		Width:         ref.Width(),
		Height:        ref.Height(),
		SolarRadius:   radius,
		LimbThickness: limbThickness,
		Observed:      observed,
		Reference:     ref.Header,
	}, nil
}
