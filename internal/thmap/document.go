package thmap

import (
	"errors"
	"fmt"
	"time"

	"solar-annotator/internal/labels"
	"solar-annotator/pkg/geometry"
)

// Errors returned by Document edits.
var (
	ErrUnmappedCode = errors.New("label code not in mapping")
	ErrOutOfBounds  = errors.New("pixel outside raster")
)

// Document is an open thematic map: the live raster, its label mapping, the
// header metadata and the undo history.
type Document struct {
	raster     *Raster
	mapping    *labels.Mapping
	header     *Header
	history    *History
	generation uint64
}

// NewDocument creates a document around raster. The raster is validated
// against mapping and owned by the document afterwards.
func NewDocument(raster *Raster, mapping *labels.Mapping, header *Header) (*Document, error) {
	if header == nil {
		header = NewHeader()
	}
	d := &Document{header: header}
	if err := d.Replace(raster, mapping); err != nil {
		return nil, err
	}
	return d, nil
}

// NewBlank creates an all-unlabeled document of the given size, stamped with
// the observation time.
func NewBlank(width, height int, mapping *labels.Mapping, observed time.Time) (*Document, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid document size %dx%d", width, height)
	}
	h := NewHeader()
	h.SetDateObs(observed)
	return NewDocument(NewRaster(width, height), mapping, h)
}

// Replace swaps in a new raster and mapping wholesale and resets the history
// to a single entry holding the new raster.
func (d *Document) Replace(raster *Raster, mapping *labels.Mapping) error {
	if raster == nil || mapping == nil {
		return errors.New("replace needs a raster and a mapping")
	}
	if err := raster.Validate(mapping); err != nil {
		return fmt.Errorf("%w: %v", ErrUnmappedCode, err)
	}
	d.raster = raster
	d.mapping = mapping
	d.history = NewHistory(raster)
	d.generation++
	return nil
}

// Paint sets every pixel in pixels to code as one undoable edit. The request
// is validated up front; on error nothing changes. An empty pixel set still
// records a history entry.
func (d *Document) Paint(pixels []geometry.PointInt, code uint8) error {
	if !d.mapping.Valid(code) {
		return fmt.Errorf("paint with %d: %w", code, ErrUnmappedCode)
	}
	for _, p := range pixels {
		if !d.raster.InBounds(p.X, p.Y) {
			return fmt.Errorf("paint (%d,%d): %w", p.X, p.Y, ErrOutOfBounds)
		}
	}

	next := d.raster.Clone()
	for _, p := range pixels {
		next.Set(p.X, p.Y, code)
	}

	d.history.Push(d.raster)
	d.raster = next
	d.generation++
	return nil
}

// Undo restores the raster as it was before the most recent edit. It returns
// false when there is nothing to undo.
func (d *Document) Undo() bool {
	prev := d.history.Pop()
	if prev == nil {
		return false
	}
	d.raster = prev
	d.generation++
	return true
}

// CanUndo reports whether Undo would change the raster.
func (d *Document) CanUndo() bool {
	return d.history.CanUndo()
}

// HistoryLen returns the number of history entries, including the sentinel.
func (d *Document) HistoryLen() int {
	return d.history.Len()
}

// Generation increases with every mutation. Values derived from the raster
// are stale once the generation moves on.
func (d *Document) Generation() uint64 {
	return d.generation
}

// Raster returns the live raster. Callers must not modify it; use Snapshot
// for a private copy.
func (d *Document) Raster() *Raster {
	return d.raster
}

// Snapshot returns a deep copy of the live raster.
func (d *Document) Snapshot() *Raster {
	return d.raster.Clone()
}

// Mapping returns the document's label mapping.
func (d *Document) Mapping() *labels.Mapping {
	return d.mapping
}

// Header returns the document metadata.
func (d *Document) Header() *Header {
	return d.header
}

// Width returns the raster width.
func (d *Document) Width() int {
	return d.raster.Width
}

// Height returns the raster height.
func (d *Document) Height() int {
	return d.raster.Height
}

// ObservedAt returns the document's DATE-OBS.
func (d *Document) ObservedAt() (time.Time, error) {
	return d.header.DateObs()
}
