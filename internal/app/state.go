// Package app holds the editing session: the open thematic map, the active
// label, the preview imagery and the events the window listens to.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"solar-annotator/internal/boundary"
	"solar-annotator/internal/config"
	"solar-annotator/internal/imageset"
	"solar-annotator/internal/labels"
	"solar-annotator/internal/lasso"
	"solar-annotator/internal/region"
	"solar-annotator/internal/thmap"
	"solar-annotator/pkg/geometry"
)

// State is the editing session. All mutations are serialized by its mutex;
// listeners run after the lock is released.
type State struct {
	mu sync.RWMutex

	cfg    *config.Config
	tracer boundary.Tracer

	doc      *thmap.Document
	path     string // output path, empty until saved or opened
	modified bool

	activeLabel uint8

	preview *imageset.ImageSet

	// Last outline traced by TraceAt, kept for redraws.
	outline boundary.Outline

	listeners map[EventType][]EventListener
}

// EventType identifies different session events.
type EventType int

const (
	EventDocumentLoaded     EventType = iota // data: *thmap.Raster
	EventDocumentSaved                       // data: path string
	EventRasterChanged                       // data: *thmap.Raster
	EventActiveLabelChanged                  // data: uint8
	EventOutlineChanged                      // data: boundary.Outline
	EventPreviewLoaded                       // data: *imageset.ImageSet, nil when unavailable
	EventModified                            // data: bool
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates a session with no document.
func NewState(cfg *config.Config) *State {
	s := &State{
		cfg:       cfg,
		tracer:    cfg.Tracer(),
		listeners: make(map[EventType][]EventListener),
	}
	if classes := cfg.ClassList(); len(classes) > 0 {
		s.activeLabel = classes[0].Code
	}
	return s
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Config returns the session configuration.
func (s *State) Config() *config.Config {
	return s.cfg
}

// SetTracer replaces the outline strategy.
func (s *State) SetTracer(t boundary.Tracer) {
	s.mu.Lock()
	s.tracer = t
	s.mu.Unlock()
}

// HasDocument reports whether a document is open.
func (s *State) HasDocument() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc != nil
}

// Raster returns a copy of the current raster, or nil without a document.
func (s *State) Raster() *thmap.Raster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return nil
	}
	return s.doc.Snapshot()
}

// Size returns the document dimensions, or zeros without a document.
func (s *State) Size() (width, height int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return 0, 0
	}
	return s.doc.Width(), s.doc.Height()
}

// ObservedAt returns the document's observation time.
func (s *State) ObservedAt() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return time.Time{}, ErrUninitializedSession
	}
	return s.doc.ObservedAt()
}

// OutputPath returns the file the document saves to.
func (s *State) OutputPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// Modified reports unsaved changes.
func (s *State) Modified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modified
}

// CanUndo reports whether Undo would change the raster.
func (s *State) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc != nil && s.doc.CanUndo()
}

// HistoryLen returns the number of stored snapshots, 0 without a document.
func (s *State) HistoryLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return 0
	}
	return s.doc.HistoryLen()
}

// Preview returns the loaded image set, nil when none.
func (s *State) Preview() *imageset.ImageSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preview
}

// Outline returns the most recent outline, or an empty one when it no
// longer matches the raster.
func (s *State) Outline() boundary.Outline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil || s.outline.Generation != s.doc.Generation() {
		return boundary.Outline{}
	}
	return s.outline
}

// NewDocument starts an unlabeled document of the given size.
func (s *State) NewDocument(width, height int, observed time.Time) error {
	if observed.IsZero() {
		observed = time.Now().UTC()
	}
	doc, err := thmap.NewBlank(width, height, s.cfg.Mapping(), observed)
	if err != nil {
		return err
	}
	s.install(doc, "", nil)
	log.Printf("New %dx%d thematic map for %s", width, height, thmap.FormatDateObs(observed))
	return nil
}

// NewTemplate starts a document with outer space, limb and quiet sun laid
// out from the solar radius of the image set's reference channel. The set
// becomes the preview.
func (s *State) NewTemplate(set *imageset.ImageSet) error {
	opts, err := set.TemplateOptions(s.cfg.Retrieval.PreviewChannel, s.cfg.Template.LimbThickness)
	if err != nil {
		return fmt.Errorf("template: %w", err)
	}
	doc, err := thmap.NewTemplate(s.cfg.Mapping(), opts)
	if err != nil {
		return err
	}
	s.install(doc, "", set)
	log.Printf("Template %dx%d, solar radius %.1f px", opts.Width, opts.Height, opts.SolarRadius)
	return nil
}

// OpenDocument loads a thematic map. A document whose label table differs
// from the configuration is rejected with *DocumentMismatchError and the
// session is left unchanged.
func (s *State) OpenDocument(path string) error {
	doc, err := thmap.Load(path)
	if err != nil {
		return err
	}
	if !doc.Mapping().CompliesWith(s.cfg.Mapping()) {
		return &DocumentMismatchError{Path: path, Differences: s.cfg.Mapping().Diff(doc.Mapping())}
	}
	s.install(doc, path, nil)
	log.Printf("Opened %s (%dx%d)", path, doc.Width(), doc.Height())
	return nil
}

func (s *State) install(doc *thmap.Document, path string, preview *imageset.ImageSet) {
	s.mu.Lock()
	s.doc = doc
	s.path = path
	s.modified = false
	s.preview = preview
	s.outline = boundary.Outline{}
	raster := doc.Snapshot()
	s.mu.Unlock()

	s.Emit(EventDocumentLoaded, raster)
	s.Emit(EventPreviewLoaded, preview)
	s.Emit(EventOutlineChanged, boundary.Outline{})
	s.Emit(EventModified, false)
}

// Save writes the document to its current path.
func (s *State) Save() error {
	s.mu.RLock()
	doc, path := s.doc, s.path
	s.mu.RUnlock()
	if doc == nil {
		return ErrUninitializedSession
	}
	if path == "" {
		return ErrNoOutputPath
	}
	return s.SaveAs(path)
}

// SaveAs writes the document to path and makes it the current path.
func (s *State) SaveAs(path string) error {
	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return ErrUninitializedSession
	}
	err := s.doc.Save(path)
	if err == nil {
		s.path = path
		s.modified = false
	}
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}

	log.Printf("Saved %s", path)
	s.Emit(EventDocumentSaved, path)
	s.Emit(EventModified, false)
	return nil
}

// ActiveLabel returns the code applied by paint operations.
func (s *State) ActiveLabel() uint8 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeLabel
}

// SetActiveLabel selects the code applied by paint operations. Code 0
// erases.
func (s *State) SetActiveLabel(code uint8) error {
	if code != labels.Unlabeled && !s.cfg.Mapping().Valid(code) {
		return fmt.Errorf("code %d: %w", code, ErrInvalidLabel)
	}
	s.mu.Lock()
	s.activeLabel = code
	s.mu.Unlock()
	s.Emit(EventActiveLabelChanged, code)
	return nil
}

// PaintLasso assigns the active label to every pixel enclosed by the lasso
// vertices (image coordinates). A degenerate lasso paints nothing but is
// still recorded as an edit. It returns the number of pixels painted.
func (s *State) PaintLasso(vertices []geometry.Point2D) (int, error) {
	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return 0, ErrUninitializedSession
	}
	pixels := lasso.Rasterize(vertices, s.doc.Width(), s.doc.Height())
	err := s.doc.Paint(pixels, s.activeLabel)
	raster := s.afterEdit(err)
	s.mu.Unlock()

	if err != nil {
		return 0, err
	}
	s.emitEdit(raster)
	return len(pixels), nil
}

// RelabelAt assigns the active label to the connected region under (x, y).
// Clicks outside the raster are rejected with false and no error.
func (s *State) RelabelAt(x, y int) (bool, error) {
	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return false, ErrUninitializedSession
	}
	if !s.doc.Raster().InBounds(x, y) {
		s.mu.Unlock()
		return false, nil
	}
	mask, err := region.IdentifyInDocument(s.doc, geometry.PointInt{X: x, Y: y})
	if err == nil {
		err = region.Relabel(s.doc, mask, s.activeLabel)
	}
	raster := s.afterEdit(err)
	s.mu.Unlock()

	if err != nil {
		return false, err
	}
	s.emitEdit(raster)
	return true, nil
}

// TraceAt outlines the connected region under (x, y) without changing the
// raster. Clicks outside the raster are rejected with false.
func (s *State) TraceAt(x, y int) (boundary.Outline, bool, error) {
	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return boundary.Outline{}, false, ErrUninitializedSession
	}
	if !s.doc.Raster().InBounds(x, y) {
		s.mu.Unlock()
		return boundary.Outline{}, false, nil
	}
	mask, err := region.IdentifyInDocument(s.doc, geometry.PointInt{X: x, Y: y})
	if err != nil {
		s.mu.Unlock()
		return boundary.Outline{}, false, err
	}
	outline := s.tracer.Trace(mask)
	s.outline = outline
	s.mu.Unlock()

	s.Emit(EventOutlineChanged, outline)
	return outline, true, nil
}

// RegionAt returns the connected region under (x, y), or nil when (x, y)
// is outside the raster.
func (s *State) RegionAt(x, y int) (*region.Mask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return nil, ErrUninitializedSession
	}
	if !s.doc.Raster().InBounds(x, y) {
		return nil, nil
	}
	return region.IdentifyInDocument(s.doc, geometry.PointInt{X: x, Y: y})
}

// Undo reverts the most recent edit. It returns false when there is nothing
// to undo.
func (s *State) Undo() bool {
	s.mu.Lock()
	if s.doc == nil || !s.doc.Undo() {
		s.mu.Unlock()
		return false
	}
	raster := s.afterEdit(nil)
	s.mu.Unlock()

	s.emitEdit(raster)
	return true
}

// afterEdit updates bookkeeping after a raster mutation. Callers hold the
// write lock.
func (s *State) afterEdit(err error) *thmap.Raster {
	if err != nil {
		return nil
	}
	s.modified = true
	s.outline = boundary.Outline{}
	return s.doc.Snapshot()
}

func (s *State) emitEdit(raster *thmap.Raster) {
	s.Emit(EventRasterChanged, raster)
	s.Emit(EventOutlineChanged, boundary.Outline{})
	s.Emit(EventModified, true)
}

// LoadPreview fetches the image set for the document's observation time.
// When the source has no data the preview is cleared, the document is kept
// and the *imageset.DataUnavailableError is returned. A result that arrives
// after another document was opened or created is discarded with
// ErrDocumentChanged.
func (s *State) LoadPreview(ctx context.Context, r imageset.Retriever) error {
	s.mu.RLock()
	doc := s.doc
	if doc == nil {
		s.mu.RUnlock()
		return ErrUninitializedSession
	}
	width, height := doc.Width(), doc.Height()
	observed, err := doc.ObservedAt()
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	set, err := r.Retrieve(ctx, observed)
	if err != nil {
		var unavailable *imageset.DataUnavailableError
		if errors.As(err, &unavailable) {
			if perr := s.setPreview(doc, nil); perr != nil {
				return perr
			}
			log.Printf("Preview unavailable: %v", err)
		}
		return err
	}

	if ref := set.Reference(s.cfg.Retrieval.PreviewChannel); ref != nil && (ref.Width() != width || ref.Height() != height) {
		log.Printf("Preview %s is %dx%d, document is %dx%d", ref.Name, ref.Width(), ref.Height(), width, height)
	}
	return s.setPreview(doc, set)
}

// setPreview installs set as the preview of doc, provided doc is still the
// open document.
func (s *State) setPreview(doc *thmap.Document, set *imageset.ImageSet) error {
	s.mu.Lock()
	if s.doc != doc {
		s.mu.Unlock()
		log.Printf("Discarding preview: document changed while loading")
		return ErrDocumentChanged
	}
	s.preview = set
	s.mu.Unlock()
	s.Emit(EventPreviewLoaded, set)
	return nil
}

// Retriever builds the image source named by the configuration.
func (s *State) Retriever() (imageset.Retriever, error) {
	r := s.cfg.Retrieval
	return imageset.NewRetriever(imageset.Source{
		Directory: r.Directory,
		URL:       r.URL,
		Channels:  r.Channels,
		Timeout:   r.Timeout,
	})
}
