// Package canvas provides the zoomable map canvas with lasso capture.
package canvas

import (
	"image"
	"image/color"

	"solar-annotator/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

const (
	minZoom  = 0.1
	maxZoom  = 16.0
	zoomStep = 1.25

	// minVertexSpacing is the canvas distance, in screen pixels, between
	// consecutive lasso vertices.
	minVertexSpacing = 2.0
)

// Tool selects what a drag on the canvas does.
type Tool int

const (
	ToolLasso Tool = iota
	ToolNone
)

// ImageCanvas displays a map image with overlays. Dragging with the lasso
// tool collects polygon vertices; clicks report the pixel under the cursor.
//
// Image coordinates put pixel (x, y) at the integer point (x, y), so pixel
// x covers canvas columns [x*zoom, (x+1)*zoom).
type ImageCanvas struct {
	widget.BaseWidget

	img      image.Image
	overlays map[string]*Overlay

	raster *fynecanvas.Raster
	zoom   float64
	tool   Tool

	// lasso in progress, image coordinates
	lassoing bool
	lasso    []geometry.Point2D
	lastDrag fyne.Position

	LassoColor color.RGBA

	scroll  *zoomScroll
	content *draggableContent
	imgSize fyne.Size

	fitToWindow    bool
	lastScrollSize fyne.Size

	onZoomChange func(zoom float64)
	onLasso      func(vertices []geometry.Point2D)
	onLeftClick  func(x, y int)
	onRightClick func(x, y int)
	onHover      func(x, y int)
}

// zoomScroll wraps a scroll container and turns the wheel into zoom.
type zoomScroll struct {
	widget.BaseWidget
	scroll *container.Scroll
	canvas *ImageCanvas
}

func newZoomScroll(content fyne.CanvasObject, canvas *ImageCanvas) *zoomScroll {
	scroll := container.NewScroll(content)
	scroll.Direction = container.ScrollBoth
	zs := &zoomScroll{scroll: scroll, canvas: canvas}
	zs.ExtendBaseWidget(zs)
	return zs
}

func (zs *zoomScroll) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		zs.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		zs.canvas.ZoomOut()
	}
}

func (zs *zoomScroll) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(zs.scroll)
}

// Offset returns the scroll container's current offset.
func (zs *zoomScroll) Offset() fyne.Position {
	return zs.scroll.Offset
}

// Size returns the scroll container's size.
func (zs *zoomScroll) Size() fyne.Size {
	return zs.scroll.Size()
}

func (zs *zoomScroll) Refresh() {
	zs.scroll.Refresh()
	zs.BaseWidget.Refresh()
}

func (zs *zoomScroll) Resize(size fyne.Size) {
	zs.scroll.Resize(size)
	zs.BaseWidget.Resize(size)
}

// draggableContent wraps the raster to receive pointer events.
type draggableContent struct {
	widget.BaseWidget
	canvas *ImageCanvas
	raster *fynecanvas.Raster
}

func newDraggableContent(ic *ImageCanvas, raster *fynecanvas.Raster) *draggableContent {
	dc := &draggableContent{canvas: ic, raster: raster}
	dc.ExtendBaseWidget(dc)
	return dc
}

func (dc *draggableContent) CreateRenderer() fyne.WidgetRenderer {
	return &draggableContentRenderer{content: dc}
}

func (dc *draggableContent) MinSize() fyne.Size {
	return dc.raster.MinSize()
}

// Dragged appends a lasso vertex whenever the pointer has moved far enough
// from the previous one.
func (dc *draggableContent) Dragged(ev *fyne.DragEvent) {
	ic := dc.canvas
	if ic.tool != ToolLasso || ic.img == nil {
		return
	}
	pos := ev.Position
	if ic.lassoing {
		dx := float64(pos.X - ic.lastDrag.X)
		dy := float64(pos.Y - ic.lastDrag.Y)
		if dx*dx+dy*dy < minVertexSpacing*minVertexSpacing {
			return
		}
	}
	if !ic.lassoing {
		ic.lassoing = true
		ic.lasso = ic.lasso[:0]
		// the press point is where the drag started, before the first delta
		start := fyne.NewPos(pos.X-ev.Dragged.DX, pos.Y-ev.Dragged.DY)
		ic.lasso = append(ic.lasso, ic.CanvasToImage(float64(start.X), float64(start.Y)))
	}
	ic.lastDrag = pos
	ic.lasso = append(ic.lasso, ic.CanvasToImage(float64(pos.X), float64(pos.Y)))
	ic.Refresh()
}

// DragEnd hands the finished lasso to the callback.
func (dc *draggableContent) DragEnd() {
	ic := dc.canvas
	if !ic.lassoing {
		return
	}
	ic.lassoing = false
	vertices := make([]geometry.Point2D, len(ic.lasso))
	copy(vertices, ic.lasso)
	ic.lasso = ic.lasso[:0]
	ic.Refresh()

	if ic.onLasso != nil {
		ic.onLasso(vertices)
	}
}

func (dc *draggableContent) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		dc.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		dc.canvas.ZoomOut()
	}
}

// MouseIn, MouseMoved and MouseOut implement desktop.Hoverable.
func (dc *draggableContent) MouseIn(ev *desktop.MouseEvent) { dc.MouseMoved(ev) }

func (dc *draggableContent) MouseMoved(ev *desktop.MouseEvent) {
	if dc.canvas.onHover == nil {
		return
	}
	x, y := dc.canvas.PixelAt(float64(ev.Position.X), float64(ev.Position.Y))
	dc.canvas.onHover(x, y)
}

func (dc *draggableContent) MouseOut() {}

// Tapped handles left clicks.
func (dc *draggableContent) Tapped(ev *fyne.PointEvent) {
	if dc.canvas.onLeftClick == nil || !dc.inside(ev.Position) {
		return
	}
	dc.canvas.onLeftClick(dc.canvas.PixelAt(float64(ev.Position.X), float64(ev.Position.Y)))
}

// TappedSecondary handles right clicks.
func (dc *draggableContent) TappedSecondary(ev *fyne.PointEvent) {
	if dc.canvas.onRightClick == nil || !dc.inside(ev.Position) {
		return
	}
	dc.canvas.onRightClick(dc.canvas.PixelAt(float64(ev.Position.X), float64(ev.Position.Y)))
}

// inside rejects events fyne delivers with positions outside the widget.
func (dc *draggableContent) inside(p fyne.Position) bool {
	size := dc.Size()
	return p.X >= 0 && p.Y >= 0 && p.X <= size.Width && p.Y <= size.Height
}

type draggableContentRenderer struct {
	content *draggableContent
}

func (r *draggableContentRenderer) Layout(size fyne.Size) {
	r.content.raster.Resize(size)
}

func (r *draggableContentRenderer) MinSize() fyne.Size {
	return r.content.raster.MinSize()
}

func (r *draggableContentRenderer) Refresh() {
	r.content.raster.Refresh()
}

func (r *draggableContentRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.content.raster}
}

func (r *draggableContentRenderer) Destroy() {}

// NewImageCanvas creates an empty canvas with the lasso tool selected.
func NewImageCanvas() *ImageCanvas {
	ic := &ImageCanvas{
		zoom:       1.0,
		tool:       ToolLasso,
		imgSize:    fyne.NewSize(400, 300),
		overlays:   make(map[string]*Overlay),
		LassoColor: color.RGBA{R: 255, G: 140, B: 0, A: 255},
	}

	ic.raster = fynecanvas.NewRaster(ic.draw)
	ic.raster.ScaleMode = fynecanvas.ImageScalePixels
	ic.raster.SetMinSize(ic.imgSize)

	ic.content = newDraggableContent(ic, ic.raster)
	ic.scroll = newZoomScroll(ic.content, ic)

	ic.ExtendBaseWidget(ic)
	return ic
}

// Container returns the canvas object to place in a layout.
func (ic *ImageCanvas) Container() fyne.CanvasObject {
	return ic
}

// SetImage replaces the displayed image. The zoom is kept when the new image
// has the same size as the old one.
func (ic *ImageCanvas) SetImage(img image.Image) {
	resized := ic.img == nil || img == nil || ic.img.Bounds() != img.Bounds()
	ic.img = img
	if resized {
		ic.updateContentSize()
		if ic.fitToWindow {
			ic.FitToWindow()
		}
		return
	}
	ic.Refresh()
}

// Image returns the displayed image.
func (ic *ImageCanvas) Image() image.Image {
	return ic.img
}

// SetOverlay installs or replaces a named overlay.
func (ic *ImageCanvas) SetOverlay(name string, overlay *Overlay) {
	ic.overlays[name] = overlay
	ic.Refresh()
}

// ClearOverlay removes a named overlay.
func (ic *ImageCanvas) ClearOverlay(name string) {
	delete(ic.overlays, name)
	ic.Refresh()
}

// ClearAllOverlays removes every overlay.
func (ic *ImageCanvas) ClearAllOverlays() {
	ic.overlays = make(map[string]*Overlay)
	ic.Refresh()
}

// SetZoom sets the zoom level, clamped to the supported range.
func (ic *ImageCanvas) SetZoom(zoom float64) {
	if zoom < minZoom {
		zoom = minZoom
	}
	if zoom > maxZoom {
		zoom = maxZoom
	}
	ic.zoom = zoom
	ic.updateContentSize()

	if ic.onZoomChange != nil {
		ic.onZoomChange(zoom)
	}
}

// Zoom returns the current zoom level.
func (ic *ImageCanvas) Zoom() float64 {
	return ic.zoom
}

func (ic *ImageCanvas) ZoomIn() {
	ic.SetZoom(ic.zoom * zoomStep)
}

func (ic *ImageCanvas) ZoomOut() {
	ic.SetZoom(ic.zoom / zoomStep)
}

// FitToWindow adjusts zoom so the whole image is visible.
func (ic *ImageCanvas) FitToWindow() {
	if ic.img == nil {
		return
	}
	bounds := ic.img.Bounds()
	viewSize := ic.scroll.Size()
	if bounds.Dx() == 0 || bounds.Dy() == 0 || viewSize.Width <= 0 || viewSize.Height <= 0 {
		return
	}
	zoom := float64(viewSize.Width) / float64(bounds.Dx())
	if zy := float64(viewSize.Height) / float64(bounds.Dy()); zy < zoom {
		zoom = zy
	}
	ic.SetZoom(zoom * 0.95)
}

// SetFitToWindow enables or disables fitting on resize.
func (ic *ImageCanvas) SetFitToWindow(fit bool) {
	ic.fitToWindow = fit
	if fit {
		ic.FitToWindow()
	}
}

// CheckResize refits the image after the viewport changed size.
func (ic *ImageCanvas) CheckResize(size fyne.Size) {
	if !ic.fitToWindow {
		return
	}
	if size.Width > 0 && size.Height > 0 && size != ic.lastScrollSize {
		ic.lastScrollSize = size
		ic.FitToWindow()
	}
}

// SetTool sets the drag tool. Switching tools drops a lasso in progress.
func (ic *ImageCanvas) SetTool(tool Tool) {
	ic.tool = tool
	ic.lassoing = false
	ic.lasso = ic.lasso[:0]
	ic.Refresh()
}

func (ic *ImageCanvas) OnZoomChange(callback func(zoom float64)) {
	ic.onZoomChange = callback
}

// OnLasso sets the callback for a finished lasso. Vertices are in image
// coordinates.
func (ic *ImageCanvas) OnLasso(callback func(vertices []geometry.Point2D)) {
	ic.onLasso = callback
}

// OnLeftClick sets the callback for left clicks, given the pixel under the
// cursor. The pixel may lie outside the image.
func (ic *ImageCanvas) OnLeftClick(callback func(x, y int)) {
	ic.onLeftClick = callback
}

// OnRightClick sets the callback for right clicks.
func (ic *ImageCanvas) OnRightClick(callback func(x, y int)) {
	ic.onRightClick = callback
}

// OnHover sets the callback for pointer movement over the canvas.
func (ic *ImageCanvas) OnHover(callback func(x, y int)) {
	ic.onHover = callback
}

func (ic *ImageCanvas) Refresh() {
	ic.raster.Refresh()
}

func (ic *ImageCanvas) updateContentSize() {
	if ic.img == nil || ic.img.Bounds().Empty() {
		ic.imgSize = fyne.NewSize(400, 300)
	} else {
		b := ic.img.Bounds()
		ic.imgSize = fyne.NewSize(float32(float64(b.Dx())*ic.zoom), float32(float64(b.Dy())*ic.zoom))
	}

	ic.raster.SetMinSize(ic.imgSize)
	ic.raster.Resize(ic.imgSize)
	if ic.content != nil {
		ic.content.Resize(ic.imgSize)
		ic.content.Refresh()
	}
	ic.raster.Refresh()
	if ic.scroll != nil {
		ic.scroll.Refresh()
	}
}

// CanvasToImage converts a content position to continuous image coordinates.
func (ic *ImageCanvas) CanvasToImage(canvasX, canvasY float64) geometry.Point2D {
	return canvasToImage(canvasX, canvasY, ic.zoom)
}

// ImageToCanvas converts image coordinates to a content position at the
// center of the pixel.
func (ic *ImageCanvas) ImageToCanvas(p geometry.Point2D) (canvasX, canvasY float64) {
	return (p.X + 0.5) * ic.zoom, (p.Y + 0.5) * ic.zoom
}

// PixelAt returns the pixel containing a content position.
func (ic *ImageCanvas) PixelAt(canvasX, canvasY float64) (x, y int) {
	return pixelAt(canvasX, canvasY, ic.zoom)
}

// CreateRenderer implements fyne.Widget.
func (ic *ImageCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &imageCanvasRenderer{canvas: ic}
}

type imageCanvasRenderer struct {
	canvas *ImageCanvas
}

func (r *imageCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.scroll.Resize(size)
	r.canvas.CheckResize(size)
}

func (r *imageCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *imageCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *imageCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.scroll}
}

func (r *imageCanvasRenderer) Destroy() {}
