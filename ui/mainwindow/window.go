// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"solar-annotator/internal/app"
	"solar-annotator/internal/boundary"
	"solar-annotator/internal/imageset"
	"solar-annotator/internal/labels"
	"solar-annotator/internal/render"
	"solar-annotator/internal/thmap"
	"solar-annotator/internal/version"
	"solar-annotator/pkg/colorutil"
	"solar-annotator/pkg/geometry"
	"solar-annotator/ui/canvas"
	"solar-annotator/ui/dialogs"
	"solar-annotator/ui/panels"
	"solar-annotator/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const appTitle = "Solar Annotator"

var (
	outlinePrimary   = colorutil.Cyan
	outlineSecondary = colorutil.Magenta
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app   fyne.App
	state *app.State
	prefs *prefs.Prefs

	canvas    *canvas.ImageCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label
	pixelInfo *widget.Label

	fitToWindowItem *fyne.MenuItem

	// latest raster, kept for redraws that do not change it
	mu     sync.Mutex
	raster *thmap.Raster
}

// New creates the main window.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow(appTitle)

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  p,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupShortcuts()
	mw.setupEventHandlers()
	mw.SetCloseIntercept(mw.onQuit)

	w := p.FloatWithFallback(prefs.KeyWindowWidth, 1200)
	h := p.FloatWithFallback(prefs.KeyWindowHeight, 800)
	mw.Resize(fyne.NewSize(float32(w), float32(h)))
	return mw
}

func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewImageCanvas()
	mw.canvas.OnLasso(mw.onLasso)
	mw.canvas.OnLeftClick(mw.onRelabel)
	mw.canvas.OnRightClick(mw.onTrace)
	mw.canvas.OnHover(mw.onHover)
	mw.canvas.OnZoomChange(func(zoom float64) {
		mw.updateStatus(fmt.Sprintf("Zoom %.0f%%", zoom*100))
	})

	mw.sidePanel = panels.NewSidePanel(mw.state, mw.redraw)
	mw.sidePanel.SetWindow(mw.Window)
	if v := mw.prefs.FloatWithFallback(prefs.KeyMapOpacity, -1); v >= 0 {
		mw.sidePanel.Preview.SetMapOpacity(v)
	}

	mw.statusBar = widget.NewLabel("Create or open a thematic map to begin")
	mw.pixelInfo = widget.NewLabel("")

	canvasArea := container.NewBorder(mw.createToolbar(), nil, nil, nil, mw.canvas.Container())
	split := container.NewHSplit(mw.sidePanel.Container(), canvasArea)
	split.SetOffset(0.22)

	mw.SetContent(container.NewBorder(
		nil,
		container.NewPadded(container.NewBorder(nil, nil, nil, mw.pixelInfo, mw.statusBar)),
		nil, nil,
		split,
	))
}

func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	lasso := widget.NewCheck("Lasso", func(on bool) {
		if on {
			mw.canvas.SetTool(canvas.ToolLasso)
		} else {
			mw.canvas.SetTool(canvas.ToolNone)
		}
	})
	lasso.SetChecked(true)

	return container.NewHBox(
		widget.NewButton("Undo", mw.onUndo),
		lasso,
		widget.NewSeparator(),
		widget.NewLabel("Zoom:"),
		widget.NewButton("-", mw.onZoomOut),
		widget.NewButton("+", mw.onZoomIn),
		widget.NewButton("Fit", mw.onToggleFitToWindow),
		widget.NewButton("1:1", mw.onActualSize),
	)
}

func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("New...", mw.onNew),
		fyne.NewMenuItem("New from Observation...", mw.onNewTemplate),
		fyne.NewMenuItem("Open...", mw.onOpen),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save", mw.onSave),
		fyne.NewMenuItem("Save As...", mw.onSaveAs),
		fyne.NewMenuItem("Export Image...", mw.onExport),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", mw.onQuit),
	)
	// fyne adds its own Quit to the first menu; ours asks about unsaved work
	fileMenu.Items[len(fileMenu.Items)-1].IsQuit = true

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", mw.onUndo),
	)

	mw.fitToWindowItem = fyne.NewMenuItem("Fit to Window", mw.onToggleFitToWindow)
	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.onZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.onZoomOut),
		mw.fitToWindowItem,
		fyne.NewMenuItem("Actual Size", mw.onActualSize),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Load Preview", mw.sidePanel.Preview.Load),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu))
}

func (mw *MainWindow) setupShortcuts() {
	c := mw.Canvas()
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { mw.onUndo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { mw.onSave() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { mw.onOpen() })
}

func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventDocumentLoaded, func(data interface{}) {
		r, _ := data.(*thmap.Raster)
		mw.setRaster(r)
		mw.canvas.SetFitToWindow(true)
		mw.fitToWindowItem.Checked = true
		mw.updateTitle()
		if r != nil {
			mw.updateStatus(fmt.Sprintf("%dx%d map ready", r.Width, r.Height))
		}
	})
	mw.state.On(app.EventRasterChanged, func(data interface{}) {
		r, _ := data.(*thmap.Raster)
		mw.setRaster(r)
	})
	mw.state.On(app.EventOutlineChanged, func(data interface{}) {
		o, _ := data.(boundary.Outline)
		mw.showOutline(o)
	})
	mw.state.On(app.EventDocumentSaved, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.saveLastDir(path)
			mw.updateStatus("Saved " + path)
		}
	})
	mw.state.On(app.EventModified, func(interface{}) {
		mw.updateTitle()
	})
}

func (mw *MainWindow) setRaster(r *thmap.Raster) {
	mw.mu.Lock()
	mw.raster = r
	mw.mu.Unlock()
	mw.redraw()
}

// redraw recomposes the canvas image from the raster and preview settings.
func (mw *MainWindow) redraw() {
	// panel callbacks can fire while the window is still being built
	if mw.sidePanel == nil || mw.sidePanel.Preview == nil || mw.canvas == nil {
		return
	}
	mw.mu.Lock()
	r := mw.raster
	mw.mu.Unlock()
	if r == nil {
		mw.canvas.SetImage(nil)
		return
	}

	cfg := mw.state.Config()
	preview := mw.sidePanel.Preview
	scene := render.Scene{
		Raster:     r,
		Palette:    render.TablePalette{Table: cfg.ColorTable(), Fallback: cfg.Color(0)},
		Background: preview.Image(),
		MapOpacity: preview.MapOpacity(),
	}
	mw.canvas.SetImage(scene.Render())

	if preview.ShowOutline() {
		mw.showOutline(mw.state.Outline())
	} else {
		mw.canvas.ClearAllOverlays()
	}
}

func (mw *MainWindow) showOutline(o boundary.Outline) {
	if o.Empty() || !mw.sidePanel.Preview.ShowOutline() {
		mw.canvas.ClearAllOverlays()
		return
	}
	primary, secondary := canvas.OutlineOverlays(o, outlinePrimary, outlineSecondary)
	mw.canvas.SetOverlay("outline", primary)
	mw.canvas.SetOverlay("outline-fragments", secondary)
}

func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) updateTitle() {
	title := appTitle
	if !mw.state.HasDocument() {
		mw.SetTitle(title)
		return
	}
	name := "untitled"
	if path := mw.state.OutputPath(); path != "" {
		name = filepath.Base(path)
	}
	if observed, err := mw.state.ObservedAt(); err == nil {
		name += " [" + thmap.FormatDateObs(observed) + "]"
	}
	title += " - " + name
	if mw.state.Modified() {
		title += " *"
	}
	mw.SetTitle(title)
}

// showError reports a failed operation both in the log and to the user.
func (mw *MainWindow) showError(op string, err error) {
	log.Printf("%s: %v", op, err)
	dialog.ShowError(fmt.Errorf("%s: %w", op, err), mw.Window)
}

func (mw *MainWindow) lastDir() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastDir)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefs.KeyLastDir, filepath.Dir(filePath))
}

// SavePreferences stores window geometry and display settings.
func (mw *MainWindow) SavePreferences() {
	size := mw.Canvas().Size()
	mw.prefs.SetFloat(prefs.KeyWindowWidth, float64(size.Width))
	mw.prefs.SetFloat(prefs.KeyWindowHeight, float64(size.Height))
	mw.prefs.SetFloat(prefs.KeyMapOpacity, mw.sidePanel.Preview.MapOpacity())
	if err := mw.prefs.Save(); err != nil {
		log.Printf("Save preferences: %v", err)
	}
}

// Canvas interaction

func (mw *MainWindow) onLasso(vertices []geometry.Point2D) {
	n, err := mw.state.PaintLasso(vertices)
	if err != nil {
		if errors.Is(err, app.ErrUninitializedSession) {
			return
		}
		mw.showError("Paint", err)
		return
	}
	mw.updateStatus(fmt.Sprintf("Painted %d pixels with %s", n, mw.activeLabelName()))
}

func (mw *MainWindow) onRelabel(x, y int) {
	ok, err := mw.state.RelabelAt(x, y)
	if err != nil {
		if !errors.Is(err, app.ErrUninitializedSession) {
			mw.showError("Relabel", err)
		}
		return
	}
	if ok {
		mw.updateStatus(fmt.Sprintf("Region at (%d, %d) relabeled %s", x, y, mw.activeLabelName()))
	}
}

func (mw *MainWindow) onTrace(x, y int) {
	outline, ok, err := mw.state.TraceAt(x, y)
	if err != nil {
		if !errors.Is(err, app.ErrUninitializedSession) {
			mw.showError("Trace", err)
		}
		return
	}
	if ok {
		mw.updateStatus(fmt.Sprintf("Outline at (%d, %d): %d points, %d fragments",
			x, y, outline.Len(), len(outline.Secondary)))
	}
}

func (mw *MainWindow) onHover(x, y int) {
	mw.mu.Lock()
	r := mw.raster
	mw.mu.Unlock()
	if r == nil || !r.InBounds(x, y) {
		mw.pixelInfo.SetText("")
		return
	}
	code := r.At(x, y)
	name, ok := mw.state.Config().Mapping().Name(code)
	if !ok {
		name = labels.UnlabeledName
	}
	mw.pixelInfo.SetText(fmt.Sprintf("(%d, %d) %s", x, y, name))
}

func (mw *MainWindow) activeLabelName() string {
	code := mw.state.ActiveLabel()
	if name, ok := mw.state.Config().Mapping().Name(code); ok {
		return name
	}
	return labels.UnlabeledName
}

// Menu actions

// confirmDiscard runs next directly, or after the user agrees to drop
// unsaved changes.
func (mw *MainWindow) confirmDiscard(next func()) {
	if !mw.state.Modified() {
		next()
		return
	}
	dialog.ShowConfirm("Unsaved Changes", "Discard changes to the current map?", func(ok bool) {
		if ok {
			next()
		}
	}, mw.Window)
}

func (mw *MainWindow) onNew() {
	mw.confirmDiscard(func() {
		w, h := mw.state.Size()
		if w == 0 {
			w, h = 1024, 1024
		}
		dialogs.NewNewDocumentDialog(mw.Window, w, h, func(spec dialogs.DocumentSpec) {
			if err := mw.state.NewDocument(spec.Width, spec.Height, spec.Observed); err != nil {
				mw.showError("New map", err)
			}
		}).Show()
	})
}

// onNewTemplate builds a disk/limb template from an observation folder
// named by its timestamp.
func (mw *MainWindow) onNewTemplate() {
	mw.confirmDiscard(func() {
		fd := dialog.NewFolderOpen(func(dir fyne.ListableURI, err error) {
			if err != nil || dir == nil {
				return
			}
			path := dir.Path()
			mw.prefs.SetString(prefs.KeyLastDir, filepath.Dir(path))
			mw.updateStatus("Reading " + path)

			go func() {
				cfg := mw.state.Config()
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				defer cancel()
				set, err := imageset.LoadObservationDir(ctx, path, cfg.Retrieval.Channels)
				if err != nil {
					mw.showError("Load observation", err)
					return
				}
				if err := mw.state.NewTemplate(set); err != nil {
					mw.showError("Template", err)
				}
			}()
		}, mw.Window)
		if loc := mw.lastDir(); loc != nil {
			fd.SetLocation(loc)
		}
		fd.Show()
	})
}

func (mw *MainWindow) onOpen() {
	mw.confirmDiscard(func() {
		fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
			if err != nil || reader == nil {
				return
			}
			reader.Close()
			path := reader.URI().Path()
			mw.saveLastDir(path)
			if err := mw.state.OpenDocument(path); err != nil {
				var mismatch *app.DocumentMismatchError
				if errors.As(err, &mismatch) {
					dialog.ShowError(mismatch, mw.Window)
					return
				}
				mw.showError("Open", err)
			}
		}, mw.Window)
		fd.SetFilter(storage.NewExtensionFileFilter([]string{".fits", ".fts", ".fit"}))
		if loc := mw.lastDir(); loc != nil {
			fd.SetLocation(loc)
		}
		fd.Show()
	})
}

func (mw *MainWindow) onSave() {
	err := mw.state.Save()
	switch {
	case errors.Is(err, app.ErrNoOutputPath):
		mw.onSaveAs()
	case errors.Is(err, app.ErrUninitializedSession):
		mw.updateStatus("Nothing to save")
	case err != nil:
		mw.showError("Save", err)
	}
}

func (mw *MainWindow) onSaveAs() {
	if !mw.state.HasDocument() {
		mw.updateStatus("Nothing to save")
		return
	}
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if ext := filepath.Ext(path); ext != ".fits" && ext != ".fts" && ext != ".fit" {
			path += ".fits"
		}
		if err := mw.state.SaveAs(path); err != nil {
			mw.showError("Save", err)
		}
	}, mw.Window)
	name := "thmap.fits"
	if observed, err := mw.state.ObservedAt(); err == nil {
		name = "thmap_" + imageset.Stamp(observed) + ".fits"
	}
	fd.SetFileName(name)
	if loc := mw.lastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// onExport writes the image currently shown, without overlays.
func (mw *MainWindow) onExport() {
	img := mw.canvas.Image()
	if img == nil {
		mw.updateStatus("Nothing to export")
		return
	}
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if _, err := render.FormatForPath(path); err != nil {
			path += ".png"
		}
		if err := render.WriteFile(path, img); err != nil {
			mw.showError("Export", err)
			return
		}
		mw.saveLastDir(path)
		mw.updateStatus("Exported " + path)
	}, mw.Window)
	fd.SetFileName("thmap.png")
	if loc := mw.lastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onQuit() {
	mw.confirmDiscard(func() {
		mw.SavePreferences()
		mw.app.Quit()
	})
}

func (mw *MainWindow) onUndo() {
	if !mw.state.Undo() {
		mw.updateStatus("Nothing to undo")
		return
	}
	mw.updateStatus(fmt.Sprintf("Undone, %d snapshots left", mw.state.HistoryLen()))
}

func (mw *MainWindow) onZoomIn() {
	mw.disableFitToWindow()
	mw.canvas.ZoomIn()
}

func (mw *MainWindow) onZoomOut() {
	mw.disableFitToWindow()
	mw.canvas.ZoomOut()
}

func (mw *MainWindow) onToggleFitToWindow() {
	enabled := !mw.fitToWindowItem.Checked
	mw.canvas.SetFitToWindow(enabled)
	mw.fitToWindowItem.Checked = enabled
}

func (mw *MainWindow) onActualSize() {
	mw.disableFitToWindow()
	mw.canvas.SetZoom(1.0)
}

func (mw *MainWindow) disableFitToWindow() {
	if mw.fitToWindowItem.Checked {
		mw.canvas.SetFitToWindow(false)
		mw.fitToWindowItem.Checked = false
	}
}

func (mw *MainWindow) onAbout() {
	cfg := mw.state.Config()
	source := "built-in classes"
	if cfg.Path != "" {
		source = cfg.Path
	}
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s v%s\n\n"+
			"Hand labeling of solar thematic maps.\n\n"+
			"Classes: %s (%d)\n"+
			"Tracer: %s\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			appTitle, version.Version, source, cfg.Mapping().Len(), cfg.Boundary.Method,
			version.BuildTime, version.GitCommit),
		mw.Window)
}
