package panels

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"math"
	"sync"

	"solar-annotator/internal/app"
	"solar-annotator/internal/imageset"
	"solar-annotator/internal/render"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

var modeLabels = map[string]string{
	"Off":         render.PreviewNone,
	"Channel":     render.PreviewChannel,
	"Three-color": render.PreviewThreeColor,
}

// PreviewPanel controls the imagery shown under the thematic map.
type PreviewPanel struct {
	state  *app.State
	window fyne.Window

	container *fyne.Container
	status    *widget.Label
	loadBtn   *widget.Button

	mode     *widget.RadioGroup
	channel  *widget.Select
	rgb      [3]*widget.Select
	opacity  *widget.Slider
	gamma    *widget.Slider
	outlines *widget.Check

	mu      sync.Mutex
	cached  image.Image
	dirty   bool
	loading bool

	onChange func()
}

// NewPreviewPanel creates the panel. onChange is called after any setting
// that affects the displayed image changes.
func NewPreviewPanel(state *app.State, onChange func()) *PreviewPanel {
	pp := &PreviewPanel{state: state, onChange: onChange, dirty: true}
	cfg := state.Config()

	pp.status = widget.NewLabel("No preview loaded")
	pp.status.Wrapping = fyne.TextWrapWord
	pp.loadBtn = widget.NewButton("Load Preview", pp.Load)

	pp.mode = widget.NewRadioGroup([]string{"Off", "Channel", "Three-color"}, func(string) { pp.invalidate() })
	pp.mode.Horizontal = true
	pp.mode.SetSelected("Channel")

	channels := cfg.Retrieval.Channels
	pp.channel = widget.NewSelect(channels, func(string) { pp.invalidate() })
	pp.channel.SetSelected(cfg.Retrieval.PreviewChannel)
	for i := range pp.rgb {
		pp.rgb[i] = widget.NewSelect(channels, func(string) { pp.invalidate() })
		// longest wavelength on red
		if j := len(channels) - 1 - i; j >= 0 {
			pp.rgb[i].SetSelected(channels[j])
		}
	}

	pp.opacity = widget.NewSlider(0, 1)
	pp.opacity.Step = 0.05
	pp.opacity.SetValue(0.4)
	pp.opacity.OnChanged = func(float64) { pp.changed() }

	pp.gamma = widget.NewSlider(0.2, 3)
	pp.gamma.Step = 0.1
	pp.gamma.SetValue(1)
	pp.gamma.OnChanged = func(float64) { pp.invalidate() }

	pp.outlines = widget.NewCheck("Show outline", func(bool) { pp.changed() })
	pp.outlines.SetChecked(true)

	state.On(app.EventPreviewLoaded, func(data interface{}) {
		set, _ := data.(*imageset.ImageSet)
		pp.setAvailable(set)
		pp.invalidate()
	})

	pp.container = container.NewVBox(
		widget.NewLabelWithStyle("Imagery", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		pp.loadBtn,
		pp.status,
		widget.NewSeparator(),
		pp.mode,
		widget.NewForm(
			widget.NewFormItem("Channel", pp.channel),
			widget.NewFormItem("Red", pp.rgb[0]),
			widget.NewFormItem("Green", pp.rgb[1]),
			widget.NewFormItem("Blue", pp.rgb[2]),
			widget.NewFormItem("Gamma", pp.gamma),
			widget.NewFormItem("Map opacity", pp.opacity),
		),
		pp.outlines,
	)
	return pp
}

// Container returns the panel container.
func (pp *PreviewPanel) Container() fyne.CanvasObject {
	return container.NewVScroll(pp.container)
}

// SetWindow sets the parent window for dialogs.
func (pp *PreviewPanel) SetWindow(w fyne.Window) {
	pp.window = w
}

// Options returns the current preview settings.
func (pp *PreviewPanel) Options() render.PreviewOptions {
	stretch := imageset.DefaultStretch()
	stretch.Gamma = pp.gamma.Value
	return render.PreviewOptions{
		Mode:    modeLabels[pp.mode.Selected],
		Channel: pp.channel.Selected,
		RGB:     [3]string{pp.rgb[0].Selected, pp.rgb[1].Selected, pp.rgb[2].Selected},
		Stretch: stretch,
	}
}

// MapOpacity returns the opacity of the thematic map over the preview.
func (pp *PreviewPanel) MapOpacity() float64 {
	return pp.opacity.Value
}

// SetMapOpacity sets the map opacity, clamped to 0..1.
func (pp *PreviewPanel) SetMapOpacity(v float64) {
	pp.opacity.SetValue(math.Max(0, math.Min(1, v)))
}

// ShowOutline reports whether traced outlines should be drawn.
func (pp *PreviewPanel) ShowOutline() bool {
	return pp.outlines.Checked
}

// Image returns the rendered preview, or nil when none is shown. The
// result is cached until a setting or the image set changes.
func (pp *PreviewPanel) Image() image.Image {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	if !pp.dirty {
		return pp.cached
	}
	pp.dirty = false
	pp.cached = nil

	img, err := render.Preview(pp.state.Preview(), pp.Options())
	if err != nil {
		log.Printf("Preview: %v", err)
		pp.status.SetText(err.Error())
		return nil
	}
	if img != nil {
		pp.cached = img
	}
	return pp.cached
}

// Load fetches the imagery for the open document in the background.
func (pp *PreviewPanel) Load() {
	if !pp.state.HasDocument() {
		pp.status.SetText("Open or create a document first")
		return
	}
	r, err := pp.state.Retriever()
	if err != nil {
		pp.status.SetText(err.Error())
		return
	}

	pp.mu.Lock()
	if pp.loading {
		pp.mu.Unlock()
		return
	}
	pp.loading = true
	pp.mu.Unlock()
	pp.loadBtn.Disable()
	pp.status.SetText("Loading...")

	go func() {
		ctx := context.Background()
		if timeout := pp.state.Config().Retrieval.Timeout; timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		err := pp.state.LoadPreview(ctx, r)

		pp.mu.Lock()
		pp.loading = false
		pp.mu.Unlock()
		pp.loadBtn.Enable()

		var unavailable *imageset.DataUnavailableError
		switch {
		case errors.As(err, &unavailable):
			pp.status.SetText(fmt.Sprintf("No data: %v", unavailable))
		case errors.Is(err, app.ErrDocumentChanged):
			pp.status.SetText("Document changed, load again")
		case err != nil:
			pp.status.SetText("Load failed")
			if pp.window != nil {
				dialog.ShowError(err, pp.window)
			}
		}
	}()
}

func (pp *PreviewPanel) setAvailable(set *imageset.ImageSet) {
	if set == nil {
		pp.status.SetText("No preview loaded")
		return
	}
	names := set.Names()
	pp.channel.Options = names
	for _, s := range pp.rgb {
		s.Options = names
	}
	pp.status.SetText(fmt.Sprintf("Loaded %d channels for %s", len(names), imageset.Stamp(set.Observed)))
}

func (pp *PreviewPanel) invalidate() {
	pp.mu.Lock()
	pp.dirty = true
	pp.mu.Unlock()
	pp.changed()
}

func (pp *PreviewPanel) changed() {
	if pp.onChange != nil {
		pp.onChange()
	}
}
