package panels

import (
	"fmt"
	"log"

	"solar-annotator/internal/app"
	"solar-annotator/internal/labels"
	"solar-annotator/internal/thmap"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const eraseOption = "unlabeled (erase)"

// LabelsPanel selects the active label and shows per-class pixel counts.
type LabelsPanel struct {
	state     *app.State
	container *fyne.Container

	radio   *widget.RadioGroup
	options []string
	codes   map[string]uint8
	counts  map[uint8]*widget.Label
	syncing bool
}

// NewLabelsPanel builds one radio option per configured class plus the
// eraser.
func NewLabelsPanel(state *app.State) *LabelsPanel {
	lp := &LabelsPanel{
		state:  state,
		codes:  make(map[string]uint8),
		counts: make(map[uint8]*widget.Label),
	}
	cfg := state.Config()

	swatches := container.NewVBox()
	for _, e := range cfg.ClassList() {
		opt := optionLabel(e)
		lp.options = append(lp.options, opt)
		lp.codes[opt] = e.Code
		swatches.Add(lp.countRow(e.Code, e.Name))
	}
	lp.options = append(lp.options, eraseOption)
	lp.codes[eraseOption] = labels.Unlabeled
	swatches.Add(lp.countRow(labels.Unlabeled, labels.UnlabeledName))

	lp.radio = widget.NewRadioGroup(lp.options, lp.onSelect)
	lp.radio.Required = true
	lp.selectCode(state.ActiveLabel())

	state.On(app.EventActiveLabelChanged, func(data interface{}) {
		if code, ok := data.(uint8); ok {
			lp.selectCode(code)
		}
	})
	update := func(data interface{}) {
		if r, ok := data.(*thmap.Raster); ok {
			lp.UpdateCounts(r)
		}
	}
	state.On(app.EventRasterChanged, update)
	state.On(app.EventDocumentLoaded, update)

	lp.container = container.NewVBox(
		widget.NewLabelWithStyle("Active label", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		lp.radio,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Pixels", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		swatches,
	)
	return lp
}

func optionLabel(e labels.Entry) string {
	return fmt.Sprintf("%d  %s", e.Code, e.Name)
}

func (lp *LabelsPanel) countRow(code uint8, name string) fyne.CanvasObject {
	swatch := fynecanvas.NewRectangle(lp.state.Config().Color(code))
	swatch.SetMinSize(fyne.NewSize(14, 14))
	swatch.StrokeWidth = 1
	swatch.StrokeColor = lp.state.Config().Color(labels.Unlabeled)
	count := widget.NewLabel("-")
	lp.counts[code] = count
	return container.NewBorder(nil, nil, container.NewHBox(swatch, widget.NewLabel(name)), count)
}

// Container returns the panel container.
func (lp *LabelsPanel) Container() fyne.CanvasObject {
	return container.NewVScroll(lp.container)
}

// UpdateCounts shows the pixel count of every class in r.
func (lp *LabelsPanel) UpdateCounts(r *thmap.Raster) {
	hist := r.Histogram()
	for code, l := range lp.counts {
		l.SetText(fmt.Sprintf("%d", hist[code]))
	}
}

func (lp *LabelsPanel) selectCode(code uint8) {
	for opt, c := range lp.codes {
		if c == code {
			lp.syncing = true
			lp.radio.SetSelected(opt)
			lp.syncing = false
			return
		}
	}
}

func (lp *LabelsPanel) onSelect(opt string) {
	if lp.syncing {
		return
	}
	code, ok := lp.codes[opt]
	if !ok {
		return
	}
	if err := lp.state.SetActiveLabel(code); err != nil {
		log.Printf("Select label %q: %v", opt, err)
	}
}
