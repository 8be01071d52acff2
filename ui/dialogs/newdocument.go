// Package dialogs provides application dialogs.
package dialogs

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"solar-annotator/internal/thmap"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// DocumentSpec describes a blank thematic map.
type DocumentSpec struct {
	Width    int
	Height   int
	Observed time.Time
}

// ParseDocumentSpec reads the dialog fields. An empty observation time
// means now.
func ParseDocumentSpec(width, height, observed string) (DocumentSpec, error) {
	var spec DocumentSpec
	w, err := strconv.Atoi(strings.TrimSpace(width))
	if err != nil || w <= 0 {
		return spec, fmt.Errorf("width %q: must be a positive integer", width)
	}
	h, err := strconv.Atoi(strings.TrimSpace(height))
	if err != nil || h <= 0 {
		return spec, fmt.Errorf("height %q: must be a positive integer", height)
	}
	spec.Width, spec.Height = w, h

	observed = strings.TrimSpace(observed)
	if observed == "" {
		spec.Observed = time.Now().UTC()
		return spec, nil
	}
	t, err := thmap.ParseDateObs(observed)
	if err != nil {
		return spec, fmt.Errorf("observation time: %w", err)
	}
	spec.Observed = t
	return spec, nil
}

// NewDocumentDialog asks for the size and observation time of a blank map.
type NewDocumentDialog struct {
	window fyne.Window

	widthEntry    *widget.Entry
	heightEntry   *widget.Entry
	observedEntry *widget.Entry

	onCreate func(DocumentSpec)
}

// NewNewDocumentDialog creates the dialog, prefilled with a size.
func NewNewDocumentDialog(window fyne.Window, width, height int, onCreate func(DocumentSpec)) *NewDocumentDialog {
	d := &NewDocumentDialog{
		window:        window,
		widthEntry:    widget.NewEntry(),
		heightEntry:   widget.NewEntry(),
		observedEntry: widget.NewEntry(),
		onCreate:      onCreate,
	}
	d.widthEntry.SetText(strconv.Itoa(width))
	d.heightEntry.SetText(strconv.Itoa(height))
	d.observedEntry.SetPlaceHolder(thmap.FormatDateObs(time.Now().UTC()))
	return d
}

// Show displays the dialog.
func (d *NewDocumentDialog) Show() {
	form := widget.NewForm(
		widget.NewFormItem("Width (px)", d.widthEntry),
		widget.NewFormItem("Height (px)", d.heightEntry),
		widget.NewFormItem("DATE-OBS", d.observedEntry),
	)
	dlg := dialog.NewCustomConfirm("New Thematic Map", "Create", "Cancel", form, func(ok bool) {
		if !ok {
			return
		}
		spec, err := ParseDocumentSpec(d.widthEntry.Text, d.heightEntry.Text, d.observedEntry.Text)
		if err != nil {
			dialog.ShowError(err, d.window)
			return
		}
		if d.onCreate != nil {
			d.onCreate(spec)
		}
	}, d.window)
	dlg.Resize(fyne.NewSize(400, 220))
	dlg.Show()
}
