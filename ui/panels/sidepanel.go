// Package panels provides the side panels of the main window.
package panels

import (
	"solar-annotator/internal/app"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

// SidePanel holds the label and preview tabs.
type SidePanel struct {
	container *container.AppTabs

	Labels  *LabelsPanel
	Preview *PreviewPanel
}

// NewSidePanel creates the side panel. onDisplayChange is called whenever
// the preview or overlay settings change and the canvas needs recomposing.
func NewSidePanel(state *app.State, onDisplayChange func()) *SidePanel {
	sp := &SidePanel{
		Labels:  NewLabelsPanel(state),
		Preview: NewPreviewPanel(state, onDisplayChange),
	}
	sp.container = container.NewAppTabs(
		container.NewTabItem("Labels", sp.Labels.Container()),
		container.NewTabItem("Preview", sp.Preview.Container()),
	)
	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// SetWindow sets the parent window for dialogs.
func (sp *SidePanel) SetWindow(w fyne.Window) {
	sp.Preview.SetWindow(w)
}
