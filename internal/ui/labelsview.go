package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// labelsView lists the label set with the number of images carrying each
// label. Selecting a row labels the current image.
type labelsView struct {
	app  *App
	list *widget.List
}

func newLabelsView(a *App) *labelsView {
	v := &labelsView{app: a}
	v.list = widget.NewList(
		func() int { return a.labeler.Labels().Len() },
		func() fyne.CanvasObject {
			return widget.NewLabel("label template")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText(v.rowText(id))
		},
	)
	v.list.OnSelected = func(id widget.ListItemID) {
		v.list.UnselectAll()
		a.labelClicked(id)
	}
	return v
}

func (v *labelsView) rowText(id widget.ListItemID) string {
	name, ok := v.app.labeler.Labels().At(id)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%d. %s (%d)", id+1, name, v.app.labeler.Counts()[name])
}

func (v *labelsView) refresh() {
	v.list.Refresh()
}
