package ui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

type About struct {
	title     string
	parent    fyne.Window
	container *fyne.Container
	d         dialog.Dialog
}

func NewAbout(parent fyne.Window, title, text string) *About {
	a := &About{
		title:  title,
		parent: parent,
	}

	body := widget.NewLabel(text)
	body.Wrapping = fyne.TextWrapWord

	ok := container.NewHBox(
		layout.NewSpacer(),
		widget.NewButton("OK", func() { a.Hide() }),
		layout.NewSpacer(),
	)
	a.container = container.NewBorder(nil, ok, nil, nil, body)
	return a
}

func (a *About) Hide() {
	if a.d != nil {
		a.d.Hide()
	}
}

func (a *About) Show() {
	a.d = dialog.NewCustomWithoutButtons(a.title, a.container, a.parent)
	a.d.Show()
}

// aboutText summarizes the session for the About dialog.
func (a *App) aboutText() string {
	_, total := a.labeler.Position()
	var b strings.Builder
	b.WriteString("A simple image labeler.\n\n")
	fmt.Fprintf(&b, "%d of %d images labeled.\n", a.labeler.Labeled(), total)
	counts := a.labeler.Counts()
	for _, l := range a.labeler.Labels() {
		fmt.Fprintf(&b, "%s: %d\n", l, counts[l])
	}
	return b.String()
}
