package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// digitKeys maps the number keys to label positions.
var digitKeys = map[fyne.KeyName]int{
	fyne.Key1: 0, fyne.Key2: 1, fyne.Key3: 2, fyne.Key4: 3, fyne.Key5: 4,
	fyne.Key6: 5, fyne.Key7: 6, fyne.Key8: 7, fyne.Key9: 8,
}

func (a *App) buildKeyboardShortcuts() {
	// ctrl+q to quit application
	a.UI.MainWin.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyQ,
		Modifier: a.mainModKey,
	}, func(_ fyne.Shortcut) { a.quit() })

	a.UI.MainWin.Canvas().SetOnTypedKey(a.handleKey)
}

func (a *App) handleKey(key *fyne.KeyEvent) {
	if i, ok := digitKeys[key.Name]; ok {
		if i < a.labeler.Labels().Len() {
			a.labelClicked(i)
		}
		return
	}
	switch key.Name {
	case fyne.KeyRight:
		a.forward()
	case fyne.KeyLeft:
		a.back()
	case fyne.KeyPageUp, fyne.KeyUp:
		a.skipBack()
	case fyne.KeyPageDown, fyne.KeyDown:
		a.skipForward()
	case fyne.KeyHome:
		a.firstImage()
	case fyne.KeyEnd:
		a.lastImage()
	case fyne.KeyN:
		a.nextUnlabeled()
	// close dialogs with esc key
	case fyne.KeyEscape:
		if top := a.UI.MainWin.Canvas().Overlays().Top(); top != nil {
			top.Hide()
		}
	}
}

var shortcutRows = [][2]string{
	{"Label current image", "1 - 9"},
	{"Next Image", "Arrow Right"},
	{"Previous Image", "Arrow Left"},
	{"Skip Images Back", "Page Up / Arrow Up"},
	{"Skip Images Forward", "Page Down / Arrow Down"},
	{"First Image", "Home"},
	{"Last Image", "End"},
	{"Next Unlabeled Image", "N"},
	{"Close Dialog", "Esc"},
	{"Quit Application", "Ctrl+Q"},
}

func (a *App) showShortcuts() {
	win := a.app.NewWindow("Keyboard Shortcuts")
	table := widget.NewTable(
		func() (int, int) { return len(shortcutRows) + 1, 2 }, // +1 for header row
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			label := obj.(*widget.Label)
			if id.Row == 0 {
				label.SetText([]string{"Description", "Shortcut"}[id.Col])
				label.TextStyle.Bold = true
				return
			}
			label.SetText(shortcutRows[id.Row-1][id.Col])
			label.TextStyle.Bold = false
		},
	)
	table.SetColumnWidth(0, 250)
	table.SetColumnWidth(1, 250)
	win.SetContent(table)
	win.Resize(fyne.NewSize(500, 420))
	win.Show()
}
