package ui

import (
	"fmt"
	"runtime"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// buildLabelBar creates the indicator followed by one button per label.
func (a *App) buildLabelBar() fyne.CanvasObject {
	a.UI.indicatorBg = canvas.NewRectangle(unlabeledColor)
	a.UI.indicatorBg.StrokeColor = theme.Color(theme.ColorNameForeground)
	a.UI.indicatorBg.StrokeWidth = 1
	a.UI.indicatorBg.SetMinSize(indicatorMinSize)
	a.UI.indicatorText = canvas.NewText("", theme.Color(theme.ColorNameForeground))
	a.UI.indicatorText.Alignment = fyne.TextAlignCenter
	a.UI.indicatorText.TextStyle.Bold = true
	indicator := container.NewStack(a.UI.indicatorBg, container.NewCenter(a.UI.indicatorText))

	row := container.NewHBox(layout.NewSpacer(), indicator, widget.NewSeparator())
	labels := a.labeler.Labels()
	a.UI.labelButtons = make([]*widget.Button, labels.Len())
	for i, l := range labels {
		text := l
		if i < 9 {
			text = fmt.Sprintf("%s (%d)", l, i+1)
		}
		btn := widget.NewButton(text, func() { a.labelClicked(i) })
		btn.Importance = widget.HighImportance
		a.UI.labelButtons[i] = btn
		row.Add(btn)
	}
	row.Add(layout.NewSpacer())
	return container.NewHScroll(row)
}

// buildNavBar creates the navigation buttons under the image.
func (a *App) buildNavBar() fyne.CanvasObject {
	return container.NewHBox(
		layout.NewSpacer(),
		widget.NewButtonWithIcon("", theme.MediaSkipPreviousIcon(), a.firstImage),
		widget.NewButtonWithIcon("", theme.MediaFastRewindIcon(), a.skipBack),
		widget.NewButtonWithIcon("Back", theme.NavigateBackIcon(), a.back),
		widget.NewButtonWithIcon("Forward", theme.NavigateNextIcon(), a.forward),
		widget.NewButtonWithIcon("", theme.MediaFastForwardIcon(), a.skipForward),
		widget.NewButtonWithIcon("", theme.MediaSkipNextIcon(), a.lastImage),
		widget.NewButtonWithIcon("Next unlabeled", theme.SearchIcon(), a.nextUnlabeled),
		layout.NewSpacer(),
	)
}

func (a *App) buildStatusBar() fyne.CanvasObject {
	a.UI.statusPathLabel = widget.NewLabel("Ready")
	a.UI.statusPathLabel.Truncation = fyne.TextTruncateEllipsis
	a.UI.statusLogLabel = widget.NewLabel("")
	a.UI.statusLogLabel.Truncation = fyne.TextTruncateEllipsis
	a.UI.statusLogUpBtn = widget.NewButtonWithIcon("", theme.MoveUpIcon(), nil)
	a.UI.statusLogDownBtn = widget.NewButtonWithIcon("", theme.MoveDownIcon(), nil)

	a.logUIManager = NewLogUIManager(a.UI.statusLogLabel, a.UI.statusLogUpBtn, a.UI.statusLogDownBtn, DefaultMaxLogMessages)
	a.UI.statusLogUpBtn.OnTapped = a.logUIManager.ShowPreviousLogMessage
	a.UI.statusLogDownBtn.OnTapped = a.logUIManager.ShowNextLogMessage

	logRow := container.NewBorder(nil, nil, nil,
		container.NewHBox(a.UI.statusLogUpBtn, a.UI.statusLogDownBtn),
		a.UI.statusLogLabel,
	)
	return container.NewVBox(widget.NewSeparator(), a.UI.statusPathLabel, logRow)
}

func (a *App) buildMainUI() fyne.CanvasObject {
	a.UI.MainWin.SetMaster()
	// set main mod key to super on darwin hosts, else set it to ctrl
	if runtime.GOOS == "darwin" {
		a.mainModKey = fyne.KeyModifierSuper
	} else {
		a.mainModKey = fyne.KeyModifierControl
	}

	a.UI.image = &canvas.Image{}
	a.UI.image.FillMode = canvas.ImageFillContain
	a.UI.image.ScaleMode = canvas.ImageScaleSmooth
	a.UI.image.SetMinSize(fyne.NewSize(320, 480))

	a.UI.infoText = widget.NewRichTextFromMarkdown("# Info\n---\n")
	a.UI.infoText.Wrapping = fyne.TextWrapWord
	a.labelsView = newLabelsView(a)

	side := container.NewAppTabs(
		container.NewTabItem("Information", container.NewVScroll(a.UI.infoText)),
		container.NewTabItem("Labels", a.labelsView.list),
	)
	split := container.NewHSplit(a.UI.image, side)
	split.SetOffset(0.75)

	quitItem := fyne.NewMenuItem("Quit", a.quit)
	quitItem.IsQuit = true
	mainMenu := fyne.NewMainMenu(
		fyne.NewMenu("File", quitItem),
		fyne.NewMenu("View",
			fyne.NewMenuItem("Next Image", a.forward),
			fyne.NewMenuItem("Previous Image", a.back),
			fyne.NewMenuItem("First Image", a.firstImage),
			fyne.NewMenuItem("Last Image", a.lastImage),
			fyne.NewMenuItem("Next Unlabeled Image", a.nextUnlabeled),
		),
		fyne.NewMenu("Help",
			fyne.NewMenuItem("Keyboard Shortcuts", a.showShortcuts),
			fyne.NewMenuItem("About", func() { NewAbout(a.UI.MainWin, "About", a.aboutText()).Show() }),
		),
	)
	a.UI.MainWin.SetMainMenu(mainMenu)
	a.buildKeyboardShortcuts()

	top := a.buildLabelBar()
	bottom := container.NewVBox(a.buildNavBar(), a.buildStatusBar())
	return container.NewBorder(top, bottom, nil, nil, split)
}
