// Package ui is the fyne front end of the image labeler.
package ui

import (
	"fmt"
	"log"

	"imglabeler/internal/config"
	"imglabeler/internal/labeling"
	"imglabeler/internal/logger"
	"imglabeler/internal/service"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// AppID identifies the application to fyne (preferences, storage).
const AppID = "io.github.imglabeler"

// Img is the image on display.
type Img struct {
	Path string
	Info *service.ImageInfo
}

// UI holds the widgets the App updates after construction.
type UI struct {
	MainWin fyne.Window

	image         *canvas.Image
	indicatorBg   *canvas.Rectangle
	indicatorText *canvas.Text
	labelButtons  []*widget.Button

	statusPathLabel  *widget.Label
	statusLogLabel   *widget.Label
	statusLogUpBtn   *widget.Button
	statusLogDownBtn *widget.Button
	infoText         *widget.RichText
}

// App represents the whole application with its window, widgets and the
// labeling session it drives.
type App struct {
	app fyne.App
	UI  UI

	labeler      *service.Labeler
	imageService *service.ImageService
	img          Img
	labeled      bool

	logUIManager *LogUIManager
	labelsView   *labelsView
	mainModKey   fyne.KeyModifier
}

// Run opens the session described by cfg and shows the main window until it
// is closed. Configuration problems are returned before any window opens.
// logFn, if set, receives every status message.
func Run(cfg config.Session, logFn func(string)) error {
	var ui *App
	appLoggerFunc := logger.Tee(logFn, func(message string) {
		if ui != nil && ui.logUIManager != nil {
			ui.logUIManager.AddLogMessage(message)
		}
	})

	labeler, err := service.Open(cfg, appLoggerFunc)
	if err != nil {
		return err
	}

	ui = New(app.NewWithID(AppID), labeler)
	ui.UI.MainWin.ShowAndRun()
	return labeler.Close()
}

// New builds the main window for labeler on fa and shows the current image.
func New(fa fyne.App, labeler *service.Labeler) *App {
	fa.Settings().SetTheme(NewLabelerTheme(fa.Settings().Theme()))

	a := &App{
		app:          fa,
		labeler:      labeler,
		imageService: service.NewImageService(),
	}
	a.UI.MainWin = fa.NewWindow("Image Labeler")
	a.UI.MainWin.SetCloseIntercept(func() {
		a.closeSession()
		a.UI.MainWin.Close()
	})
	a.UI.MainWin.SetContent(a.buildMainUI())
	a.UI.MainWin.Resize(fyne.NewSize(1024, 750))
	a.UI.MainWin.CenterOnScreen()

	labeler.SetDisplay(a)
	return a
}

// closeSession releases the label index. Later calls do nothing.
func (a *App) closeSession() {
	log.Println("Closing label index...")
	if err := a.labeler.Close(); err != nil {
		log.Printf("Error closing label index: %v", err)
	}
}

// quit closes the session and stops the application.
func (a *App) quit() {
	a.closeSession()
	a.app.Quit()
}

// addLogMessage adds a message to the UI log display.
func (a *App) addLogMessage(message string) {
	if a.logUIManager != nil {
		a.logUIManager.AddLogMessage(message)
	} else {
		log.Printf("LogUIManager not ready, console log: %s", message)
	}
}

// labelClicked records label i for the image on display.
func (a *App) labelClicked(i int) {
	if err := a.labeler.OnLabelClicked(i); err != nil {
		a.addLogMessage(fmt.Sprintf("Error: %v", err))
		dialog.ShowError(err, a.UI.MainWin)
	}
}

// navigate runs a move and reports in the status log when it went nowhere.
func (a *App) navigate(move func() labeling.MoveResult) {
	if res := move(); !res.Moved() {
		a.addLogMessage(fmt.Sprintf("Navigation: %s", res))
	}
}

func (a *App) forward()       { a.navigate(a.labeler.OnForwardClicked) }
func (a *App) back()          { a.navigate(a.labeler.OnBackClicked) }
func (a *App) firstImage()    { a.navigate(a.labeler.First) }
func (a *App) lastImage()     { a.navigate(a.labeler.Last) }
func (a *App) skipForward()   { a.navigate(a.labeler.SkipForward) }
func (a *App) skipBack()      { a.navigate(a.labeler.SkipBack) }
func (a *App) nextUnlabeled() { a.navigate(a.labeler.NextUnlabeled) }
