package ui

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"imglabeler/internal/labelfile"
	"imglabeler/internal/labelindex"
	"imglabeler/internal/labeling"
	"imglabeler/internal/service"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	img.Set(1, 1, color.RGBA{G: 255, A: 255})
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func newTestApp(t *testing.T, names ...string) (*App, *labelfile.Store) {
	t.Helper()
	dir := t.TempDir()
	var images []string
	for _, n := range names {
		images = append(images, writePNG(t, dir, n))
	}
	state, err := labeling.NewState(images, nil)
	require.NoError(t, err)
	store := labelfile.NewStore(filepath.Join(t.TempDir(), "labeling.csv"), labelfile.Abort, func(m string) { t.Log(m) })
	labeler := service.NewLabeler(state, labeling.LabelSet{"Cat", "Dog"}, store, nil, func(m string) { t.Log(m) })

	a := New(test.NewApp(), labeler)
	t.Cleanup(func() { a.UI.MainWin.Close() })
	return a, store
}

func TestNewShowsFirstImage(t *testing.T) {
	a, _ := newTestApp(t, "a.png", "b.png")
	require.NotNil(t, a.UI.image.Image)
	assert.Equal(t, "Image Labeler - a.png", a.UI.MainWin.Title())
	assert.False(t, a.labeled)
	assert.Equal(t, "", a.UI.indicatorText.Text)
	assert.Contains(t, a.UI.statusPathLabel.Text, "Image 1 / 2")
	assert.True(t, strings.HasPrefix(a.UI.statusPathLabel.Text, "a.png | "), "status bar leads with the image summary: %q", a.UI.statusPathLabel.Text)
	require.Len(t, a.UI.labelButtons, 2)
	assert.Equal(t, "Cat (1)", a.UI.labelButtons[0].Text)
}

func TestLabelButtonRecordsAndAdvances(t *testing.T) {
	a, store := newTestApp(t, "a.png", "b.png")

	test.Tap(a.UI.labelButtons[1])
	assert.Equal(t, "Image Labeler - b.png", a.UI.MainWin.Title())
	assert.False(t, a.labeled)

	test.Tap(a.UI.labelButtons[0])
	assert.Equal(t, "Image Labeler - b.png", a.UI.MainWin.Title(), "stays on the last image")
	assert.True(t, a.labeled)
	assert.Equal(t, "Cat", a.UI.indicatorText.Text)
	assert.Equal(t, labeledColor, a.UI.indicatorBg.FillColor)
	assert.Contains(t, a.UI.statusPathLabel.Text, "Labeled 2")

	lg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, lg.Len())

	a.back()
	assert.Equal(t, "Dog", a.UI.indicatorText.Text)
	assert.Equal(t, "1. Cat (1)", a.labelsView.rowText(0))
}

func TestKeyboardNavigation(t *testing.T) {
	a, _ := newTestApp(t, "a.png", "b.png", "c.png")

	a.handleKey(&fyne.KeyEvent{Name: fyne.KeyLeft})
	msg, ok := a.logUIManager.Current()
	require.True(t, ok)
	assert.Equal(t, "Navigation: did not move, at start", msg)

	a.handleKey(&fyne.KeyEvent{Name: fyne.KeyEnd})
	assert.Equal(t, "Image Labeler - c.png", a.UI.MainWin.Title())

	a.handleKey(&fyne.KeyEvent{Name: fyne.KeyHome})
	a.handleKey(&fyne.KeyEvent{Name: fyne.Key2})
	assert.Equal(t, "Image Labeler - b.png", a.UI.MainWin.Title())

	a.handleKey(&fyne.KeyEvent{Name: fyne.Key9})
	assert.Equal(t, "Image Labeler - b.png", a.UI.MainWin.Title(), "no ninth label")

	a.handleKey(&fyne.KeyEvent{Name: fyne.KeyHome})
	a.handleKey(&fyne.KeyEvent{Name: fyne.KeyN})
	assert.Equal(t, "Image Labeler - b.png", a.UI.MainWin.Title())

	a.handleKey(&fyne.KeyEvent{Name: fyne.KeyPageDown})
	assert.Equal(t, "Image Labeler - c.png", a.UI.MainWin.Title())
}

func TestBrokenImageKeepsSession(t *testing.T) {
	a, _ := newTestApp(t, "a.png", "b.png")
	bad := a.labeler.CurrentImagePath()
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0644))

	a.ShowImage(bad)
	assert.Nil(t, a.UI.image.Image)
	assert.True(t, strings.HasPrefix(a.UI.MainWin.Title(), "Image Labeler - Error loading"))
	msg, _ := a.logUIManager.Current()
	assert.Contains(t, msg, "Error loading a.png")

	test.Tap(a.UI.labelButtons[0])
	assert.Equal(t, "Image Labeler - b.png", a.UI.MainWin.Title())
}

func TestAboutText(t *testing.T) {
	a, _ := newTestApp(t, "a.png", "b.png")
	test.Tap(a.UI.labelButtons[1])
	text := a.aboutText()
	assert.Contains(t, text, "1 of 2 images labeled.")
	assert.Contains(t, text, "Dog: 1")
	assert.Contains(t, text, "Cat: 0")

	about := NewAbout(a.UI.MainWin, "About", text)
	about.Show()
	about.Hide()
}

func TestFormatNumberWithCommas(t *testing.T) {
	for in, want := range map[int64]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -45678: "-45,678"} {
		assert.Equal(t, want, formatNumberWithCommas(in))
	}
}

func TestLabelerThemeColors(t *testing.T) {
	th := NewLabelerTheme(test.Theme())
	assert.Equal(t, labeledColor, th.Color(ColorNameLabeled, 0))
	assert.Equal(t, unlabeledColor, th.Color(ColorNameUnlabeled, 0))
	assert.Same(t, th, NewLabelerTheme(th))
}

func TestQuitReleasesLabelIndex(t *testing.T) {
	dir := t.TempDir()
	images := []string{writePNG(t, dir, "a.png"), writePNG(t, dir, "b.png")}
	state, err := labeling.NewState(images, nil)
	require.NoError(t, err)
	dbDir := t.TempDir()
	idx, err := labelindex.Open(dbDir, func(m string) { t.Log(m) })
	require.NoError(t, err)
	store := labelfile.NewStore(filepath.Join(t.TempDir(), "labeling.csv"), labelfile.Abort, func(m string) { t.Log(m) })
	labeler := service.NewLabeler(state, labeling.LabelSet{"Cat", "Dog"}, store, idx, func(m string) { t.Log(m) })

	a := New(test.NewApp(), labeler)
	t.Cleanup(func() { a.UI.MainWin.Close() })
	a.quit()

	reopened, err := labelindex.Open(dbDir, nil)
	require.NoError(t, err, "quitting closes the index and releases its lock")
	assert.NoError(t, reopened.Close())
	assert.NoError(t, labeler.Close(), "closing twice is harmless")
}
