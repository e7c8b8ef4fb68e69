package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// Colors of the label indicator.
const (
	ColorNameLabeled       fyne.ThemeColorName = "labeled"
	ColorNameLabeledText   fyne.ThemeColorName = "labeledText"
	ColorNameUnlabeled     fyne.ThemeColorName = "unlabeled"
	ColorNameUnlabeledText fyne.ThemeColorName = "unlabeledText"
)

var (
	labeledColor   = color.NRGBA{R: 0xd3, G: 0x2f, B: 0x2f, A: 0xff}
	unlabeledColor = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// labelerTheme wraps an existing theme, tightens padding and adds the
// indicator colors.
type labelerTheme struct {
	fyne.Theme
}

var _ fyne.Theme = (*labelerTheme)(nil)

// Size overrides the default theme size for padding.
func (t *labelerTheme) Size(name fyne.ThemeSizeName) float32 {
	if name == theme.SizeNamePadding {
		return 2.0
	}
	return t.Theme.Size(name)
}

func (t *labelerTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case ColorNameLabeled:
		return labeledColor
	case ColorNameLabeledText:
		return color.White
	case ColorNameUnlabeled:
		return unlabeledColor
	case ColorNameUnlabeledText:
		return color.Black
	}
	return t.Theme.Color(name, variant)
}

// NewLabelerTheme creates a new theme wrapper around baseTheme.
func NewLabelerTheme(baseTheme fyne.Theme) fyne.Theme {
	if lt, ok := baseTheme.(*labelerTheme); ok {
		return lt
	}
	return &labelerTheme{Theme: baseTheme}
}
