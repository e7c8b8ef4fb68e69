package ui

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"imglabeler/internal/service"

	"fyne.io/fyne/v2"
)

var _ service.Display = (*App)(nil)

// formatNumberWithCommas takes an integer and returns a string representation
// with commas as thousands separators.
func formatNumberWithCommas(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := n < 0
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// ShowImage decodes path and puts it on the canvas.
func (a *App) ShowImage(path string) {
	info, img, err := a.imageService.GetImageInfo(path)
	if err != nil {
		a.handleImageDisplayError(path, err)
		return
	}
	a.img = Img{Path: path, Info: info}
	a.UI.image.Image = img
	a.UI.image.Refresh()
	a.UI.MainWin.SetTitle(fmt.Sprintf("Image Labeler - %s", info.Name))
	a.updateStatusBar()
	a.updateInfoText()
}

// ShowLabel updates the label indicator: the label on a red background when
// the image is labeled, an empty white box otherwise.
func (a *App) ShowLabel(text string, labeled bool) {
	a.labeled = labeled
	a.UI.indicatorText.Text = text
	th := a.app.Settings().Theme()
	variant := a.app.Settings().ThemeVariant()
	if labeled {
		a.UI.indicatorBg.FillColor = th.Color(ColorNameLabeled, variant)
		a.UI.indicatorText.Color = th.Color(ColorNameLabeledText, variant)
	} else {
		a.UI.indicatorBg.FillColor = th.Color(ColorNameUnlabeled, variant)
		a.UI.indicatorText.Color = th.Color(ColorNameUnlabeledText, variant)
	}
	a.UI.indicatorBg.Refresh()
	a.UI.indicatorText.Refresh()

	a.updateStatusBar()
	a.updateInfoText()
	if a.labelsView != nil {
		a.labelsView.refresh()
	}
}

// updateStatusBar updates the text of the status bar.
func (a *App) updateStatusBar() {
	if a.UI.statusPathLabel == nil {
		return
	}
	detail := a.labeler.CurrentImagePath()
	if a.img.Info != nil && a.img.Path == detail {
		detail = a.img.Info.Summary()
	}
	pos, total := a.labeler.Position()
	a.UI.statusPathLabel.SetText(fmt.Sprintf("%s  |  Image %d / %d  |  Labeled %d",
		detail, pos+1, total, a.labeler.Labeled()))
}

// updateInfoText renders the metadata of the current image and its label in
// the info panel.
func (a *App) updateInfoText() {
	if a.UI.infoText == nil {
		return
	}
	info := a.img.Info
	if a.img.Path == "" || info == nil || a.img.Path != a.labeler.CurrentImagePath() {
		a.UI.infoText.ParseMarkdown("# Info\n---\nImage metadata not available.")
		return
	}

	labelString := "(none)"
	if text, ok := a.labeler.CurrentLabel(); ok {
		labelString = text
	}

	exifString := "(not available)"
	if len(info.EXIFData) > 0 {
		keys := make([]string, 0, len(info.EXIFData))
		for k := range info.EXIFData {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var builder strings.Builder
		for _, k := range keys {
			builder.WriteString(fmt.Sprintf("- **%s**: %s\n\n", k, info.EXIFData[k]))
		}
		exifString = builder.String()
	}

	pos, total := a.labeler.Position()
	md := fmt.Sprintf(`## Stats
**Num:** %s

**Total:** %s

**Size:**   %s bytes

**Width:**   %d px

**Height:**  %d px

**Last modified:** %s

---
## Label
%s

---
## EXIF Data
%s
`,
		formatNumberWithCommas(int64(pos+1)),
		formatNumberWithCommas(int64(total)),
		formatNumberWithCommas(info.Size),
		info.Width,
		info.Height,
		info.ModTime.Format("2006-01-02 15:04:05"),
		labelString,
		exifString,
	)
	a.UI.infoText.ParseMarkdown(md)
}

// handleImageDisplayError clears the canvas when an image fails to load. The
// session carries on: the image can still be labeled or skipped.
func (a *App) handleImageDisplayError(imagePath string, err error) {
	a.img = Img{Path: imagePath}
	a.UI.image.Image = nil
	a.UI.image.Refresh()
	a.UI.MainWin.SetTitle(fmt.Sprintf("Image Labeler - Error loading %s", filepath.Base(imagePath)))
	a.updateStatusBar()
	a.updateInfoText()
	a.addLogMessage(fmt.Sprintf("Error loading %s: %v", filepath.Base(imagePath), err))
}

// indicatorMinSize keeps the indicator visible while empty.
var indicatorMinSize = fyne.NewSize(120, 36)
