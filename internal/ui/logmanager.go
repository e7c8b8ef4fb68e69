package ui

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2/widget"
)

// DefaultMaxLogMessages bounds the status log history.
const DefaultMaxLogMessages = 100

type logEntry struct {
	at   time.Time
	text string
}

// LogUIManager shows the status log one message at a time, with buttons to
// page through older ones. Adding a message always jumps to it.
type LogUIManager struct {
	entries []logEntry
	pos     int
	max     int
	now     func() time.Time

	label   *widget.Label
	upBtn   *widget.Button
	downBtn *widget.Button
}

func NewLogUIManager(logLabel *widget.Label, upBtn, downBtn *widget.Button, maxMessages int) *LogUIManager {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxLogMessages
	}
	lm := &LogUIManager{
		entries: make([]logEntry, 0, maxMessages),
		pos:     -1,
		max:     maxMessages,
		now:     time.Now,
		label:   logLabel,
		upBtn:   upBtn,
		downBtn: downBtn,
	}
	lm.UpdateLogDisplay()
	return lm
}

// AddLogMessage appends message, dropping the oldest beyond the limit.
func (lm *LogUIManager) AddLogMessage(message string) {
	lm.entries = append(lm.entries, logEntry{at: lm.now(), text: message})
	if over := len(lm.entries) - lm.max; over > 0 {
		lm.entries = append(lm.entries[:0], lm.entries[over:]...)
	}
	lm.pos = len(lm.entries) - 1
	lm.UpdateLogDisplay()
}

// Messages returns the retained messages, oldest first.
func (lm *LogUIManager) Messages() []string {
	out := make([]string, len(lm.entries))
	for i, e := range lm.entries {
		out[i] = e.text
	}
	return out
}

// Current returns the message on display.
func (lm *LogUIManager) Current() (string, bool) {
	if lm.pos < 0 || lm.pos >= len(lm.entries) {
		return "", false
	}
	return lm.entries[lm.pos].text, true
}

func (lm *LogUIManager) UpdateLogDisplay() {
	if lm.label == nil || lm.upBtn == nil || lm.downBtn == nil {
		return
	}
	if len(lm.entries) == 0 {
		lm.label.SetText("")
		lm.upBtn.Disable()
		lm.downBtn.Disable()
		return
	}

	e := lm.entries[lm.pos]
	lm.label.SetText(fmt.Sprintf("[%d/%d %s] %s", lm.pos+1, len(lm.entries), e.at.Format("15:04:05"), e.text))
	setEnabled(lm.upBtn, lm.pos > 0)
	setEnabled(lm.downBtn, lm.pos < len(lm.entries)-1)
}

func setEnabled(b *widget.Button, enabled bool) {
	if enabled {
		b.Enable()
	} else {
		b.Disable()
	}
}

func (lm *LogUIManager) ShowPreviousLogMessage() {
	if lm.pos <= 0 {
		return
	}
	lm.pos--
	lm.UpdateLogDisplay()
}

func (lm *LogUIManager) ShowNextLogMessage() {
	if lm.pos >= len(lm.entries)-1 {
		return
	}
	lm.pos++
	lm.UpdateLogDisplay()
}
