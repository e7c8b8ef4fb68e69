package service

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"imglabeler/internal/config"
	"imglabeler/internal/labelfile"
	"imglabeler/internal/labelindex"
	"imglabeler/internal/labeling"
	"imglabeler/internal/scan"
)

// ErrLabelOutOfRange is returned when a label index is not in the label set.
var ErrLabelOutOfRange = errors.New("label index out of range")

// Display shows the current image and its label indicator.
type Display interface {
	ShowImage(path string)
	// ShowLabel shows text for the current image; labeled is false when the
	// image has no recorded label and text is empty.
	ShowLabel(text string, labeled bool)
}

// Labeler owns the session state and turns user actions into reducer
// commands, executing the effects the reducer asks for: display refreshes,
// saving the label file and mirroring the assignment into the index.
//
// A Labeler is not safe for concurrent use. The GUI calls it from its event
// callbacks only.
type Labeler struct {
	state   labeling.State
	labels  labeling.LabelSet
	store   LabelStore
	index   LabelIndex
	display Display
	logger  func(string)

	// SkipCount is the distance covered by SkipForward and SkipBack.
	SkipCount int
}

// NewLabeler wraps state. index may be nil.
func NewLabeler(state labeling.State, labels labeling.LabelSet, store LabelStore, index LabelIndex, logger func(string)) *Labeler {
	return &Labeler{
		state:     state,
		labels:    labels,
		store:     store,
		index:     index,
		logger:    logger,
		SkipCount: config.DefaultSkipCount,
	}
}

// Open builds a Labeler from a validated session: it enumerates the image
// directory, restores saved labels, warns about saved labels that no longer
// match their image and syncs the label index. Problems with the inputs are
// returned as *config.ConfigurationError.
func Open(cfg config.Session, logger func(string)) (*Labeler, error) {
	images, err := scan.Run(cfg.ImageDir, cfg.Extensions, scan.LoggerFunc(logger))
	if err != nil {
		return nil, err
	}

	store := labelfile.NewStore(cfg.OutputPath, cfg.CorruptPolicy, labelfile.LoggerFunc(logger))
	lg, err := store.Load()
	if err != nil {
		return nil, config.Wrap(err, "cannot restore labels from %s", store.Path)
	}

	state, err := labeling.NewState(images, lg)
	if err != nil {
		return nil, config.Wrap(err, "cannot start session")
	}

	var index LabelIndex
	if !cfg.NoIndex {
		idx, err := openIndex(cfg.IndexDir, store.Path, lg, logger)
		if err != nil {
			logTo(logger, "Warning: label index disabled: %v", err)
		} else {
			index = idx
		}
	}

	l := NewLabeler(state, cfg.Labels, store, index, logger)
	if cfg.SkipCount > 0 {
		l.SkipCount = cfg.SkipCount
	}

	for _, e := range state.Stale() {
		l.logMessage("Warning: saved label %q for image %d was recorded for %s, which is no longer at that position", e.Label, e.ImageIndex, e.ImagePath)
	}
	if cfg.Resume {
		if i, ok := state.FirstUnlabeled(); ok {
			l.dispatch(labeling.Skip{Delta: i - state.Current})
		}
	}
	l.logMessage("Session started: %d images, %d labeled, labels %v", state.Len(), lg.Len(), []string(cfg.Labels))
	return l, nil
}

// openIndex opens the index of the label file at csvPath, in dir or in the
// file's own directory under labelindex.DefaultDir, and rebuilds it from lg.
func openIndex(dir, csvPath string, lg *labeling.Log, logger func(string)) (*labelindex.Index, error) {
	source, err := filepath.Abs(csvPath)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		if dir, err = labelindex.DirFor(source); err != nil {
			return nil, err
		}
	}
	idx, err := labelindex.Open(dir, labelindex.LoggerFunc(logger))
	if err != nil {
		return nil, err
	}
	if err := idx.Rebuild(lg, labelindex.Source{CSV: source}); err != nil {
		idx.Close()
		return nil, err
	}
	return idx, nil
}

func logTo(logger func(string), format string, args ...interface{}) {
	if logger != nil {
		logger(fmt.Sprintf(format, args...))
	} else {
		log.Printf(format, args...)
	}
}

func (l *Labeler) logMessage(format string, args ...interface{}) {
	logTo(l.logger, format, args...)
}

// SetDisplay attaches d and shows the current image and label on it.
func (l *Labeler) SetDisplay(d Display) {
	l.display = d
	l.Refresh()
}

// Refresh redraws the current image and label indicator.
func (l *Labeler) Refresh() {
	l.showImage()
	l.showLabel()
}

func (l *Labeler) showImage() {
	if l.display != nil {
		l.display.ShowImage(l.state.CurrentImage())
	}
}

func (l *Labeler) showLabel() {
	if l.display != nil {
		text, ok := l.CurrentLabel()
		l.display.ShowLabel(text, ok)
	}
}

// Labels returns the label set.
func (l *Labeler) Labels() labeling.LabelSet { return l.labels }

// CurrentImagePath returns the path of the image on display.
func (l *Labeler) CurrentImagePath() string { return l.state.CurrentImage() }

// CurrentLabel returns the label recorded for the image on display.
func (l *Labeler) CurrentLabel() (string, bool) {
	e, ok := l.state.CurrentEntry()
	if !ok {
		return "", false
	}
	return e.Label, true
}

// Position returns the zero-based index of the image on display and the
// number of images.
func (l *Labeler) Position() (int, int) { return l.state.Current, l.state.Len() }

// Counts returns the number of labeled images per label.
func (l *Labeler) Counts() map[string]int { return l.state.Log.Counts() }

// Labeled returns how many images carry a label.
func (l *Labeler) Labeled() int {
	n := 0
	for _, e := range l.state.Log.Entries() {
		if e.ImageIndex < l.state.Len() {
			n++
		}
	}
	return n
}

// OnLabelClicked records label i for the current image, advances to the next
// image and saves the label file. The new label is kept in memory even when
// the save fails so that the next successful save includes it.
func (l *Labeler) OnLabelClicked(i int) error {
	label, ok := l.labels.At(i)
	if !ok {
		return fmt.Errorf("%w: %d (have %d labels)", ErrLabelOutOfRange, i, l.labels.Len())
	}
	fx := l.dispatch(labeling.RecordLabel{LabelIndex: i, Label: label})
	rec := fx.Recorded

	if err := l.store.Save(l.state.Log); err != nil {
		l.logMessage("Error saving labels: %v", err)
		return err
	}
	l.logMessage("Labeled %s as %s", filepath.Base(rec.ImagePath), rec.Label)

	if l.index != nil {
		if err := l.index.Assign(*rec); err != nil {
			l.logMessage("Warning: label index not updated for %s: %v", rec.ImagePath, err)
			return fmt.Errorf("failed to update label index: %w", err)
		}
	}
	return nil
}

// OnForwardClicked shows the next image.
func (l *Labeler) OnForwardClicked() labeling.MoveResult {
	return l.dispatch(labeling.StepForward{}).Move
}

// OnBackClicked shows the previous image.
func (l *Labeler) OnBackClicked() labeling.MoveResult {
	return l.dispatch(labeling.StepBack{}).Move
}

// SkipForward moves SkipCount images ahead, stopping at the last one.
func (l *Labeler) SkipForward() labeling.MoveResult {
	return l.dispatch(labeling.Skip{Delta: l.SkipCount}).Move
}

// SkipBack moves SkipCount images back, stopping at the first one.
func (l *Labeler) SkipBack() labeling.MoveResult {
	return l.dispatch(labeling.Skip{Delta: -l.SkipCount}).Move
}

// First shows the first image.
func (l *Labeler) First() labeling.MoveResult {
	return l.dispatch(labeling.JumpFirst{}).Move
}

// Last shows the last image.
func (l *Labeler) Last() labeling.MoveResult {
	return l.dispatch(labeling.JumpLast{}).Move
}

// NextUnlabeled shows the next image after the current one without a label.
func (l *Labeler) NextUnlabeled() labeling.MoveResult {
	return l.dispatch(labeling.NextUnlabeled{}).Move
}

// dispatch commits the reducer's next state and performs the requested
// display refreshes. Persisting is left to the caller.
func (l *Labeler) dispatch(cmd labeling.Command) labeling.Effects {
	next, fx := labeling.Reduce(l.state, cmd)
	l.state = next
	if fx.RefreshImage {
		l.showImage()
	}
	if fx.RefreshLabel {
		l.showLabel()
	}
	return fx
}

// Close releases the label index.
func (l *Labeler) Close() error {
	if l.index == nil {
		return nil
	}
	err := l.index.Close()
	l.index = nil
	return err
}
