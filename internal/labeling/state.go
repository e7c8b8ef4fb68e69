package labeling

// MoveResult is the outcome of a cursor move.
type MoveResult int

const (
	// Moved means the cursor now points at a different image.
	Moved MoveResult = iota
	// AtStart means the move was clamped at the first image and nothing changed.
	AtStart
	// AtEnd means the move was clamped at the last image and nothing changed.
	AtEnd
	// Stayed means a zero move, or a jump to the image already shown.
	Stayed
)

// Moved reports whether the cursor changed.
func (r MoveResult) Moved() bool { return r == Moved }

func (r MoveResult) String() string {
	switch r {
	case Moved:
		return "moved"
	case AtStart:
		return "did not move, at start"
	case AtEnd:
		return "did not move, at end"
	case Stayed:
		return "did not move"
	default:
		return "unknown"
	}
}

// State is one labeling session: the sorted image paths, the index of the
// image on display and the label log. Current always lies in
// [0, len(Images)).
type State struct {
	Images  []string
	Current int
	Log     *Log
}

// NewState builds the initial state, showing the first image. A nil log is
// replaced by an empty one.
func NewState(images []string, log *Log) (State, error) {
	if len(images) == 0 {
		return State{}, ErrNoImages
	}
	if log == nil {
		log = NewLog()
	}
	return State{Images: images, Current: 0, Log: log}, nil
}

// Len returns the number of images.
func (s State) Len() int { return len(s.Images) }

// CurrentImage returns the path of the image on display.
func (s State) CurrentImage() string {
	if s.Current < 0 || s.Current >= len(s.Images) {
		return ""
	}
	return s.Images[s.Current]
}

// CurrentEntry returns the label assignment of the image on display.
func (s State) CurrentEntry() (Entry, bool) {
	return s.Log.Get(s.Current)
}

// SetLabel records labelIndex/label for the image at index, overwriting any
// earlier assignment. The label is not checked against a label set.
func (s State) SetLabel(index, labelIndex int, label string) Entry {
	path := ""
	if index >= 0 && index < len(s.Images) {
		path = s.Images[index]
	}
	e := Entry{ImageIndex: index, LabelIndex: labelIndex, Label: label, ImagePath: path}
	s.Log.Set(e)
	return e
}

// MoveIndex adds delta to the cursor, clamped to the image range. When the
// clamped target equals the current index nothing changes and the result says
// why; otherwise the returned state points at the target.
func (s State) MoveIndex(delta int) (State, MoveResult) {
	last := len(s.Images) - 1
	target := s.Current + delta
	if target < 0 {
		target = 0
	}
	if target > last {
		target = last
	}
	if target == s.Current {
		switch {
		case delta < 0:
			return s, AtStart
		case delta > 0:
			return s, AtEnd
		default:
			return s, Stayed
		}
	}
	s.Current = target
	return s, Moved
}

// NextUnlabeled returns the first index after the cursor without a label.
func (s State) NextUnlabeled() (int, bool) {
	for i := s.Current + 1; i < len(s.Images); i++ {
		if !s.Log.Has(i) {
			return i, true
		}
	}
	return -1, false
}

// FirstUnlabeled returns the lowest index without a label.
func (s State) FirstUnlabeled() (int, bool) {
	for i := range s.Images {
		if !s.Log.Has(i) {
			return i, true
		}
	}
	return -1, false
}

// Stale returns loaded entries whose recorded path differs from the image now
// at that index, including entries past the end of the image list.
func (s State) Stale() []Entry {
	var stale []Entry
	for _, e := range s.Log.Entries() {
		if e.ImageIndex < 0 || e.ImageIndex >= len(s.Images) || s.Images[e.ImageIndex] != e.ImagePath {
			stale = append(stale, e)
		}
	}
	return stale
}
