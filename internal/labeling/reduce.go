package labeling

// Command is an input to Reduce.
type Command interface {
	command()
}

// RecordLabel labels the image on display and then steps forward.
type RecordLabel struct {
	LabelIndex int
	Label      string
}

// StepForward moves to the next image.
type StepForward struct{}

// StepBack moves to the previous image.
type StepBack struct{}

// Skip moves Delta images, clamped at both ends.
type Skip struct {
	Delta int
}

// JumpFirst moves to the first image.
type JumpFirst struct{}

// JumpLast moves to the last image.
type JumpLast struct{}

// NextUnlabeled moves to the next image after the cursor that has no label.
type NextUnlabeled struct{}

func (RecordLabel) command()   {}
func (StepForward) command()   {}
func (StepBack) command()      {}
func (Skip) command()          {}
func (JumpFirst) command()     {}
func (JumpLast) command()      {}
func (NextUnlabeled) command() {}

// Effects lists what the caller must do after a Reduce.
type Effects struct {
	Move         MoveResult
	RefreshImage bool
	RefreshLabel bool
	Persist      bool
	// Recorded is the entry written by a RecordLabel, nil otherwise.
	Recorded *Entry
}

// Reduce applies cmd to s and returns the next state. It never mutates s: a
// RecordLabel works on a clone of the log.
//
// Image and label indicator refreshes are requested only when the cursor
// moved, except after RecordLabel where the indicator is always refreshed so
// the just-recorded label shows when the cursor sits on the last image.
func Reduce(s State, cmd Command) (State, Effects) {
	switch c := cmd.(type) {
	case RecordLabel:
		next := s
		next.Log = s.Log.Clone()
		e := next.SetLabel(next.Current, c.LabelIndex, c.Label)
		next, res := next.MoveIndex(1)
		return next, Effects{
			Move:         res,
			RefreshImage: res.Moved(),
			RefreshLabel: true,
			Persist:      true,
			Recorded:     &e,
		}
	case StepForward:
		return move(s, 1)
	case StepBack:
		return move(s, -1)
	case Skip:
		return move(s, c.Delta)
	case JumpFirst:
		return move(s, -s.Current)
	case JumpLast:
		return move(s, len(s.Images)-1-s.Current)
	case NextUnlabeled:
		idx, ok := s.NextUnlabeled()
		if !ok {
			return s, Effects{Move: AtEnd}
		}
		return move(s, idx-s.Current)
	}
	return s, Effects{Move: Stayed}
}

func move(s State, delta int) (State, Effects) {
	next, res := s.MoveIndex(delta)
	return next, Effects{
		Move:         res,
		RefreshImage: res.Moved(),
		RefreshLabel: res.Moved(),
	}
}
