// Package labeling holds the labeling session model: the image sequence, the
// cursor into it, and the insertion-ordered log of label assignments.
//
// Nothing in this package performs I/O. State transitions go through Reduce,
// which returns the new State together with the side effects the caller has
// to carry out (refresh the display, persist the log).
package labeling

import (
	"errors"
	"fmt"
	"strings"
)

// MinLabels is the smallest label set that makes labeling meaningful.
const MinLabels = 2

var (
	// ErrTooFewLabels is returned when fewer than MinLabels labels are given.
	ErrTooFewLabels = errors.New("at least two labels are needed for a meaningful labeling")
	// ErrNoImages is returned when a State would be built over an empty image list.
	ErrNoImages = errors.New("no images to label")
)

// LabelSet is the fixed, ordered set of labels of a session. A label's index
// is its position in the set.
type LabelSet []string

// NewLabelSet trims every label and validates the set: at least MinLabels
// entries, none empty, no duplicates.
func NewLabelSet(labels []string) (LabelSet, error) {
	set := make(LabelSet, 0, len(labels))
	seen := make(map[string]int, len(labels))
	for i, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			return nil, fmt.Errorf("label %d is empty", i)
		}
		if prev, dup := seen[l]; dup {
			return nil, fmt.Errorf("label %q given twice (positions %d and %d)", l, prev, i)
		}
		seen[l] = i
		set = append(set, l)
	}
	if len(set) < MinLabels {
		return nil, fmt.Errorf("%w (got %d)", ErrTooFewLabels, len(set))
	}
	return set, nil
}

// Len returns the number of labels.
func (s LabelSet) Len() int { return len(s) }

// At returns the label at index i and whether i is valid.
func (s LabelSet) At(i int) (string, bool) {
	if i < 0 || i >= len(s) {
		return "", false
	}
	return s[i], true
}

// IndexOf returns the index of label, or -1.
func (s LabelSet) IndexOf(label string) int {
	for i, l := range s {
		if l == label {
			return i
		}
	}
	return -1
}
