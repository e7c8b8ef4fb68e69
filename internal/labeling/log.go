package labeling

// Entry is one label assignment: the image at ImageIndex got the label at
// LabelIndex. ImagePath records which file that index referred to when the
// label was given.
type Entry struct {
	ImageIndex int
	LabelIndex int
	Label      string
	ImagePath  string
}

// Log maps image indexes to their label assignment and remembers the order in
// which keys were first inserted. Overwriting a key keeps its position.
// Entries are never removed.
//
// The zero value is an empty, usable Log.
type Log struct {
	order   []int
	entries map[int]Entry
}

// NewLog returns an empty Log.
func NewLog() *Log {
	return &Log{entries: make(map[int]Entry)}
}

// Set inserts or overwrites the entry for e.ImageIndex. It reports whether the
// key was new.
func (l *Log) Set(e Entry) bool {
	if l.entries == nil {
		l.entries = make(map[int]Entry)
	}
	_, exists := l.entries[e.ImageIndex]
	if !exists {
		l.order = append(l.order, e.ImageIndex)
	}
	l.entries[e.ImageIndex] = e
	return !exists
}

// Get returns the entry for an image index.
func (l *Log) Get(imageIndex int) (Entry, bool) {
	if l == nil {
		return Entry{}, false
	}
	e, ok := l.entries[imageIndex]
	return e, ok
}

// Has reports whether an image index has a label.
func (l *Log) Has(imageIndex int) bool {
	_, ok := l.Get(imageIndex)
	return ok
}

// Len returns the number of entries.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return len(l.order)
}

// Entries returns a copy of all entries in insertion order.
func (l *Log) Entries() []Entry {
	if l == nil {
		return nil
	}
	out := make([]Entry, 0, len(l.order))
	for _, k := range l.order {
		out = append(out, l.entries[k])
	}
	return out
}

// Clone returns a deep copy.
func (l *Log) Clone() *Log {
	c := &Log{
		order:   make([]int, 0, l.Len()),
		entries: make(map[int]Entry, l.Len()),
	}
	if l == nil {
		return c
	}
	c.order = append(c.order, l.order...)
	for k, v := range l.entries {
		c.entries[k] = v
	}
	return c
}

// Equal reports whether two logs hold the same entries in the same order.
func (l *Log) Equal(other *Log) bool {
	a, b := l.Entries(), other.Entries()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Counts returns how many entries carry each label text.
func (l *Log) Counts() map[string]int {
	counts := make(map[string]int)
	for _, e := range l.Entries() {
		counts[e.Label]++
	}
	return counts
}
