package service

import (
	"errors"
	"sort"

	"imglabeler/internal/labelindex"
	"imglabeler/internal/labeling"
)

type shownLabel struct {
	Text    string
	Labeled bool
}

type fakeDisplay struct {
	images []string
	labels []shownLabel
}

func (d *fakeDisplay) ShowImage(path string) { d.images = append(d.images, path) }

func (d *fakeDisplay) ShowLabel(text string, labeled bool) {
	d.labels = append(d.labels, shownLabel{text, labeled})
}

func (d *fakeDisplay) reset() {
	d.images = nil
	d.labels = nil
}

type fakeStore struct {
	loaded  *labeling.Log
	loadErr error
	saveErr error
	saves   [][]labeling.Entry
}

func (s *fakeStore) Load() (*labeling.Log, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.loaded == nil {
		return labeling.NewLog(), nil
	}
	return s.loaded.Clone(), nil
}

func (s *fakeStore) Save(lg *labeling.Log) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves = append(s.saves, lg.Entries())
	s.loaded = lg.Clone()
	return nil
}

type fakeIndex struct {
	records   map[string]labelindex.Record
	assignErr error
	source    *labelindex.Source
	closed    bool
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{records: map[string]labelindex.Record{}}
}

func (f *fakeIndex) Assign(e labeling.Entry) error {
	if f.assignErr != nil {
		return f.assignErr
	}
	f.records[e.ImagePath] = labelindex.Record{ImageIndex: e.ImageIndex, LabelIndex: e.LabelIndex, Label: e.Label}
	return nil
}

func (f *fakeIndex) Label(imagePath string) (labelindex.Record, bool, error) {
	r, ok := f.records[imagePath]
	return r, ok, nil
}

func (f *fakeIndex) Images(label string) ([]string, error) {
	var out []string
	for p, r := range f.records {
		if r.Label == label {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeIndex) Labels() ([]labelindex.LabelWithCount, error) {
	counts := map[string]int{}
	for _, r := range f.records {
		counts[r.Label]++
	}
	var out []labelindex.LabelWithCount
	for name, n := range counts {
		out = append(out, labelindex.LabelWithCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeIndex) Remove(imagePath string) error {
	if _, ok := f.records[imagePath]; !ok {
		return errors.New("not indexed")
	}
	delete(f.records, imagePath)
	return nil
}

func (f *fakeIndex) ImagePaths() ([]string, error) {
	var out []string
	for p := range f.records {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeIndex) Rebuild(lg *labeling.Log, src labelindex.Source) error {
	f.records = map[string]labelindex.Record{}
	f.source = &src
	for _, e := range lg.Entries() {
		f.Assign(e)
	}
	return nil
}

func (f *fakeIndex) Source() (labelindex.Source, bool, error) {
	if f.source == nil {
		return labelindex.Source{}, false, nil
	}
	return *f.source, true, nil
}

func (f *fakeIndex) Path() string { return "fake.db" }

func (f *fakeIndex) Close() error {
	f.closed = true
	return nil
}
