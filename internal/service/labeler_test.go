package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"imglabeler/internal/config"
	"imglabeler/internal/labelfile"
	"imglabeler/internal/labeling"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catDog = labeling.LabelSet{"Cat", "Dog"}

func newTestLabeler(t *testing.T, store *fakeStore, index LabelIndex, images ...string) (*Labeler, *fakeDisplay) {
	t.Helper()
	lg, err := store.Load()
	require.NoError(t, err)
	state, err := labeling.NewState(images, lg)
	require.NoError(t, err)
	l := NewLabeler(state, catDog, store, index, func(msg string) { t.Logf("labeler: %s", msg) })
	d := &fakeDisplay{}
	l.SetDisplay(d)
	return l, d
}

func TestSetDisplayShowsCurrent(t *testing.T) {
	_, d := newTestLabeler(t, &fakeStore{}, nil, "a.jpg", "b.jpg")
	assert.Equal(t, []string{"a.jpg"}, d.images)
	assert.Equal(t, []shownLabel{{"", false}}, d.labels)
}

func TestCatDogScenario(t *testing.T) {
	store := &fakeStore{}
	index := newFakeIndex()
	l, d := newTestLabeler(t, store, index, "a.jpg", "b.jpg", "c.jpg")
	d.reset()

	require.NoError(t, l.OnLabelClicked(1))
	assert.Equal(t, "b.jpg", l.CurrentImagePath())
	assert.Equal(t, []string{"b.jpg"}, d.images)
	assert.Equal(t, []shownLabel{{"", false}}, d.labels)

	require.NoError(t, l.OnLabelClicked(0))
	d.reset()
	require.NoError(t, l.OnLabelClicked(1))
	assert.Equal(t, "c.jpg", l.CurrentImagePath())
	assert.Empty(t, d.images, "no image refresh at the last image")
	assert.Equal(t, []shownLabel{{"Dog", true}}, d.labels)

	require.Len(t, store.saves, 3)
	assert.Equal(t, []labeling.Entry{
		{ImageIndex: 0, LabelIndex: 1, Label: "Dog", ImagePath: "a.jpg"},
		{ImageIndex: 1, LabelIndex: 0, Label: "Cat", ImagePath: "b.jpg"},
		{ImageIndex: 2, LabelIndex: 1, Label: "Dog", ImagePath: "c.jpg"},
	}, store.saves[2])

	assert.Equal(t, "Cat", index.records["b.jpg"].Label)
	assert.Equal(t, map[string]int{"Cat": 1, "Dog": 2}, l.Counts())
	assert.Equal(t, 3, l.Labeled())
}

func TestBackAtStartDoesNotRefresh(t *testing.T) {
	l, d := newTestLabeler(t, &fakeStore{}, nil, "a.jpg", "b.jpg")
	d.reset()
	assert.Equal(t, labeling.AtStart, l.OnBackClicked())
	assert.Empty(t, d.images)
	assert.Empty(t, d.labels)
}

func TestForwardAndBack(t *testing.T) {
	store := &fakeStore{loaded: labeling.NewLog()}
	store.loaded.Set(labeling.Entry{ImageIndex: 1, LabelIndex: 0, Label: "Cat", ImagePath: "b.jpg"})
	l, d := newTestLabeler(t, store, nil, "a.jpg", "b.jpg")
	d.reset()

	assert.Equal(t, labeling.Moved, l.OnForwardClicked())
	assert.Equal(t, []string{"b.jpg"}, d.images)
	assert.Equal(t, []shownLabel{{"Cat", true}}, d.labels)

	assert.Equal(t, labeling.AtEnd, l.OnForwardClicked())
	assert.Len(t, d.images, 1)

	assert.Equal(t, labeling.Moved, l.OnBackClicked())
	text, ok := l.CurrentLabel()
	assert.False(t, ok)
	assert.Empty(t, text)
	assert.Empty(t, store.saves, "navigation never saves")
}

func TestSkipFirstLastNextUnlabeled(t *testing.T) {
	store := &fakeStore{loaded: labeling.NewLog()}
	store.loaded.Set(labeling.Entry{ImageIndex: 1, Label: "Cat"})
	store.loaded.Set(labeling.Entry{ImageIndex: 2, Label: "Cat"})
	l, _ := newTestLabeler(t, store, nil, "a", "b", "c", "d", "e", "f")
	l.SkipCount = 4

	assert.Equal(t, labeling.Moved, l.SkipForward())
	pos, total := l.Position()
	assert.Equal(t, 4, pos)
	assert.Equal(t, 6, total)

	assert.Equal(t, labeling.Moved, l.SkipForward())
	assert.Equal(t, "f", l.CurrentImagePath())
	assert.Equal(t, labeling.Stayed, l.Last())

	assert.Equal(t, labeling.Moved, l.SkipBack())
	assert.Equal(t, "b", l.CurrentImagePath())
	assert.Equal(t, labeling.Moved, l.First())
	assert.Equal(t, labeling.Stayed, l.First())

	assert.Equal(t, labeling.Moved, l.NextUnlabeled())
	assert.Equal(t, "d", l.CurrentImagePath())
}

func TestLabelOutOfRange(t *testing.T) {
	store := &fakeStore{}
	l, d := newTestLabeler(t, store, nil, "a.jpg", "b.jpg")
	d.reset()
	for _, i := range []int{-1, 2} {
		err := l.OnLabelClicked(i)
		assert.ErrorIs(t, err, ErrLabelOutOfRange)
	}
	assert.Equal(t, "a.jpg", l.CurrentImagePath())
	assert.Empty(t, store.saves)
	assert.Empty(t, d.images)
}

func TestSaveFailureKeepsLabelInMemory(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("disk full")}
	index := newFakeIndex()
	l, _ := newTestLabeler(t, store, index, "a.jpg", "b.jpg")

	err := l.OnLabelClicked(0)
	require.Error(t, err)
	assert.Empty(t, index.records, "index is not touched when the save fails")
	assert.Equal(t, "b.jpg", l.CurrentImagePath())

	store.saveErr = nil
	require.NoError(t, l.OnLabelClicked(1))
	require.Len(t, store.saves, 1)
	assert.Len(t, store.saves[0], 2, "the next save carries the earlier label")
}

func TestIndexFailureIsReportedAfterSave(t *testing.T) {
	store := &fakeStore{}
	index := newFakeIndex()
	index.assignErr = errors.New("db closed")
	l, _ := newTestLabeler(t, store, index, "a.jpg", "b.jpg")

	err := l.OnLabelClicked(0)
	require.Error(t, err)
	assert.ErrorIs(t, err, index.assignErr)
	assert.Len(t, store.saves, 1)
}

func TestClose(t *testing.T) {
	index := newFakeIndex()
	l, _ := newTestLabeler(t, &fakeStore{}, index, "a.jpg")
	require.NoError(t, l.Close())
	assert.True(t, index.closed)
	require.NoError(t, l.Close())
}

func writeImages(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0644))
	}
}

func testSession(t *testing.T) config.Session {
	t.Helper()
	imgDir := t.TempDir()
	writeImages(t, imgDir, "c.jpg", "a.jpg", "b.png", "notes.txt")
	return config.Session{
		ImageDir:   imgDir,
		Labels:     catDog,
		OutputPath: filepath.Join(t.TempDir(), "labeling.csv"),
		IndexDir:   t.TempDir(),
	}
}

func TestOpenRestoresLabelsAfterRestart(t *testing.T) {
	cfg := testSession(t)

	l, err := Open(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, l.OnLabelClicked(1))
	require.NoError(t, l.Close())

	l, err = Open(cfg, nil)
	require.NoError(t, err)
	defer l.Close()
	d := &fakeDisplay{}
	l.SetDisplay(d)
	assert.Equal(t, filepath.Join(cfg.ImageDir, "a.jpg"), d.images[0])
	assert.Equal(t, []shownLabel{{"Dog", true}}, d.labels)

	rec, ok, err := l.index.Label(filepath.Join(cfg.ImageDir, "a.jpg"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Dog", rec.Label)

	src, ok, err := l.index.Source()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, cfg.OutputPath, src.CSV, "the index records the label file it mirrors")
}

func TestOpenResume(t *testing.T) {
	cfg := testSession(t)
	cfg.NoIndex = true
	cfg.Resume = true

	lg := labeling.NewLog()
	lg.Set(labeling.Entry{ImageIndex: 0, LabelIndex: 0, Label: "Cat", ImagePath: filepath.Join(cfg.ImageDir, "a.jpg")})
	require.NoError(t, labelfile.NewStore(cfg.OutputPath, labelfile.Abort, nil).Save(lg))

	l, err := Open(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.ImageDir, "b.png"), l.CurrentImagePath())
	assert.Nil(t, l.index)
}

func TestOpenWarnsAboutStaleEntries(t *testing.T) {
	cfg := testSession(t)
	cfg.NoIndex = true
	lg := labeling.NewLog()
	lg.Set(labeling.Entry{ImageIndex: 7, LabelIndex: 0, Label: "Cat", ImagePath: "gone.jpg"})
	require.NoError(t, labelfile.NewStore(cfg.OutputPath, labelfile.Abort, nil).Save(lg))

	var msgs []string
	l, err := Open(cfg, func(m string) { msgs = append(msgs, m) })
	require.NoError(t, err)
	assert.Contains(t, msgs, `Warning: saved label "Cat" for image 7 was recorded for gone.jpg, which is no longer at that position`)

	require.NoError(t, l.OnLabelClicked(0))
	loaded, err := labelfile.NewStore(cfg.OutputPath, labelfile.Abort, nil).Load()
	require.NoError(t, err)
	assert.True(t, loaded.Has(7), "stale entries are never pruned")
	assert.True(t, loaded.Has(0))
}

func TestOpenConfigurationErrors(t *testing.T) {
	t.Run("no images", func(t *testing.T) {
		cfg := testSession(t)
		cfg.ImageDir = t.TempDir()
		_, err := Open(cfg, nil)
		var cerr *config.ConfigurationError
		assert.ErrorAs(t, err, &cerr)
	})

	t.Run("corrupt label file", func(t *testing.T) {
		cfg := testSession(t)
		cfg.NoIndex = true
		require.NoError(t, os.WriteFile(cfg.OutputPath, []byte("img_idx,label_idx,label,fname\nx,0,Cat,a.jpg\n"), 0644))
		_, err := Open(cfg, nil)
		var cerr *config.ConfigurationError
		require.ErrorAs(t, err, &cerr)
		var corrupt *labelfile.CorruptionError
		assert.ErrorAs(t, err, &corrupt)
	})

	t.Run("corrupt label file discarded", func(t *testing.T) {
		cfg := testSession(t)
		cfg.NoIndex = true
		cfg.CorruptPolicy = labelfile.Discard
		require.NoError(t, os.WriteFile(cfg.OutputPath, []byte("img_idx,label_idx,label,fname\nx,0,Cat,a.jpg\n"), 0644))
		l, err := Open(cfg, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, l.Labeled())
	})
}
