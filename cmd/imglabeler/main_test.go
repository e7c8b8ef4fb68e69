package main

import (
	"bytes"
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

func runRoot(t *testing.T, args ...string) (*config.Session, string, error) {
	t.Helper()
	var got *config.Session
	root := NewRootCmd(func(cfg config.Session) error {
		got = &cfg
		return nil
	})
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.Execute()
	return got, out.String(), err
}

func imageDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0644))
	return dir
}

func TestLabelsFlagForms(t *testing.T) {
	dir := imageDir(t)
	for name, args := range map[string][]string{
		"space separated": {"--imgpath", dir, "--labels", "Cat", "Dog"},
		"comma separated": {"--imgpath", dir, "--labels", "Cat,Dog"},
		"repeated":        {"--imgpath", dir, "--labels", "Cat", "--labels", "Dog"},
	} {
		t.Run(name, func(t *testing.T) {
			cfg, out, err := runRoot(t, args...)
			require.NoError(t, err, out)
			require.NotNil(t, cfg)
			assert.Equal(t, labeling.LabelSet{"Cat", "Dog"}, cfg.Labels)
			assert.Equal(t, config.DefaultOutput, cfg.OutputPath)
			assert.Equal(t, labelfile.Abort, cfg.CorruptPolicy)
			assert.Equal(t, config.DefaultSkipCount, cfg.SkipCount)
		})
	}
}

func TestLabelFileAndOptions(t *testing.T) {
	dir := imageDir(t)
	labelFile := filepath.Join(t.TempDir(), "labels.yaml")
	require.NoError(t, os.WriteFile(labelFile, []byte("labels: [Cat, Dog, Bird]\n"), 0644))
	out := filepath.Join(t.TempDir(), "out.csv")

	cfg, msg, err := runRoot(t, "--imgpath", dir, "--labelfile", labelFile, "--output", out,
		"--ext", "png,JPG", "--on-corrupt", "skip", "--no-index", "--resume", "--skip-count", "5")
	require.NoError(t, err, msg)
	assert.Equal(t, labeling.LabelSet{"Cat", "Dog", "Bird"}, cfg.Labels)
	assert.Equal(t, out, cfg.OutputPath)
	assert.Equal(t, []string{"png", "JPG"}, cfg.Extensions)
	assert.Equal(t, labelfile.SkipRow, cfg.CorruptPolicy)
	assert.True(t, cfg.NoIndex)
	assert.True(t, cfg.Resume)
	assert.Equal(t, 5, cfg.SkipCount)
}

func TestConfigurationErrors(t *testing.T) {
	dir := imageDir(t)
	tests := []struct {
		name     string
		args     []string
		isConfig bool
	}{
		{"missing imgpath", []string{"--labels", "Cat,Dog"}, false},
		{"no labels", []string{"--imgpath", dir}, false},
		{"both label sources", []string{"--imgpath", dir, "--labels", "Cat,Dog", "--labelfile", "x.csv"}, false},
		{"positional with label file", []string{"--imgpath", dir, "--labelfile", "x.csv", "Cat"}, true},
		{"one label", []string{"--imgpath", dir, "--labels", "Cat"}, true},
		{"missing label file", []string{"--imgpath", dir, "--labelfile", filepath.Join(dir, "none.csv")}, true},
		{"imgpath not a dir", []string{"--imgpath", filepath.Join(dir, "a.jpg"), "--labels", "Cat,Dog"}, true},
		{"bad policy", []string{"--imgpath", dir, "--labels", "Cat,Dog", "--on-corrupt", "ignore"}, true},
		{"bad log level", []string{"--imgpath", dir, "--labels", "Cat,Dog", "--log-level", "loud"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _, err := runRoot(t, tt.args...)
			require.Error(t, err)
			assert.Nil(t, cfg, "the GUI must not start")
			var cerr *config.ConfigurationError
			assert.Equal(t, tt.isConfig, errors.As(err, &cerr), "got %v", err)
		})
	}
}

func TestStrayArgumentsWithLabelFile(t *testing.T) {
	dir := imageDir(t)
	labelFile := filepath.Join(t.TempDir(), "labels.csv")
	require.NoError(t, os.WriteFile(labelFile, []byte("Cat,Dog\n"), 0644))

	cfg, _, err := runRoot(t, "--imgpath", dir, "--labelfile", labelFile, "stray")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "unexpected arguments stray")
	assert.NotContains(t, err.Error(), "--labels")
}

func TestRunErrorPropagates(t *testing.T) {
	dir := imageDir(t)
	boom := errors.New("boom")
	root := NewRootCmd(func(config.Session) error { return boom })
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"--imgpath", dir, "--labels", "Cat,Dog"})
	assert.ErrorIs(t, root.Execute(), boom)
}
