// Package config holds the startup configuration of a labeling session and
// the errors reported when it is unusable.
package config

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"imglabeler/internal/labelfile"
	"imglabeler/internal/labeling"

	"gopkg.in/yaml.v3"
)

// Default values
const (
	DefaultOutput    = labelfile.DefaultFileName
	DefaultSkipCount = 10
)

// Session is everything needed to start labeling.
type Session struct {
	ImageDir      string
	Labels        labeling.LabelSet
	OutputPath    string
	Extensions    []string
	CorruptPolicy labelfile.CorruptPolicy
	// IndexDir holds the label index database; empty selects the per-user
	// config directory.
	IndexDir  string
	NoIndex   bool
	Resume    bool
	SkipCount int
	LogLevel  string
}

// Validate checks the session and fills in defaults. Every failure is a
// *ConfigurationError.
func (s *Session) Validate() error {
	if strings.TrimSpace(s.ImageDir) == "" {
		return Errorf("an image directory is required")
	}
	info, err := os.Stat(s.ImageDir)
	if errors.Is(err, os.ErrNotExist) {
		return Errorf("the path %s does not exist", s.ImageDir)
	}
	if err != nil {
		return Wrap(err, "cannot read image directory %s", s.ImageDir)
	}
	if !info.IsDir() {
		return Errorf("the path %s is not a directory", s.ImageDir)
	}

	labels, err := labeling.NewLabelSet(s.Labels)
	if err != nil {
		return Wrap(err, "invalid label set")
	}
	s.Labels = labels

	if s.OutputPath == "" {
		s.OutputPath = DefaultOutput
	}
	if dir := filepath.Dir(s.OutputPath); dir != "." {
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			return Errorf("the output directory %s does not exist", dir)
		}
	}
	if s.SkipCount <= 0 {
		s.SkipCount = DefaultSkipCount
	}
	return nil
}

// LoadLabelFile reads a label list. Files ending in .yaml or .yml hold a
// sequence of strings or a mapping with a labels key; anything else is read
// as CSV and every non-empty field of every row becomes a label.
func LoadLabelFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Wrap(err, "cannot read label file %s", path)
	}
	var labels []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		labels, err = parseYAMLLabels(data)
	default:
		labels, err = parseCSVLabels(data)
	}
	if err != nil {
		return nil, Wrap(err, "cannot parse label file %s", path)
	}
	return labels, nil
}

func parseCSVLabels(data []byte) ([]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	var labels []string
	for {
		row, err := r.Read()
		if err == io.EOF {
			return labels, nil
		}
		if err != nil {
			return nil, err
		}
		for _, f := range row {
			if f = strings.TrimSpace(f); f != "" {
				labels = append(labels, f)
			}
		}
	}
}

type labelDocument struct {
	Labels []string `yaml:"labels"`
}

func parseYAMLLabels(data []byte) ([]string, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	root := node.Content[0]

	var raw []string
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case yaml.MappingNode:
		var doc labelDocument
		if err := root.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		raw = doc.Labels
	default:
		return nil, fmt.Errorf("expected a list of labels or a mapping with a labels key")
	}

	var labels []string
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}
	return labels, nil
}
