package service

import (
	"errors"
	"fmt"
	"os"

	"imglabeler/internal/labelindex"
	"imglabeler/internal/labeling"
	"imglabeler/internal/scan"
)

// LabelStore abstracts the label file for easier testing and decoupling.
type LabelStore interface {
	Load() (*labeling.Log, error)
	Save(lg *labeling.Log) error
}

// LabelIndex abstracts the label index DB.
type LabelIndex interface {
	Assign(e labeling.Entry) error
	Label(imagePath string) (labelindex.Record, bool, error)
	Images(label string) ([]string, error)
	Labels() ([]labelindex.LabelWithCount, error)
	Remove(imagePath string) error
	ImagePaths() ([]string, error)
	Rebuild(lg *labeling.Log, src labelindex.Source) error
	Source() (labelindex.Source, bool, error)
	Path() string
	Close() error
}

// ErrIndexMismatch is returned when the label index mirrors a different
// label file than the one the Service reads.
var ErrIndexMismatch = errors.New("label index belongs to another label file")

// Service answers questions about a finished or ongoing labeling run. It
// backs the inspection CLI.
type Service struct {
	Store LabelStore
	Index LabelIndex
	// Source is the absolute path of the label file behind Store. When set,
	// index queries fail with ErrIndexMismatch if the index was built from
	// another file.
	Source string
	Logger func(string)
}

// NewService constructs a new Service.
func NewService(store LabelStore, index LabelIndex, logger func(string)) *Service {
	return &Service{Store: store, Index: index, Logger: logger}
}

func (s *Service) logMessage(format string, args ...interface{}) {
	if s.Logger != nil {
		s.Logger(fmt.Sprintf(format, args...))
	}
}

// Entries returns the saved labels in file order.
func (s *Service) Entries() ([]labeling.Entry, error) {
	lg, err := s.Store.Load()
	if err != nil {
		return nil, err
	}
	return lg.Entries(), nil
}

// checkIndex verifies that the index mirrors s.Source.
func (s *Service) checkIndex() error {
	if s.Source == "" {
		return nil
	}
	src, ok, err := s.Index.Source()
	if err != nil {
		return fmt.Errorf("failed to read label index source: %w", err)
	}
	if ok && src.CSV != s.Source {
		return fmt.Errorf("%w: %s was built from %s, not %s; run reindex", ErrIndexMismatch, s.Index.Path(), src.CSV, s.Source)
	}
	return nil
}

// ListAllLabels returns every indexed label with its image count.
func (s *Service) ListAllLabels() ([]labelindex.LabelWithCount, error) {
	if err := s.checkIndex(); err != nil {
		return nil, err
	}
	return s.Index.Labels()
}

// ListImagesForLabel returns all images carrying label.
func (s *Service) ListImagesForLabel(label string) ([]string, error) {
	if label == "" {
		return nil, errors.New("label cannot be empty")
	}
	if err := s.checkIndex(); err != nil {
		return nil, err
	}
	return s.Index.Images(label)
}

// LabelForImage returns the indexed label of imagePath.
func (s *Service) LabelForImage(imagePath string) (labelindex.Record, bool, error) {
	if imagePath == "" {
		return labelindex.Record{}, false, errors.New("image path required")
	}
	if err := s.checkIndex(); err != nil {
		return labelindex.Record{}, false, err
	}
	return s.Index.Label(imagePath)
}

// Reindex rebuilds the index from the label file and returns the number of
// entries indexed. Relative image paths keep resolving against the
// directory of the previous build of the same label file, or against the
// working directory for a new one.
func (s *Service) Reindex() (int, error) {
	lg, err := s.Store.Load()
	if err != nil {
		return 0, err
	}
	src := labelindex.Source{CSV: s.Source}
	if prev, ok, err := s.Index.Source(); err == nil && ok && prev.CSV == s.Source {
		src.BaseDir = prev.BaseDir
	}
	if err := s.Index.Rebuild(lg, src); err != nil {
		return 0, err
	}
	s.logMessage("Indexed %d labels into %s", lg.Len(), s.Index.Path())
	return lg.Len(), nil
}

// Check enumerates dir and returns the saved entries whose recorded path no
// longer matches the image at their index.
func (s *Service) Check(dir string, exts []string) ([]labeling.Entry, error) {
	images, err := scan.Enumerate(dir, exts)
	if err != nil {
		return nil, err
	}
	lg, err := s.Store.Load()
	if err != nil {
		return nil, err
	}
	state, err := labeling.NewState(images, lg)
	if err != nil {
		return nil, err
	}
	return state.Stale(), nil
}

// CleanIndex removes index entries for files that no longer exist.
func (s *Service) CleanIndex() (int, error) {
	if err := s.checkIndex(); err != nil {
		return 0, err
	}
	paths, err := s.Index.ImagePaths()
	if err != nil {
		return 0, fmt.Errorf("failed to get image paths: %w", err)
	}
	cleaned := 0
	for _, p := range paths {
		if _, statErr := os.Stat(p); !os.IsNotExist(statErr) {
			continue
		}
		if err := s.Index.Remove(p); err != nil {
			s.logMessage("Error removing index entry for missing file %s: %v", p, err)
			continue
		}
		cleaned++
	}
	return cleaned, nil
}
