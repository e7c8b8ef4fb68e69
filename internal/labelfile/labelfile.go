// Package labelfile reads and writes the label log as a CSV file with the
// header img_idx,label_idx,label,fname.
//
// Saves always rewrite the whole file and replace it atomically, so the file
// on disk is either the previous complete version or the new one.
package labelfile

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"imglabeler/internal/labeling"

	"github.com/natefinch/atomic"
)

// DefaultFileName is used when no output path is configured.
const DefaultFileName = "labeling.csv"

// fileMode is the mode of a newly created label file. An existing file
// keeps its mode.
const fileMode os.FileMode = 0644

// Header is the first row of every label file.
var Header = []string{"img_idx", "label_idx", "label", "fname"}

// LoggerFunc receives warnings produced while loading.
type LoggerFunc func(message string)

// CorruptPolicy decides what Load does with a malformed row.
type CorruptPolicy int

const (
	// Abort fails the load with a *CorruptionError.
	Abort CorruptPolicy = iota
	// SkipRow drops the bad row, warns, and keeps the others.
	SkipRow
	// Discard warns and returns an empty log.
	Discard
)

var policyNames = map[CorruptPolicy]string{
	Abort:   "abort",
	SkipRow: "skip",
	Discard: "discard",
}

func (p CorruptPolicy) String() string {
	if n, ok := policyNames[p]; ok {
		return n
	}
	return fmt.Sprintf("CorruptPolicy(%d)", int(p))
}

// ParsePolicy maps "abort", "skip" or "discard" to a CorruptPolicy.
func ParsePolicy(s string) (CorruptPolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p, n := range policyNames {
		if n == s {
			return p, nil
		}
	}
	return Abort, fmt.Errorf("unknown corrupt-row policy %q (want abort, skip or discard)", s)
}

// CorruptionError describes a row that could not be parsed.
type CorruptionError struct {
	Path  string
	Line  int
	Field string
	Value string
	Err   error
}

func (e *CorruptionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s:%d: malformed row: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s:%d: field %s: invalid value %q: %v", e.Path, e.Line, e.Field, e.Value, e.Err)
}

func (e *CorruptionError) Unwrap() error { return e.Err }

// Store binds a label file path to a corrupt-row policy.
type Store struct {
	Path   string
	Policy CorruptPolicy
	Logger LoggerFunc
}

// NewStore returns a Store for path, falling back to DefaultFileName.
func NewStore(path string, policy CorruptPolicy, logger LoggerFunc) *Store {
	if path == "" {
		path = DefaultFileName
	}
	return &Store{Path: path, Policy: policy, Logger: logger}
}

func (s *Store) logMessage(format string, args ...interface{}) {
	if s.Logger != nil {
		s.Logger(fmt.Sprintf(format, args...))
	} else {
		log.Printf(format, args...)
	}
}

// Load reads the label file. A missing file yields an empty log.
func (s *Store) Load() (*labeling.Log, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return labeling.NewLog(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open label file %s: %w", s.Path, err)
	}

	lg, err := s.read(data)
	if err != nil {
		return nil, err
	}
	s.logMessage("Loaded %d labels from %s", lg.Len(), s.Path)
	return lg, nil
}

// Save rewrites the label file with every entry of lg in insertion order.
func (s *Store) Save(lg *labeling.Log) error {
	var buf bytes.Buffer
	if err := Write(&buf, lg); err != nil {
		return err
	}
	mode := fileMode
	if info, err := os.Stat(s.Path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := atomic.WriteFile(s.Path, &buf); err != nil {
		return fmt.Errorf("failed to save label file %s: %w", s.Path, err)
	}
	// The replacement starts out as a private temp file.
	if err := os.Chmod(s.Path, mode); err != nil {
		return fmt.Errorf("failed to set mode of label file %s: %w", s.Path, err)
	}
	return nil
}

// Write encodes lg as CSV, header first.
func Write(w io.Writer, lg *labeling.Log) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, e := range lg.Entries() {
		row := []string{
			strconv.Itoa(e.ImageIndex),
			strconv.Itoa(e.LabelIndex),
			e.Label,
			e.ImagePath,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row for image %d: %w", e.ImageIndex, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// read parses data row by row. Under SkipRow, a malformed record that
// swallowed the lines after it (an unterminated quote) costs only its first
// line: parsing restarts on the line that follows.
func (s *Store) read(data []byte) (*labeling.Log, error) {
	lg := labeling.NewLog()
	header := true
	offset := 0
	for {
		restart, err := s.readFrom(data, offset, lg, &header)
		if err != nil {
			return s.corrupt(err)
		}
		if restart == 0 {
			return lg, nil
		}
		data = dropLines(data, restart)
		offset += restart
	}
}

// readFrom reads the records of data, whose first line is line offset+1 of
// the file, into lg. It returns the number of lines to drop before reading
// again, or 0 once data is exhausted.
func (s *Store) readFrom(data []byte, offset int, lg *labeling.Log, header *bool) (int, *CorruptionError) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return 0, nil
		}
		if err != nil {
			cerr := &CorruptionError{Path: s.Path, Err: err}
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				cerr.Line = offset + perr.StartLine
				cerr.Err = perr.Err
			}
			if s.Policy != SkipRow {
				return 0, cerr
			}
			s.logMessage("Warning: skipping unreadable row: %v", cerr)
			*header = false
			if perr != nil && perr.StartLine != perr.Line {
				return perr.StartLine, nil
			}
			continue
		}
		if *header {
			*header = false
			continue
		}
		line, _ := cr.FieldPos(0)
		e, cerr := s.parseRow(row, offset+line)
		if cerr != nil {
			if s.Policy == SkipRow {
				s.logMessage("Warning: skipping row: %v", cerr)
				continue
			}
			return 0, cerr
		}
		lg.Set(e)
	}
}

// dropLines removes the first n lines of data.
func dropLines(data []byte, n int) []byte {
	for ; n > 0; n-- {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			return nil
		}
		data = data[i+1:]
	}
	return data
}

// corrupt applies Abort or Discard to a corruption found while reading.
func (s *Store) corrupt(cerr *CorruptionError) (*labeling.Log, error) {
	if s.Policy == Discard {
		s.logMessage("Warning: discarding all saved labels: %v", cerr)
		return labeling.NewLog(), nil
	}
	return nil, cerr
}

func (s *Store) parseRow(row []string, line int) (labeling.Entry, *CorruptionError) {
	if len(row) != len(Header) {
		return labeling.Entry{}, &CorruptionError{
			Path: s.Path,
			Line: line,
			Err:  fmt.Errorf("expected %d fields, got %d", len(Header), len(row)),
		}
	}
	imgIdx, err := parseIndex(row[0])
	if err != nil {
		return labeling.Entry{}, &CorruptionError{Path: s.Path, Line: line, Field: Header[0], Value: row[0], Err: err}
	}
	labelIdx, err := parseIndex(row[1])
	if err != nil {
		return labeling.Entry{}, &CorruptionError{Path: s.Path, Line: line, Field: Header[1], Value: row[1], Err: err}
	}
	return labeling.Entry{
		ImageIndex: imgIdx,
		LabelIndex: labelIdx,
		Label:      row[2],
		ImagePath:  row[3],
	}, nil
}

func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("negative index")
	}
	return n, nil
}
