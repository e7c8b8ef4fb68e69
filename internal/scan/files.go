// Package scan lists the image files of a directory
package scan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"imglabeler/internal/config"
)

// DefaultExtensions are the image types accepted when none are configured.
var DefaultExtensions = []string{"jpg", "jpeg", "png", "gif"}

// LoggerFunc defines a function signature for logging messages.
type LoggerFunc func(message string)

// ExtensionSet holds lowercased extensions with a leading dot.
type ExtensionSet map[string]bool

// NewExtensionSet normalizes exts ("JPG", ".png", " gif") into a set.
// An empty list yields DefaultExtensions.
func NewExtensionSet(exts []string) ExtensionSet {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	set := make(ExtensionSet, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || e == "." {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = true
	}
	return set
}

// Match reports whether name carries one of the extensions, ignoring case.
func (s ExtensionSet) Match(name string) bool {
	return s[strings.ToLower(filepath.Ext(name))]
}

// List returns the extensions in sorted order.
func (s ExtensionSet) List() []string {
	out := make([]string, 0, len(s))
	for e := range s {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// Enumerate returns the regular files directly inside dir whose extension is
// in exts, sorted by path. Subdirectories are not descended into. A missing
// directory, a non-directory, or a directory without matches yields a
// *config.ConfigurationError.
func Enumerate(dir string, exts []string) ([]string, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, config.Errorf("the path %s does not exist", dir)
	}
	if err != nil {
		return nil, config.Wrap(err, "cannot read image directory %s", dir)
	}
	if !info.IsDir() {
		return nil, config.Errorf("the path %s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, config.Wrap(err, "cannot list image directory %s", dir)
	}

	set := NewExtensionSet(exts)
	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() && !isSymlinkToFile(dir, entry) {
			continue
		}
		if set.Match(entry.Name()) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, config.Errorf("the path %s contains no images (%s)", dir, strings.Join(set.List(), ", "))
	}
	sort.Strings(paths)
	return paths, nil
}

func isSymlinkToFile(dir string, entry os.DirEntry) bool {
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(filepath.Join(dir, entry.Name()))
	return err == nil && fi.Mode().IsRegular()
}

// Run enumerates dir like Enumerate and logs the outcome.
func Run(dir string, exts []string, logger LoggerFunc) ([]string, error) {
	paths, err := Enumerate(dir, exts)
	if logger != nil {
		if err != nil {
			logger(fmt.Sprintf("Scan of %s failed: %v", dir, err))
		} else {
			logger(fmt.Sprintf("Found %d images in %s", len(paths), dir))
		}
	}
	return paths, err
}
