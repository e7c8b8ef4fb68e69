// Package labelindex keeps a bbolt index of the label assignments so that
// labels can be queried by image and images by label without reparsing the
// CSV label file. The CSV stays the source of truth; the index is rebuilt
// from it whenever the two disagree.
//
// Each label file gets its own index (see DirFor), and the index records
// which file it mirrors. Image paths are stored absolute so that queries do
// not depend on the working directory.
package labelindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"imglabeler/internal/labeling"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

const (
	dbFileName          = "imglabeler_index.db"
	ImageToLabelBucket  = "ImageToLabel"  // image path -> Record
	LabelToImagesBucket = "LabelToImages" // label -> JSON list of image paths
	MetaBucket          = "Meta"          // sourceKey, baseKey

	sourceKey = "source"
	baseKey   = "base"
)

var buckets = []string{ImageToLabelBucket, LabelToImagesBucket, MetaBucket}

// openTimeout bounds the wait for the file lock held by another process.
const openTimeout = 2 * time.Second

// LoggerFunc defines a function signature for logging messages.
type LoggerFunc func(message string)

// Record is the value stored for each image.
type Record struct {
	ImageIndex int    `json:"img_idx"`
	LabelIndex int    `json:"label_idx"`
	Label      string `json:"label"`
}

// LabelWithCount holds a label and the number of images carrying it.
type LabelWithCount struct {
	Name  string
	Count int
}

// Source names the label file an index mirrors.
type Source struct {
	CSV string // absolute path of the label file
	// BaseDir resolves the relative image paths found in the label file.
	BaseDir string
}

// Index manages the label index database.
type Index struct {
	db     *bolt.DB
	path   string
	logger LoggerFunc
}

// DefaultDir returns the per-user directory holding the index.
func DefaultDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "imglabeler"), nil
}

// DirFor returns the index directory of the label file at csvPath, a
// subdirectory of DefaultDir named after the file's absolute path.
func DirFor(csvPath string) (string, error) {
	abs, err := filepath.Abs(csvPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve label file %s: %w", csvPath, err)
	}
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(abs)))
	return filepath.Join(dir, id.String()), nil
}

// Open creates or opens the index in dbDir. An empty dbDir selects
// DefaultDir, falling back to the working directory.
func Open(dbDir string, logger LoggerFunc) (*Index, error) {
	if dbDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			log.Printf("Warning: Could not get user config dir: %v. Using current dir.", err)
			dir = "."
		}
		dbDir = dir
	}
	if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create index directory %s: %w", dbDir, err)
	}

	dbPath := filepath.Join(dbDir, dbFileName)
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open label index %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	idx := &Index{db: db, path: dbPath, logger: logger}
	idx.logMessage("Using label index at: %s", dbPath)
	return idx, nil
}

func (idx *Index) logMessage(format string, args ...interface{}) {
	if idx.logger != nil {
		idx.logger(fmt.Sprintf(format, args...))
	} else {
		log.Printf(format, args...)
	}
}

// Path returns the database file path.
func (idx *Index) Path() string { return idx.path }

// Close closes the database connection.
func (idx *Index) Close() error {
	if idx.db != nil {
		return idx.db.Close()
	}
	return nil
}

func encodeList(list []string) ([]byte, error) {
	return json.Marshal(list)
}

func decodeList(data []byte) ([]string, error) {
	var list []string
	if data == nil {
		return []string{}, nil
	}
	err := json.Unmarshal(data, &list)
	return list, err
}

// updateStoredList adds item to, or removes it from, the list stored under
// key. A list emptied by a removal is deleted.
func updateStoredList(tx *bolt.Tx, key string, item string, add bool) error {
	bucket := tx.Bucket([]byte(LabelToImagesBucket))
	list, err := decodeList(bucket.Get([]byte(key)))
	if err != nil {
		return fmt.Errorf("failed to decode image list for label '%s': %w", key, err)
	}

	pos := -1
	for i, existing := range list {
		if existing == item {
			pos = i
			break
		}
	}
	switch {
	case add && pos >= 0, !add && pos < 0:
		return nil
	case add:
		list = append(list, item)
	default:
		list = append(list[:pos], list[pos+1:]...)
	}

	if len(list) == 0 {
		return bucket.Delete([]byte(key))
	}
	data, err := encodeList(list)
	if err != nil {
		return fmt.Errorf("failed to encode image list for label '%s': %w", key, err)
	}
	return bucket.Put([]byte(key), data)
}

func getRecord(tx *bolt.Tx, imagePath string) (Record, bool, error) {
	data := tx.Bucket([]byte(ImageToLabelBucket)).Get([]byte(imagePath))
	if data == nil {
		return Record{}, false, nil
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, false, fmt.Errorf("failed to decode record for image %s: %w", imagePath, err)
	}
	return rec, true, nil
}

// resolve makes p absolute, relative to base when one is given and to the
// working directory otherwise.
func resolve(base, p string) (string, error) {
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	if base != "" {
		return filepath.Join(base, p), nil
	}
	return filepath.Abs(p)
}

func getSource(tx *bolt.Tx) (Source, bool) {
	b := tx.Bucket([]byte(MetaBucket))
	csv := b.Get([]byte(sourceKey))
	if csv == nil {
		return Source{}, false
	}
	return Source{CSV: string(csv), BaseDir: string(b.Get([]byte(baseKey)))}, true
}

func assign(tx *bolt.Tx, e labeling.Entry) error {
	old, ok, err := getRecord(tx, e.ImagePath)
	if err != nil {
		return err
	}
	if ok && old.Label != e.Label {
		if err := updateStoredList(tx, old.Label, e.ImagePath, false); err != nil {
			return err
		}
	}
	data, err := json.Marshal(Record{ImageIndex: e.ImageIndex, LabelIndex: e.LabelIndex, Label: e.Label})
	if err != nil {
		return err
	}
	if err := tx.Bucket([]byte(ImageToLabelBucket)).Put([]byte(e.ImagePath), data); err != nil {
		return fmt.Errorf("failed to store label for image %s: %w", e.ImagePath, err)
	}
	return updateStoredList(tx, e.Label, e.ImagePath, true)
}

// Assign records e, replacing any label previously held by the same image.
// A relative image path is resolved against the BaseDir of the last
// Rebuild.
func (idx *Index) Assign(e labeling.Entry) error {
	if e.ImagePath == "" || e.Label == "" {
		return fmt.Errorf("image path and label cannot be empty")
	}
	return idx.db.Update(func(tx *bolt.Tx) error {
		src, _ := getSource(tx)
		p, err := resolve(src.BaseDir, e.ImagePath)
		if err != nil {
			return fmt.Errorf("failed to resolve image path %s: %w", e.ImagePath, err)
		}
		e.ImagePath = p
		return assign(tx, e)
	})
}

// Label returns the record stored for imagePath. A relative path is taken
// relative to the working directory.
func (idx *Index) Label(imagePath string) (Record, bool, error) {
	p, err := filepath.Abs(imagePath)
	if err != nil {
		return Record{}, false, err
	}
	var (
		rec Record
		ok  bool
	)
	err = idx.db.View(func(tx *bolt.Tx) error {
		var err error
		rec, ok, err = getRecord(tx, p)
		return err
	})
	return rec, ok, err
}

// Source returns the label file the index was last rebuilt from.
func (idx *Index) Source() (Source, bool, error) {
	var (
		src Source
		ok  bool
	)
	err := idx.db.View(func(tx *bolt.Tx) error {
		src, ok = getSource(tx)
		return nil
	})
	return src, ok, err
}

// Images returns the sorted image paths carrying label.
func (idx *Index) Images(label string) ([]string, error) {
	var images []string
	err := idx.db.View(func(tx *bolt.Tx) error {
		var err error
		images, err = decodeList(tx.Bucket([]byte(LabelToImagesBucket)).Get([]byte(label)))
		if err != nil {
			return fmt.Errorf("failed to decode images for label %s: %w", label, err)
		}
		return nil
	})
	sort.Strings(images)
	return images, err
}

// Labels returns every label in the index with its image count, sorted by
// name.
func (idx *Index) Labels() ([]LabelWithCount, error) {
	var all []LabelWithCount
	err := idx.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(LabelToImagesBucket)).ForEach(func(k, v []byte) error {
			list, err := decodeList(v)
			if err != nil {
				idx.logMessage("Error decoding image list for label '%s', skipping: %v", string(k), err)
				return nil
			}
			all = append(all, LabelWithCount{Name: string(k), Count: len(list)})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

// Remove drops imagePath from the index.
func (idx *Index) Remove(imagePath string) error {
	p, err := filepath.Abs(imagePath)
	if err != nil {
		return err
	}
	return idx.db.Update(func(tx *bolt.Tx) error {
		rec, ok, err := getRecord(tx, p)
		if err != nil || !ok {
			return err
		}
		if err := updateStoredList(tx, rec.Label, p, false); err != nil {
			return err
		}
		return tx.Bucket([]byte(ImageToLabelBucket)).Delete([]byte(p))
	})
}

// ImagePaths returns every indexed image path in key order.
func (idx *Index) ImagePaths() ([]string, error) {
	var paths []string
	err := idx.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(ImageToLabelBucket)).ForEach(func(k, _ []byte) error {
			paths = append(paths, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get all image paths: %w", err)
	}
	return paths, nil
}

// Rebuild replaces the whole index with the entries of lg in one
// transaction and records src as its origin. An empty src.BaseDir stands for
// the working directory. Entries without an image path are skipped.
func (idx *Index) Rebuild(lg *labeling.Log, src Source) error {
	if src.BaseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to rebuild label index: %w", err)
		}
		src.BaseDir = wd
	}
	err := idx.db.Update(func(tx *bolt.Tx) error {
		for _, name := range buckets {
			if err := tx.DeleteBucket([]byte(name)); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return fmt.Errorf("failed to clear bucket %s: %w", name, err)
			}
			if _, err := tx.CreateBucket([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		meta := tx.Bucket([]byte(MetaBucket))
		if err := meta.Put([]byte(baseKey), []byte(src.BaseDir)); err != nil {
			return err
		}
		if src.CSV != "" {
			if err := meta.Put([]byte(sourceKey), []byte(src.CSV)); err != nil {
				return err
			}
		}
		for _, e := range lg.Entries() {
			if e.ImagePath == "" || e.Label == "" {
				continue
			}
			p, err := resolve(src.BaseDir, e.ImagePath)
			if err != nil {
				return err
			}
			e.ImagePath = p
			if err := assign(tx, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to rebuild label index: %w", err)
	}
	idx.logMessage("Rebuilt label index with %d entries from %s", lg.Len(), src.CSV)
	return nil
}
