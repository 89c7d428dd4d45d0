package upload

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vango-dev/counsel/internal/errors"
)

const metaSuffix = ".meta"

// DiskStore stages selected images under a directory. Each image is stored
// as <id> next to an <id>.meta JSON record, so staged images survive a
// restart until Cleanup expires them.
type DiskStore struct {
	dir     string
	maxSize int64
	now     func() time.Time

	mu    sync.Mutex
	cache map[string]record
}

type record struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	StagedAt    time.Time `json:"staged_at"`
}

// DiskOption configures a DiskStore.
type DiskOption func(*DiskStore)

// WithClock replaces time.Now for staging times and expiry.
func WithClock(now func() time.Time) DiskOption {
	return func(s *DiskStore) { s.now = now }
}

// NewDiskStore creates the staging directory if needed. maxSize <= 0
// disables the size limit.
func NewDiskStore(dir string, maxSize int64, opts ...DiskOption) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.New("C401").WithField("paths.uploads").Wrap(err)
	}
	s := &DiskStore{
		dir:     dir,
		maxSize: maxSize,
		now:     time.Now,
		cache:   make(map[string]record),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *DiskStore) path(id string) string { return filepath.Join(s.dir, id) }

// Save stages r and returns its ID. The declared size is checked first and
// the copy is cut one byte past the limit to catch understated sizes.
func (s *DiskStore) Save(filename, contentType string, size int64, r io.Reader) (string, error) {
	if s.maxSize > 0 && size > s.maxSize {
		return "", ErrTooLarge
	}
	id := uuid.NewString()

	f, err := os.Create(s.path(id))
	if err != nil {
		return "", err
	}
	if s.maxSize > 0 {
		r = io.LimitReader(r, s.maxSize+1)
	}
	written, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxSize > 0 && written > s.maxSize {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(s.path(id))
		return "", err
	}

	rec := record{
		Filename:    filepath.Base(filename),
		ContentType: contentType,
		Size:        written,
		StagedAt:    s.now(),
	}
	data, err := json.Marshal(rec)
	if err == nil {
		err = os.WriteFile(s.path(id)+metaSuffix, data, 0644)
	}
	if err != nil {
		os.Remove(s.path(id))
		return "", err
	}

	s.mu.Lock()
	s.cache[id] = rec
	s.mu.Unlock()
	return id, nil
}

// lookup returns the record of a staged image. IDs that are not UUIDs are
// never touched on disk.
func (s *DiskStore) lookup(id string) (record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return record{}, ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.cache[id]; ok {
		return rec, nil
	}
	data, err := os.ReadFile(s.path(id) + metaSuffix)
	if err != nil {
		return record{}, ErrNotFound
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return record{}, ErrNotFound
	}
	s.cache[id] = rec
	return rec, nil
}

// Stat returns the metadata of a staged image.
func (s *DiskStore) Stat(id string) (*File, error) {
	rec, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return &File{ID: id, Filename: rec.Filename, ContentType: rec.ContentType, Size: rec.Size}, nil
}

// Open returns a staged image with its contents.
func (s *DiskStore) Open(id string) (*File, error) {
	f, err := s.Stat(id)
	if err != nil {
		return nil, err
	}
	r, err := os.Open(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	f.Reader = r
	return f, nil
}

// Delete discards a staged image. Unknown IDs are ignored.
func (s *DiskStore) Delete(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	s.mu.Lock()
	delete(s.cache, id)
	s.mu.Unlock()
	return s.remove(id)
}

func (s *DiskStore) remove(id string) error {
	os.Remove(s.path(id) + metaSuffix)
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Cleanup removes images staged more than maxAge ago. Files without a
// readable record are aged by their modification time.
func (s *DiskStore) Cleanup(maxAge time.Duration) error {
	cutoff := s.now().Add(-maxAge)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), metaSuffix) {
			continue
		}
		id := entry.Name()
		staged, ok := s.stagedAt(id)
		if !ok {
			info, err := entry.Info()
			if err != nil {
				continue
			}
			staged = info.ModTime()
		}
		if staged.After(cutoff) {
			continue
		}
		s.mu.Lock()
		delete(s.cache, id)
		s.mu.Unlock()
		if err := s.remove(id); err != nil {
			return err
		}
	}
	return nil
}

func (s *DiskStore) stagedAt(id string) (time.Time, bool) {
	rec, err := s.lookup(id)
	if err != nil {
		return time.Time{}, false
	}
	return rec.StagedAt, true
}
