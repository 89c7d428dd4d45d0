package pref

import (
	"encoding/json"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/vango-dev/counsel/internal/errors"
)

// Store is a key-value store for preference records.
type Store interface {
	Load(key string) ([]byte, bool, error)
	Save(key string, data []byte) error
	Delete(key string) error
}

// MemoryStore is an in-memory Store. The live bridge gives every browser
// its own MemoryStore for session-scoped values.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Load(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[key]
	return data, ok, nil
}

func (m *MemoryStore) Save(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// FileStore keeps every key in a single JSON object on disk.
// Writes replace the file atomically.
type FileStore struct {
	mu   sync.Mutex
	path string
	data map[string]json.RawMessage
}

// OpenFile opens or creates a FileStore at path.
func OpenFile(path string) (*FileStore, error) {
	fs := &FileStore{path: path, data: make(map[string]json.RawMessage)}

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return fs, nil
	case err != nil:
		return nil, errors.FromError(err, "C401").WithField("prefs")
	}
	if len(raw) == 0 {
		return fs, nil
	}
	if err := json.Unmarshal(raw, &fs.data); err != nil {
		return nil, errors.New("C401").
			WithField("prefs").
			WithDetail(path + ": " + err.Error()).
			WithSuggestion("Delete the preference file to start fresh")
	}
	return fs, nil
}

// Path returns the file path.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Load(key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.data[key]
	return data, ok, nil
}

func (f *FileStore) Save(key string, data []byte) error {
	if !json.Valid(data) {
		return errors.New("C401").WithField(key).WithDetail("preference value is not JSON")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	next := maps.Clone(f.data)
	next[key] = append(json.RawMessage(nil), data...)
	if err := f.flush(next); err != nil {
		return err
	}
	f.data = next
	return nil
}

func (f *FileStore) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; !ok {
		return nil
	}
	next := maps.Clone(f.data)
	delete(next, key)
	if err := f.flush(next); err != nil {
		return err
	}
	f.data = next
	return nil
}

func (f *FileStore) flush(data map[string]json.RawMessage) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

// Namespace returns a Store that prefixes every key with ns and a slash,
// so several owners can share one backing store without seeing each
// other's values.
func Namespace(store Store, ns string) Store {
	return namespaced{store: store, prefix: ns + "/"}
}

type namespaced struct {
	store  Store
	prefix string
}

func (n namespaced) Load(key string) ([]byte, bool, error) {
	return n.store.Load(n.prefix + key)
}

func (n namespaced) Save(key string, data []byte) error {
	return n.store.Save(n.prefix+key, data)
}

func (n namespaced) Delete(key string) error {
	return n.store.Delete(n.prefix + key)
}

// SaveOnce stores v under key for a single later TakeOnce.
func SaveOnce(store Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return store.Save(key, data)
}

// TakeOnce returns the value stored under key and removes it, so a second
// call reports false.
func TakeOnce[T any](store Store, key string) (T, bool, error) {
	var zero T
	data, ok, err := store.Load(key)
	if err != nil || !ok {
		return zero, false, err
	}
	if err := store.Delete(key); err != nil {
		return zero, false, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, false, err
	}
	return v, true, nil
}
