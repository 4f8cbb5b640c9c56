package profile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// Store persists profiles by id.
type Store interface {
	// Load returns the profile stored under id, ErrNotFound when there is
	// none, or an error wrapping ErrCorrupted when it cannot be parsed.
	Load(ctx context.Context, id string) (Profile, error)
	// Save replaces the profile stored under id.
	Save(ctx context.Context, id string, p Profile) error
}

// MemoryStore is a process-local Store. Profiles are held encoded so callers
// never share ability slices with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Load implements Store.
func (s *MemoryStore) Load(ctx context.Context, id string) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	s.mu.RLock()
	raw, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return Profile{}, ErrNotFound
	}
	return Decode(raw)
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, id string, p Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := Encode(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[id] = raw
	s.mu.Unlock()
	return nil
}

// Put stores raw bytes under id without validation. It exists so corrupted
// data can be seeded.
func (s *MemoryStore) Put(id string, raw []byte) {
	s.mu.Lock()
	s.data[id] = append([]byte(nil), raw...)
	s.mu.Unlock()
}

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// FileStore keeps one JSON document per profile in a directory.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
//
// Postcondition: Returns a usable FileStore or a non-nil error.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating profile dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id string) (string, error) {
	if !validID.MatchString(id) {
		return "", fmt.Errorf("invalid profile id %q", id)
	}
	return filepath.Join(s.dir, id+".json"), nil
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context, id string) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	path, err := s.path(id)
	if err != nil {
		return Profile{}, err
	}
	s.mu.Lock()
	raw, err := os.ReadFile(path)
	s.mu.Unlock()
	if errors.Is(err, fs.ErrNotExist) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("reading profile %s: %w", id, err)
	}
	return Decode(raw)
}

// Save implements Store. The file is replaced atomically.
func (s *FileStore) Save(ctx context.Context, id string, p Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(id)
	if err != nil {
		return err
	}
	raw, err := Encode(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("writing profile %s: %w", id, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing profile %s: %w", id, err)
	}
	return nil
}
