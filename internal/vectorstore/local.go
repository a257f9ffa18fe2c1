package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"pdfqa/models"
)

// LocalStore keeps collections in memory and, when dir is set, persists each
// one as <dir>/<name>.json after every write.
type LocalStore struct {
	dir string

	mu          sync.Mutex
	collections map[string]*localCollection
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	return &LocalStore{dir: dir, collections: make(map[string]*localCollection)}, nil
}

func (s *LocalStore) Backend() string { return "local" }

func (s *LocalStore) GetOrCreateCollection(ctx context.Context, name string) (Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[name]; ok {
		return c, nil
	}

	c := &localCollection{name: name}
	if s.dir != "" {
		if name == "" || name == "." || name == ".." || name != filepath.Base(name) {
			return nil, fmt.Errorf("invalid collection name %q", name)
		}
		c.path = filepath.Join(s.dir, name+".json")
		if err := c.load(); err != nil {
			return nil, err
		}
	}
	s.collections[name] = c
	return c, nil
}

func (s *LocalStore) Close(ctx context.Context) error { return nil }

type localCollection struct {
	name string
	path string

	mu     sync.RWMutex
	chunks []models.Chunk
}

func (c *localCollection) Name() string { return c.name }

func (c *localCollection) Add(ctx context.Context, chunks []models.Chunk) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.chunks) > 0 {
		dim := len(c.chunks[0].Embedding)
		for _, ch := range chunks {
			if len(ch.Embedding) != dim {
				return ErrDimensionMismatch
			}
		}
	}

	c.chunks = append(c.chunks, chunks...)
	if c.path == "" {
		return nil
	}
	if err := c.save(); err != nil {
		c.chunks = c.chunks[:len(c.chunks)-len(chunks)]
		return err
	}
	return nil
}

func (c *localCollection) Query(ctx context.Context, vector []float32, filter Filter, topK int) ([]models.ScoredChunk, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return rank(vector, c.chunks, filter, topK)
}

func (c *localCollection) Count(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.chunks), nil
}

func (c *localCollection) load() error {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read collection %s: %w", c.name, err)
	}
	if err := json.Unmarshal(data, &c.chunks); err != nil {
		return fmt.Errorf("decode collection %s: %w", c.name, err)
	}
	return nil
}

// save writes to a temp file and renames it over the old snapshot.
func (c *localCollection) save() error {
	data, err := json.Marshal(c.chunks)
	if err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write collection %s: %w", c.name, err)
	}
	return os.Rename(tmp, c.path)
}
