// Package objectstore implements the content-addressed blob/commit store
// under .minigit/objects/. Blobs and commits share one flat namespace: the
// filename is the object's id, the contents are its raw bytes.
package objectstore

import (
	"fmt"
	"os"
	"path/filepath"

	minigiterrors "minigit/internal/errors"
	"minigit/internal/hash"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Store is a flat, content-addressed object directory backed by an
// in-process LRU read cache. A cacheSize of zero or less is raised to one,
// so the cache then holds only the most recently touched object.
type Store struct {
	root  string
	cache *lru.Cache[string, []byte]
}

// New creates (if absent) the object directory at root and wraps it with an
// LRU read cache sized cacheSize.
func New(root string, cacheSize int) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating object store directory: %w", err)
	}

	if cacheSize <= 0 {
		cacheSize = 1
	}
	cache, err := lru.New[string, []byte](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating object cache: %w", err)
	}

	return &Store{root: root, cache: cache}, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.root, id)
}

// Put computes the object's id, and if no object with that id already
// exists, writes it atomically (temp file + rename) into the store. Put is
// idempotent on id: writing the same bytes twice is a no-op the second time.
func (s *Store) Put(content []byte) (string, error) {
	if content == nil {
		content = []byte{}
	}

	id := hash.Sum(content)
	path := s.path(id)

	if _, err := os.Stat(path); err == nil {
		s.cache.Add(id, content)
		return id, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("checking object %s: %w", id, err)
	}

	tmpPath := path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmpPath, content, 0o644); err != nil {
		return "", fmt.Errorf("writing temp object %s: %w", id, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("finalizing object %s: %w", id, err)
	}

	s.cache.Add(id, content)
	return id, nil
}

// Get reads an object's bytes, checking the LRU cache before touching disk.
func (s *Store) Get(id string) ([]byte, error) {
	if content, ok := s.cache.Get(id); ok {
		return content, nil
	}

	content, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, minigiterrors.ObjectMissing(id)
		}
		return nil, fmt.Errorf("reading object %s: %w", id, err)
	}

	s.cache.Add(id, content)
	return content, nil
}

// Exists reports whether an object with the given id is present, without
// reading its bytes.
func (s *Store) Exists(id string) bool {
	if s.cache.Contains(id) {
		return true
	}
	_, err := os.Stat(s.path(id))
	return err == nil
}
