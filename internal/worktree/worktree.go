// Package worktree materializes a commit's file set into the working
// directory and keeps the Index in sync with what was written.
package worktree

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"minigit/internal/commit"
	"minigit/internal/index"
	"minigit/internal/objectstore"
)

const reservedDir = ".minigit"

// Synchronizer materializes commits into a working directory rooted at
// Root, keeping the given Index in sync with what it writes.
type Synchronizer struct {
	root    string
	objects *objectstore.Store
	commits *commit.Store
	idx     *index.Index
}

func New(root string, objects *objectstore.Store, commits *commit.Store, idx *index.Index) *Synchronizer {
	return &Synchronizer{root: root, objects: objects, commits: commits, idx: idx}
}

// Materialize loads commitID, clears the working directory (except the
// reserved .minigit subtree), writes every file in the commit to disk, and
// rewrites the Index to mirror the commit's file set exactly. Uncommitted
// local edits are discarded without prompt: this is destructive by design.
func (s *Synchronizer) Materialize(commitID string) error {
	r, err := s.commits.Load(commitID)
	if err != nil {
		return fmt.Errorf("loading commit %s: %w", commitID, err)
	}

	if err := s.clearWorkingTree(); err != nil {
		return fmt.Errorf("clearing working tree: %w", err)
	}

	for path, blobID := range r.Files {
		if err := s.writeFile(path, blobID); err != nil {
			return fmt.Errorf("materializing %s: %w", path, err)
		}
	}

	s.idx.Replace(r.Files)
	if err := s.idx.Store(); err != nil {
		return fmt.Errorf("rewriting index: %w", err)
	}
	return nil
}

func (s *Synchronizer) writeFile(path, blobID string) error {
	content, err := s.objects.Get(blobID)
	if err != nil {
		return err
	}
	dest := filepath.Join(s.root, path)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating parent directories: %w", err)
	}
	return os.WriteFile(dest, content, 0o644)
}

// clearWorkingTree removes every entry directly under Root other than the
// reserved .minigit subtree.
func (s *Synchronizer) clearWorkingTree() error {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Name() == reservedDir {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.root, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// WalkWorkingTree calls fn for every regular file under Root, skipping the
// reserved .minigit subtree. Used by status computation.
func WalkWorkingTree(root string, fn func(relPath string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && d.Name() == reservedDir {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		return fn(rel)
	})
}
