// Package refstore manages HEAD and the named branch pointers under
// .minigit/refs/heads/. Every write goes through a temp-file-then-rename so
// a crash mid-write leaves the previous value intact.
package refstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"minigit/internal/hash"

	"github.com/google/uuid"

	"minigit/shared/pathutil"
)

const headAttachedPrefix = "ref: "
const branchRefPrefix = "refs/heads/"

// Store wraps the .minigit directory's HEAD file and refs/heads/ directory.
type Store struct {
	minigitDir string
}

func New(minigitDir string) (*Store, error) {
	headsDir := filepath.Join(minigitDir, "refs", "heads")
	if err := os.MkdirAll(headsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating refs directory: %w", err)
	}
	return &Store{minigitDir: minigitDir}, nil
}

func (s *Store) headPath() string {
	return filepath.Join(s.minigitDir, "HEAD")
}

func (s *Store) branchPath(name string) (string, bool) {
	return pathutil.SafeJoin(filepath.Join(s.minigitDir, "refs", "heads"), name)
}

func writeFileAtomic(path string, content string) error {
	tmp := path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// SetHeadAttached points HEAD at a named branch (symbolic reference).
func (s *Store) SetHeadAttached(branch string) error {
	return writeFileAtomic(s.headPath(), headAttachedPrefix+branchRefPrefix+branch)
}

// SetHeadDetached points HEAD directly at a commit id.
func (s *Store) SetHeadDetached(commitID string) error {
	return writeFileAtomic(s.headPath(), commitID)
}

// HeadState describes what HEAD currently resolves to.
type HeadState struct {
	Attached bool
	Branch   string // valid when Attached
	CommitID string // valid when !Attached
}

// ReadHead parses the HEAD file's contents.
func (s *Store) ReadHead() (HeadState, error) {
	data, err := os.ReadFile(s.headPath())
	if err != nil {
		return HeadState{}, fmt.Errorf("reading HEAD: %w", err)
	}
	content := strings.TrimSpace(string(data))

	if strings.HasPrefix(content, headAttachedPrefix) {
		ref := strings.TrimPrefix(content, headAttachedPrefix)
		branch := strings.TrimPrefix(ref, branchRefPrefix)
		return HeadState{Attached: true, Branch: branch}, nil
	}
	return HeadState{Attached: false, CommitID: content}, nil
}

// ResolveHead returns the commit id HEAD currently points to, following a
// symbolic ref to its branch's stored commit id. Returns hash.Sentinel if
// the attached branch has no commits yet.
func (s *Store) ResolveHead() (string, error) {
	head, err := s.ReadHead()
	if err != nil {
		return "", err
	}
	if !head.Attached {
		return head.CommitID, nil
	}
	return s.ReadBranch(head.Branch)
}

// ReadBranch returns the commit id a branch points to (hash.Sentinel if the
// branch has no commits yet).
func (s *Store) ReadBranch(name string) (string, error) {
	path, ok := s.branchPath(name)
	if !ok {
		return "", fmt.Errorf("invalid branch name: %s", name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// WriteBranch sets a branch's stored commit id, creating the branch file if
// it doesn't already exist.
func (s *Store) WriteBranch(name, commitID string) error {
	path, ok := s.branchPath(name)
	if !ok {
		return fmt.Errorf("invalid branch name: %s", name)
	}
	return writeFileAtomic(path, commitID)
}

// BranchExists reports whether refs/heads/<name> exists.
func (s *Store) BranchExists(name string) bool {
	path, ok := s.branchPath(name)
	if !ok {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// IsSentinel reports whether id is the "no commits yet" marker.
func IsSentinel(id string) bool {
	return id == hash.Sentinel
}
