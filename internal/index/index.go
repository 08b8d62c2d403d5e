// Package index implements the staging area: the ordered path→blob-id
// mapping persisted at .minigit/index that becomes the next commit's file
// set.
package index

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"

	minigiterrors "minigit/internal/errors"
	"minigit/shared/pathutil"
)

// Index is an in-memory snapshot of the staging area. Callers Load it,
// mutate it, and Store it back — there is no persistent in-process state
// between commands.
type Index struct {
	path    string
	entries map[string]string
}

func New(path string) *Index {
	return &Index{path: path, entries: make(map[string]string)}
}

// Load reads the index file, returning an empty Index if it doesn't exist
// yet (e.g. right after init).
func Load(path string) (*Index, error) {
	idx := New(path)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, fmt.Errorf("opening index: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		pos := strings.LastIndex(line, ":")
		if pos < 0 {
			continue
		}
		idx.entries[line[:pos]] = line[pos+1:]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	return idx, nil
}

// Paths returns every staged path, in lexicographic order.
func (idx *Index) Paths() []string {
	paths := make([]string, 0, len(idx.entries))
	for p := range idx.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Entries returns a copy of the path→blob-id map.
func (idx *Index) Entries() map[string]string {
	out := make(map[string]string, len(idx.entries))
	for k, v := range idx.entries {
		out[k] = v
	}
	return out
}

// Get returns the blob id staged for path, if any.
func (idx *Index) Get(path string) (string, bool) {
	id, ok := idx.entries[path]
	return id, ok
}

// Put stages path at the given blob id.
func (idx *Index) Put(path, blobID string) error {
	if !pathutil.ValidStagedPath(path) {
		return minigiterrors.InvalidPath(path)
	}
	idx.entries[path] = blobID
	return nil
}

// Remove unstages path. A no-op if path wasn't staged.
func (idx *Index) Remove(path string) {
	delete(idx.entries, path)
}

// Replace discards the current entries and replaces them wholesale, used by
// checkout and merge to mirror a commit's file set exactly.
func (idx *Index) Replace(entries map[string]string) {
	idx.entries = make(map[string]string, len(entries))
	for k, v := range entries {
		idx.entries[k] = v
	}
}

// Store serializes the index, one sorted "<path>:<blob-id>" line per entry,
// via temp-file-then-rename.
func (idx *Index) Store() error {
	var b strings.Builder
	for _, p := range idx.Paths() {
		fmt.Fprintf(&b, "%s:%s\n", p, idx.entries[p])
	}

	tmp := idx.path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	if err := os.Rename(tmp, idx.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalizing index: %w", err)
	}
	return nil
}

// Equal reports whether two file-set maps are identical, used by commit's
// no-op check against the parent's file set.
func Equal(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
