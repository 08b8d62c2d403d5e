// Package pathutil holds the small set of file-path helpers shared by every
// core component: the rules for what paths and ref names the format can
// safely represent, and how to join a ref/working-tree name into a root
// without letting it escape that root.
package pathutil

import (
	"path/filepath"
	"strings"
)

// ValidStagedPath reports whether path is safe to appear on the left side of
// an Index or commit-body line. The "<path>:<blob-id>" and "parent <id>"
// line formats can't represent a ':' or an embedded newline in path.
func ValidStagedPath(path string) bool {
	if path == "" {
		return false
	}
	return !strings.ContainsAny(path, ":\n\r")
}

// ValidMessage reports whether a commit message can be written as the
// single-line "message <text>" record without corrupting the serialization.
func ValidMessage(message string) bool {
	return !strings.ContainsAny(message, "\n\r")
}

// ValidRefName reports whether name is safe to use as a refs/heads/<name>
// filename: no path separators or traversal components that would let it
// escape the refs directory.
func ValidRefName(name string) bool {
	if name == "" {
		return false
	}
	clean := filepath.ToSlash(filepath.Clean(name))
	if clean != filepath.ToSlash(name) {
		return false
	}
	for _, part := range strings.Split(clean, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}

// SafeJoin joins name onto root after confirming the result stays within
// root, returning ok=false for anything that would traverse out (e.g. a ref
// name containing "..").
func SafeJoin(root, name string) (joined string, ok bool) {
	joined = filepath.Join(root, name)
	rel, err := filepath.Rel(root, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return joined, true
}
