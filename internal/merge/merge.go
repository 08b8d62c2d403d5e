// Package merge implements the merge algorithm: fast-forward detection and
// the file-level three-way merge with its conflict-resolution table.
package merge

import (
	"fmt"
	"sort"

	"minigit/internal/commit"
	minigiterrors "minigit/internal/errors"
	"minigit/internal/graph"
)

// Result describes the outcome of a merge attempt.
type Result struct {
	// UpToDate is true when current already contains other's history.
	UpToDate bool
	// FastForward is true when current's ref was simply advanced to
	// other's tip; NewCommit is empty in that case.
	FastForward bool
	// NewCommit is the id of the created merge commit, set only for a
	// successful three-way merge.
	NewCommit string
	// Files is the resulting file set, set for fast-forward and
	// three-way outcomes (the caller materializes it).
	Files map[string]string
	// Conflicts lists every path in conflict; non-empty means the merge
	// was aborted and no state was written.
	Conflicts []string
}

// Merger runs merges between two resolved commit ids.
type Merger struct {
	commits *commit.Store
	graph   *graph.Store
}

func New(commits *commit.Store, g *graph.Store) *Merger {
	return &Merger{commits: commits, graph: g}
}

// Merge combines other into current per the fast-forward and three-way
// rules. otherName is used only to compose the merge commit's message.
func (m *Merger) Merge(current, other, otherName string) (Result, error) {
	if current == other {
		return Result{UpToDate: true}, nil
	}

	isAncestor, err := m.graph.IsAncestor(current, other)
	if err != nil {
		return Result{}, err
	}
	if isAncestor {
		r, err := m.commits.Load(other)
		if err != nil {
			return Result{}, fmt.Errorf("loading fast-forward target: %w", err)
		}
		return Result{FastForward: true, Files: r.Files}, nil
	}

	isDescendant, err := m.graph.IsAncestor(other, current)
	if err != nil {
		return Result{}, err
	}
	if isDescendant {
		return Result{UpToDate: true}, nil
	}

	return m.threeWay(current, other, otherName)
}

func (m *Merger) threeWay(current, other, otherName string) (Result, error) {
	lcaID, err := m.graph.FindLCA(current, other)
	if err != nil {
		return Result{}, err
	}

	base, err := m.commits.Load(lcaID)
	if err != nil {
		return Result{}, fmt.Errorf("loading merge base: %w", err)
	}
	cur, err := m.commits.Load(current)
	if err != nil {
		return Result{}, fmt.Errorf("loading current commit: %w", err)
	}
	tgt, err := m.commits.Load(other)
	if err != nil {
		return Result{}, fmt.Errorf("loading target commit: %w", err)
	}

	paths := unionPaths(base.Files, cur.Files, tgt.Files)

	merged := make(map[string]string)
	var conflicts []string
	for _, p := range paths {
		l, lok := base.Files[p]
		c, cok := cur.Files[p]
		t, tok := tgt.Files[p]

		id, ok, conflict := resolve(l, lok, c, cok, t, tok)
		if conflict {
			conflicts = append(conflicts, p)
			continue
		}
		if ok {
			merged[p] = id
		}
	}

	sort.Strings(conflicts)
	if len(conflicts) > 0 {
		return Result{Conflicts: conflicts}, minigiterrors.MergeConflict(conflicts)
	}

	commitID, err := m.commits.Save(commit.Record{
		Parents:   []string{current, other},
		Timestamp: commit.Now(),
		Message:   fmt.Sprintf("Merge branch %s", otherName),
		Files:     merged,
	})
	if err != nil {
		return Result{}, fmt.Errorf("saving merge commit: %w", err)
	}

	return Result{NewCommit: commitID, Files: merged}, nil
}

// resolve applies the three-way resolution table for a single path. ok
// reports whether the path survives (false means "absent from the merge
// result"); conflict reports whether the path is in conflict, in which
// case id and ok are meaningless.
func resolve(l string, lok bool, c string, cok bool, t string, tok bool) (id string, ok bool, conflict bool) {
	switch {
	case lok && cok && tok:
		switch {
		case c == l && t == l:
			return l, true, false
		case c == l && t != l:
			return t, true, false
		case c != l && t == l:
			return c, true, false
		case c != l && t == c:
			return c, true, false
		default:
			return "", false, true
		}
	case lok && cok && !tok:
		if c == l {
			return "", false, false // deleted in target
		}
		return "", false, true
	case lok && !cok && tok:
		if t == l {
			return "", false, false // deleted in current
		}
		return "", false, true
	case lok && !cok && !tok:
		return "", false, false
	case !lok && cok && tok:
		if c == t {
			return c, true, false
		}
		return "", false, true
	case !lok && cok && !tok:
		return c, true, false
	case !lok && !cok && tok:
		return t, true, false
	default:
		return "", false, false
	}
}

func unionPaths(maps ...map[string]string) []string {
	set := make(map[string]struct{})
	for _, m := range maps {
		for p := range m {
			set[p] = struct{}{}
		}
	}
	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
