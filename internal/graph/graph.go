// Package graph implements ancestry and lowest-common-ancestor queries over
// the commit DAG, reading commit headers through the graph cache and
// falling back transparently to the canonical commit store on any miss.
package graph

import (
	"fmt"

	"minigit/internal/commit"
	minigiterrors "minigit/internal/errors"
	"minigit/internal/graphcache"
	"minigit/internal/hash"
)

// Store is the minimal view of the commit graph a query needs: a way to
// resolve a commit's header (parents, timestamp) by id, cached or not.
type Store struct {
	commits *commit.Store
	cache   *graphcache.Cache
}

func New(commits *commit.Store, cache *graphcache.Cache) *Store {
	return &Store{commits: commits, cache: cache}
}

// Header resolves a commit's parents and timestamp, reading through the
// graph cache and populating it on miss. Exported so callers like `show`
// can surface whether a lookup was served from cache without duplicating
// the read-through logic.
func (s *Store) Header(id string) (graphcache.Header, error) {
	return s.header(id)
}

// header resolves a commit's parents, reading through the graph cache and
// populating it on miss.
func (s *Store) header(id string) (graphcache.Header, error) {
	if s.cache != nil {
		if h, ok := s.cache.Get(id); ok {
			return h, nil
		}
	}

	r, err := s.commits.Load(id)
	if err != nil {
		return graphcache.Header{}, err
	}
	h := graphcache.Header{Parents: r.Parents, Timestamp: r.Timestamp}
	if s.cache != nil {
		s.cache.Put(id, h)
	}
	return h, nil
}

// IsAncestor reports whether a is an ancestor of (or equal to) d, by a
// breadth-first walk from d through parent edges.
func (s *Store) IsAncestor(a, d string) (bool, error) {
	if a == d {
		return true, nil
	}
	if hash.IsSentinel(d) {
		return false, nil
	}

	visited := map[string]bool{d: true}
	queue := []string{d}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		h, err := s.header(cur)
		if err != nil {
			return false, fmt.Errorf("walking ancestry from %s: %w", d, err)
		}
		for _, p := range h.Parents {
			if p == a {
				return true, nil
			}
			if hash.IsSentinel(p) || visited[p] {
				continue
			}
			visited[p] = true
			queue = append(queue, p)
		}
	}
	return false, nil
}

// FindLCA returns a common ancestor of c1 and c2 by alternating one-step
// breadth-first frontiers, returning the first commit discovered that is
// already present in the opposite frontier's visited set. Ties go to the
// first such discovery in alternation order: this is a best-effort first
// meet, not a strict lowest-common-ancestor in arbitrary multi-merge DAGs.
func (s *Store) FindLCA(c1, c2 string) (string, error) {
	if c1 == c2 {
		return c1, nil
	}

	visited1 := map[string]bool{c1: true}
	visited2 := map[string]bool{c2: true}
	queue1 := []string{c1}
	queue2 := []string{c2}

	if visited2[c1] {
		return c1, nil
	}
	if visited1[c2] {
		return c2, nil
	}

	for len(queue1) > 0 || len(queue2) > 0 {
		if found, ok, err := s.stepFrontier(&queue1, visited1, visited2); err != nil {
			return "", err
		} else if ok {
			return found, nil
		}
		if found, ok, err := s.stepFrontier(&queue2, visited2, visited1); err != nil {
			return "", err
		} else if ok {
			return found, nil
		}
	}
	return "", minigiterrors.NoCommonAncestor()
}

// stepFrontier advances one frontier by a single breadth-first level,
// returning the first node it discovers that's already in the opposite
// frontier's visited set.
func (s *Store) stepFrontier(queue *[]string, mine, theirs map[string]bool) (string, bool, error) {
	if len(*queue) == 0 {
		return "", false, nil
	}
	cur := (*queue)[0]
	*queue = (*queue)[1:]

	h, err := s.header(cur)
	if err != nil {
		return "", false, fmt.Errorf("walking graph for lowest common ancestor: %w", err)
	}
	for _, p := range h.Parents {
		if hash.IsSentinel(p) {
			continue
		}
		if theirs[p] {
			return p, true, nil
		}
		if !mine[p] {
			mine[p] = true
			*queue = append(*queue, p)
		}
	}
	return "", false, nil
}
