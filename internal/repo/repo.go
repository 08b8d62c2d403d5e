// Package repo wires the object store, reference store, index, commit
// store, graph cache, and graph/merge/worktree queries into the operations
// the command line exposes: init, add, commit, log, branch, checkout,
// merge, status, show.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"minigit/internal/commit"
	"minigit/internal/config"
	minigiterrors "minigit/internal/errors"
	"minigit/internal/graph"
	"minigit/internal/graphcache"
	"minigit/internal/hash"
	"minigit/internal/index"
	"minigit/internal/logging"
	"minigit/internal/merge"
	"minigit/internal/objectstore"
	"minigit/internal/refstore"
	"minigit/internal/worktree"
	"minigit/shared/pathutil"

	"go.uber.org/zap"
)

const (
	minigitDirName = ".minigit"
	defaultBranch  = "master"
)

// Repository is the entry point for every command: it owns the working
// directory root and every wired subsystem beneath .minigit/.
type Repository struct {
	root       string
	minigitDir string
	cfg        config.Config
	logger     *zap.Logger

	objects *objectstore.Store
	refs    *refstore.Store
	commits *commit.Store
	cache   *graphcache.Cache
	graph   *graph.Store
	merger  *merge.Merger
}

// Init creates the .minigit layout rooted at dir: HEAD attached to master,
// master holding the sentinel (no commits yet). Fails with
// RepoAlreadyExists if .minigit already exists.
func Init(dir string, logger *logging.Logger) (*Repository, error) {
	minigitDir := filepath.Join(dir, minigitDirName)
	if _, err := os.Stat(minigitDir); err == nil {
		return nil, minigiterrors.RepoAlreadyExists(dir)
	}

	if err := os.MkdirAll(minigitDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", minigitDirName, err)
	}
	if err := os.MkdirAll(filepath.Join(minigitDir, "objects"), 0o755); err != nil {
		return nil, fmt.Errorf("creating objects directory: %w", err)
	}

	refs, err := refstore.New(minigitDir)
	if err != nil {
		return nil, err
	}
	if err := refs.WriteBranch(defaultBranch, hash.Sentinel); err != nil {
		return nil, fmt.Errorf("initializing %s: %w", defaultBranch, err)
	}
	if err := refs.SetHeadAttached(defaultBranch); err != nil {
		return nil, fmt.Errorf("initializing HEAD: %w", err)
	}

	if logger != nil {
		logger.WithCommand("init").Info("initialized repository", zap.String("root", dir))
	}

	return Open(dir, logger)
}

// Open wires an already-initialized repository at dir. Layered
// configuration (defaults, optional .minigit/config.json, MINIGIT_* env
// overrides) governs cache sizing and log level only.
func Open(dir string, logger *logging.Logger) (*Repository, error) {
	minigitDir := filepath.Join(dir, minigitDirName)
	if _, err := os.Stat(minigitDir); err != nil {
		return nil, minigiterrors.PathNotFound(minigitDir)
	}

	cfg, err := config.Load(filepath.Join(minigitDir, "config.json"))
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	if logger == nil {
		var err error
		logger, err = logging.New(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("building logger: %w", err)
		}
	}

	objects, err := objectstore.New(filepath.Join(minigitDir, "objects"), cfg.ObjectCacheSize)
	if err != nil {
		return nil, err
	}
	refs, err := refstore.New(minigitDir)
	if err != nil {
		return nil, err
	}
	commits := commit.NewStore(objects)
	cache := graphcache.Open(filepath.Join(minigitDir, cfg.GraphCacheDir, "graph.db"), cfg.GraphCacheSize, logger.Logger)
	graphStore := graph.New(commits, cache)
	merger := merge.New(commits, graphStore)

	return &Repository{
		root:       dir,
		minigitDir: minigitDir,
		cfg:        cfg,
		logger:     logger.Logger,
		objects:    objects,
		refs:       refs,
		commits:    commits,
		cache:      cache,
		graph:      graphStore,
		merger:     merger,
	}, nil
}

// Close releases the resources opened by Open (currently only the Graph
// Cache's Badger database), matching the "no background tasks" rule: the
// cache is opened and closed around each command invocation.
func (r *Repository) Close() error {
	return r.cache.Close()
}

func (r *Repository) indexPath() string {
	return filepath.Join(r.minigitDir, "index")
}

func (r *Repository) loadIndex() (*index.Index, error) {
	return index.Load(r.indexPath())
}

// currentBranch returns the branch HEAD is attached to, failing with
// DetachedHeadUnsupported otherwise.
func (r *Repository) currentBranch() (string, error) {
	head, err := r.refs.ReadHead()
	if err != nil {
		return "", fmt.Errorf("reading HEAD: %w", err)
	}
	if !head.Attached {
		return "", minigiterrors.DetachedHeadUnsupported()
	}
	return head.Branch, nil
}

// Add hashes path's current contents, stores the blob, and stages it in
// the Index under its working-directory-relative path.
func (r *Repository) Add(path string) error {
	abs := filepath.Join(r.root, path)
	content, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return minigiterrors.PathNotFound(path)
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}

	blobID, err := r.objects.Put(content)
	if err != nil {
		return fmt.Errorf("storing blob for %s: %w", path, err)
	}

	idx, err := r.loadIndex()
	if err != nil {
		return err
	}
	if err := idx.Put(filepath.ToSlash(path), blobID); err != nil {
		return err
	}
	if err := idx.Store(); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}

	r.logger.Debug("staged path", zap.String("path", path), zap.String("blob", blobID))
	return nil
}

// Commit builds a commit from the current Index, parented on the current
// branch's tip (or with no parents, if the branch has no commits yet), and
// advances the branch. It is a no-op if the Index already matches the
// parent's file set.
func (r *Repository) Commit(message string) (id string, created bool, err error) {
	branch, err := r.currentBranch()
	if err != nil {
		return "", false, err
	}

	parent, err := r.refs.ReadBranch(branch)
	if err != nil {
		return "", false, fmt.Errorf("reading branch %s: %w", branch, err)
	}

	idx, err := r.loadIndex()
	if err != nil {
		return "", false, err
	}
	files := idx.Entries()

	var parents []string
	if !hash.IsSentinel(parent) {
		parentRecord, err := r.commits.Load(parent)
		if err != nil {
			return "", false, fmt.Errorf("loading parent commit: %w", err)
		}
		if index.Equal(parentRecord.Files, files) {
			return parent, false, nil
		}
		parents = []string{parent}
	}

	record := commit.Record{
		Parents:   parents,
		Timestamp: commit.Now(),
		Message:   message,
		Files:     files,
	}
	newID, err := r.commits.Save(record)
	if err != nil {
		return "", false, err
	}
	if err := r.refs.WriteBranch(branch, newID); err != nil {
		return "", false, fmt.Errorf("advancing branch %s: %w", branch, err)
	}
	r.cache.Put(newID, graphcache.Header{Parents: record.Parents, Timestamp: record.Timestamp})

	r.logger.Info("created commit", zap.String("id", newID), zap.String("branch", branch))
	return newID, true, nil
}

// LogEntry is a single first-parent-chain entry as printed by `log`.
type LogEntry struct {
	ID        string
	Timestamp string
	Message   string
}

// Log walks HEAD's first-parent chain, most recent first. Returns a nil
// slice, not an error, when HEAD is still the sentinel.
func (r *Repository) Log() ([]LogEntry, error) {
	current, err := r.refs.ResolveHead()
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}
	if hash.IsSentinel(current) {
		return nil, nil
	}

	var entries []LogEntry
	for !hash.IsSentinel(current) && current != "" {
		record, err := r.commits.Load(current)
		if err != nil {
			return nil, fmt.Errorf("loading commit %s: %w", current, err)
		}
		entries = append(entries, LogEntry{ID: current, Timestamp: record.Timestamp, Message: record.Message})
		if len(record.Parents) == 0 {
			break
		}
		current = record.Parents[0]
	}
	return entries, nil
}

// Branch creates a new branch pointing at HEAD's current commit. Fails
// with BranchExists if the name is taken, or EmptyRepository if HEAD has
// no commits yet.
func (r *Repository) Branch(name string) error {
	if !pathutil.ValidRefName(name) {
		return minigiterrors.InvalidPath(name)
	}
	if r.refs.BranchExists(name) {
		return minigiterrors.BranchExists(name)
	}

	head, err := r.refs.ResolveHead()
	if err != nil {
		return fmt.Errorf("resolving HEAD: %w", err)
	}
	if hash.IsSentinel(head) {
		return minigiterrors.EmptyRepository()
	}

	if err := r.refs.WriteBranch(name, head); err != nil {
		return fmt.Errorf("creating branch %s: %w", name, err)
	}
	r.logger.Info("created branch", zap.String("name", name), zap.String("at", head))
	return nil
}

// Checkout resolves revision as a branch name (attached checkout) or a raw
// commit id (detached checkout), then materializes it into the working
// directory.
func (r *Repository) Checkout(revision string) error {
	var targetID string
	attached := false

	if r.refs.BranchExists(revision) {
		id, err := r.refs.ReadBranch(revision)
		if err != nil {
			return fmt.Errorf("reading branch %s: %w", revision, err)
		}
		targetID = id
		attached = true
	} else if r.commits.Exists(revision) {
		targetID = revision
	} else {
		return minigiterrors.UnknownRevision(revision)
	}

	idx, err := r.loadIndex()
	if err != nil {
		return err
	}
	sync := worktree.New(r.root, r.objects, r.commits, idx)

	if !hash.IsSentinel(targetID) {
		if err := sync.Materialize(targetID); err != nil {
			return fmt.Errorf("checking out %s: %w", revision, err)
		}
	}

	if attached {
		err = r.refs.SetHeadAttached(revision)
	} else {
		err = r.refs.SetHeadDetached(targetID)
	}
	if err != nil {
		return fmt.Errorf("updating HEAD: %w", err)
	}

	r.logger.Info("checked out", zap.String("revision", revision), zap.Bool("attached", attached))
	return nil
}

// Merge merges other into HEAD's current branch. See merge.Result for the
// possible outcomes; a non-empty Conflicts list means nothing was written.
func (r *Repository) Merge(other string) (merge.Result, error) {
	branch, err := r.currentBranch()
	if err != nil {
		return merge.Result{}, err
	}
	if !r.refs.BranchExists(other) {
		return merge.Result{}, minigiterrors.BranchMissing(other)
	}

	current, err := r.refs.ReadBranch(branch)
	if err != nil {
		return merge.Result{}, fmt.Errorf("reading branch %s: %w", branch, err)
	}
	otherID, err := r.refs.ReadBranch(other)
	if err != nil {
		return merge.Result{}, fmt.Errorf("reading branch %s: %w", other, err)
	}
	if hash.IsSentinel(current) || hash.IsSentinel(otherID) {
		return merge.Result{}, minigiterrors.EmptyRepository()
	}

	result, err := r.merger.Merge(current, otherID, other)
	if err != nil {
		// A MergeConflict error carries result.Conflicts; the working tree,
		// Index, and refs are left untouched (§4.9 conflict atomicity).
		return result, err
	}
	if result.UpToDate {
		return result, nil
	}

	idx, err := r.loadIndex()
	if err != nil {
		return result, err
	}
	idx.Replace(result.Files)
	if err := idx.Store(); err != nil {
		return result, fmt.Errorf("rewriting index: %w", err)
	}

	sync := worktree.New(r.root, r.objects, r.commits, idx)
	targetID := otherID
	if result.NewCommit != "" {
		targetID = result.NewCommit
	}
	if err := sync.Materialize(targetID); err != nil {
		return result, fmt.Errorf("materializing merge result: %w", err)
	}

	newTip := result.NewCommit
	if result.FastForward {
		newTip = otherID
	}
	if err := r.refs.WriteBranch(branch, newTip); err != nil {
		return result, fmt.Errorf("advancing branch %s: %w", branch, err)
	}

	r.logger.Info("merged", zap.String("other", other), zap.Bool("fast_forward", result.FastForward))
	return result, nil
}

// StatusEntry describes one path's relationship between the Index and the
// working directory.
type StatusEntry struct {
	Path string
	Kind string // "modified", "untracked", "deleted"
}

// Status diffs the Index against the working directory (not HEAD): a pure
// read that never writes the Index, refs, or working tree.
func (r *Repository) Status() ([]StatusEntry, error) {
	idx, err := r.loadIndex()
	if err != nil {
		return nil, err
	}
	staged := idx.Entries()
	seen := make(map[string]bool, len(staged))

	var entries []StatusEntry
	err = worktree.WalkWorkingTree(r.root, func(rel string) error {
		rel = filepath.ToSlash(rel)
		content, err := os.ReadFile(filepath.Join(r.root, rel))
		if err != nil {
			return fmt.Errorf("reading %s: %w", rel, err)
		}
		currentID := hash.Sum(content)

		stagedID, tracked := staged[rel]
		seen[rel] = true
		switch {
		case !tracked:
			entries = append(entries, StatusEntry{Path: rel, Kind: "untracked"})
		case stagedID != currentID:
			entries = append(entries, StatusEntry{Path: rel, Kind: "modified"})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking working directory: %w", err)
	}

	for path := range staged {
		if !seen[path] {
			entries = append(entries, StatusEntry{Path: path, Kind: "deleted"})
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// Show loads a commit's metadata and file set. It reads through the Graph
// Cache for the parent/timestamp header (exercising its hit/miss path
// directly) and through the commit store for the full record.
func (r *Repository) Show(commitID string) (commit.Record, graphcache.Header, error) {
	record, err := r.commits.Load(commitID)
	if err != nil {
		return commit.Record{}, graphcache.Header{}, err
	}
	header, err := r.graph.Header(commitID)
	if err != nil {
		return commit.Record{}, graphcache.Header{}, err
	}
	return record, header, nil
}
