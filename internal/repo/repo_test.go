package repo

import (
	"os"
	"path/filepath"
	"testing"

	minigiterrors "minigit/internal/errors"
	"minigit/internal/hash"
	"minigit/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
}

func initRepo(t *testing.T) (string, *Repository) {
	t.Helper()
	root := t.TempDir()
	r, err := Init(root, logging.Noop())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return root, r
}

func TestInit_FailsOverExisting(t *testing.T) {
	root, _ := initRepo(t)
	_, err := Init(root, logging.Noop())
	require.Error(t, err)
	var target *minigiterrors.Error
	require.ErrorAs(t, err, &target)
	assert.Equal(t, minigiterrors.KindRepoAlreadyExists, target.Kind)
}

// Scenario 1: init + first commit.
func TestScenario_InitAndFirstCommit(t *testing.T) {
	root, r := initRepo(t)
	writeFile(t, root, "a.txt", "hello\n")
	require.NoError(t, r.Add("a.txt"))

	h1, created, err := r.Commit("first")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, hash.Sentinel, h1)

	record, _, err := r.Show(h1)
	require.NoError(t, err)
	assert.Empty(t, record.Parents)
	assert.Equal(t, map[string]string{"a.txt": hash.Sum([]byte("hello\n"))}, record.Files)
}

// Scenario 2: two linear commits, log order.
func TestScenario_LinearLog(t *testing.T) {
	root, r := initRepo(t)
	writeFile(t, root, "a.txt", "hello\n")
	require.NoError(t, r.Add("a.txt"))
	h1, _, err := r.Commit("first")
	require.NoError(t, err)

	writeFile(t, root, "a.txt", "hello2\n")
	require.NoError(t, r.Add("a.txt"))
	h2, _, err := r.Commit("second")
	require.NoError(t, err)

	entries, err := r.Log()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, h2, entries[0].ID)
	assert.Equal(t, "second", entries[0].Message)
	assert.Equal(t, h1, entries[1].ID)
	assert.Equal(t, "first", entries[1].Message)

	record, _, err := r.Show(h2)
	require.NoError(t, err)
	assert.Equal(t, []string{h1}, record.Parents)
}

// Scenario 3: branch + divergent commits.
func TestScenario_BranchAndDivergentCommits(t *testing.T) {
	root, r := initRepo(t)
	writeFile(t, root, "a.txt", "hello\n")
	require.NoError(t, r.Add("a.txt"))
	h1, _, err := r.Commit("first")
	require.NoError(t, err)

	require.NoError(t, r.Branch("feature"))

	writeFile(t, root, "b.txt", "m\n")
	require.NoError(t, r.Add("b.txt"))
	m1, _, err := r.Commit("master change")
	require.NoError(t, err)

	require.NoError(t, r.Checkout("feature"))
	writeFile(t, root, "c.txt", "f\n")
	require.NoError(t, r.Add("c.txt"))
	f1, _, err := r.Commit("feature change")
	require.NoError(t, err)

	lca, err := r.graph.FindLCA(m1, f1)
	require.NoError(t, err)
	assert.Equal(t, h1, lca)

	_, err = os.Stat(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "c.txt"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "b.txt"))
	assert.True(t, os.IsNotExist(err))
}

// Scenario 4: fast-forward merge.
func TestScenario_FastForwardMerge(t *testing.T) {
	root, r := initRepo(t)
	writeFile(t, root, "a.txt", "hello\n")
	require.NoError(t, r.Add("a.txt"))
	_, _, err := r.Commit("first")
	require.NoError(t, err)

	require.NoError(t, r.Branch("feature"))
	require.NoError(t, r.Checkout("feature"))
	writeFile(t, root, "c.txt", "f\n")
	require.NoError(t, r.Add("c.txt"))
	f1, _, err := r.Commit("feature change")
	require.NoError(t, err)

	require.NoError(t, r.Checkout("master"))
	result, err := r.Merge("feature")
	require.NoError(t, err)
	assert.True(t, result.FastForward)
	assert.Empty(t, result.NewCommit)

	tip, err := r.refs.ReadBranch("master")
	require.NoError(t, err)
	assert.Equal(t, f1, tip)
}

// Scenario 5: three-way clean merge.
func TestScenario_ThreeWayCleanMerge(t *testing.T) {
	root, r := initRepo(t)
	writeFile(t, root, "a.txt", "hello\n")
	require.NoError(t, r.Add("a.txt"))
	h1, _, err := r.Commit("first")
	require.NoError(t, err)

	require.NoError(t, r.Branch("feature"))

	writeFile(t, root, "b.txt", "m\n")
	require.NoError(t, r.Add("b.txt"))
	m1, _, err := r.Commit("master change")
	require.NoError(t, err)

	require.NoError(t, r.Checkout("feature"))
	writeFile(t, root, "c.txt", "f\n")
	require.NoError(t, r.Add("c.txt"))
	f1, _, err := r.Commit("feature change")
	require.NoError(t, err)

	require.NoError(t, r.Checkout("master"))
	result, err := r.Merge("feature")
	require.NoError(t, err)
	require.NotEmpty(t, result.NewCommit)

	record, _, err := r.Show(result.NewCommit)
	require.NoError(t, err)
	assert.Equal(t, []string{m1, f1}, record.Parents)
	assert.Equal(t, "Merge branch feature", record.Message)
	assert.Equal(t, map[string]string{
		"a.txt": hash.Sum([]byte("hello\n")),
		"b.txt": hash.Sum([]byte("m\n")),
		"c.txt": hash.Sum([]byte("f\n")),
	}, record.Files)
	_ = h1
}

// Scenario 6: conflict.
func TestScenario_Conflict(t *testing.T) {
	root, r := initRepo(t)
	writeFile(t, root, "a.txt", "hello\n")
	require.NoError(t, r.Add("a.txt"))
	_, _, err := r.Commit("first")
	require.NoError(t, err)

	require.NoError(t, r.Branch("feature"))

	writeFile(t, root, "a.txt", "X\n")
	require.NoError(t, r.Add("a.txt"))
	_, _, err = r.Commit("master edits a")
	require.NoError(t, err)

	require.NoError(t, r.Checkout("feature"))
	writeFile(t, root, "a.txt", "Y\n")
	require.NoError(t, r.Add("a.txt"))
	_, _, err = r.Commit("feature edits a")
	require.NoError(t, err)

	require.NoError(t, r.Checkout("master"))
	masterBefore, err := r.refs.ReadBranch("master")
	require.NoError(t, err)

	result, err := r.Merge("feature")
	require.Error(t, err)
	var target *minigiterrors.Error
	require.ErrorAs(t, err, &target)
	assert.Equal(t, minigiterrors.KindMergeConflict, target.Kind)
	assert.Equal(t, []string{"a.txt"}, result.Conflicts)
	assert.Equal(t, []string{"a.txt"}, target.Conflicts)

	masterAfter, err := r.refs.ReadBranch("master")
	require.NoError(t, err)
	assert.Equal(t, masterBefore, masterAfter)

	data, err := os.ReadFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "X\n", string(data))
}

func TestCommit_NoOpWhenIndexMatchesParent(t *testing.T) {
	root, r := initRepo(t)
	writeFile(t, root, "a.txt", "hello\n")
	require.NoError(t, r.Add("a.txt"))
	h1, created, err := r.Commit("first")
	require.NoError(t, err)
	require.True(t, created)

	// Re-staging identical content and committing again must be a no-op.
	require.NoError(t, r.Add("a.txt"))
	h2, created, err := r.Commit("first again")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, h1, h2)
}

func TestCheckout_Idempotent(t *testing.T) {
	root, r := initRepo(t)
	writeFile(t, root, "a.txt", "hello\n")
	require.NoError(t, r.Add("a.txt"))
	h1, _, err := r.Commit("first")
	require.NoError(t, err)

	require.NoError(t, r.Checkout(h1))
	require.NoError(t, r.Checkout(h1))

	data, err := os.ReadFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestAdd_MissingPath(t *testing.T) {
	_, r := initRepo(t)
	err := r.Add("does-not-exist.txt")
	require.Error(t, err)
	var target *minigiterrors.Error
	require.ErrorAs(t, err, &target)
	assert.Equal(t, minigiterrors.KindPathNotFound, target.Kind)
}

func TestStatus_DetectsUntrackedModifiedAndDeleted(t *testing.T) {
	root, r := initRepo(t)
	writeFile(t, root, "a.txt", "hello\n")
	require.NoError(t, r.Add("a.txt"))
	_, _, err := r.Commit("first")
	require.NoError(t, err)

	writeFile(t, root, "a.txt", "changed\n")
	writeFile(t, root, "new.txt", "new\n")
	require.NoError(t, os.Remove(filepath.Join(root, "a.txt")))
	writeFile(t, root, "a.txt", "changed\n")

	// Stage b.txt, then remove it from the working tree.
	writeFile(t, root, "b.txt", "b\n")
	require.NoError(t, r.Add("b.txt"))
	require.NoError(t, os.Remove(filepath.Join(root, "b.txt")))

	entries, err := r.Status()
	require.NoError(t, err)

	byPath := make(map[string]string)
	for _, e := range entries {
		byPath[e.Path] = e.Kind
	}
	assert.Equal(t, "modified", byPath["a.txt"])
	assert.Equal(t, "untracked", byPath["new.txt"])
	assert.Equal(t, "deleted", byPath["b.txt"])
}

func TestBranch_FailsWhenEmptyRepository(t *testing.T) {
	_, r := initRepo(t)
	err := r.Branch("feature")
	require.Error(t, err)
	var target *minigiterrors.Error
	require.ErrorAs(t, err, &target)
	assert.Equal(t, minigiterrors.KindEmptyRepository, target.Kind)
}

func TestCommit_FailsWhenDetached(t *testing.T) {
	root, r := initRepo(t)
	writeFile(t, root, "a.txt", "hello\n")
	require.NoError(t, r.Add("a.txt"))
	h1, _, err := r.Commit("first")
	require.NoError(t, err)

	require.NoError(t, r.Checkout(h1))
	_, _, err = r.Commit("second")
	require.Error(t, err)
	var target *minigiterrors.Error
	require.ErrorAs(t, err, &target)
	assert.Equal(t, minigiterrors.KindDetachedHeadUnsupported, target.Kind)
}

func TestCheckout_UnknownRevision(t *testing.T) {
	_, r := initRepo(t)
	err := r.Checkout("does-not-exist")
	require.Error(t, err)
	var target *minigiterrors.Error
	require.ErrorAs(t, err, &target)
	assert.Equal(t, minigiterrors.KindUnknownRevision, target.Kind)
}
