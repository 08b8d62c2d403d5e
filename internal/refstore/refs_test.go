package refstore

import (
	"path/filepath"
	"testing"

	"minigit/internal/hash"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRefStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), ".minigit"))
	require.NoError(t, err)
	return s
}

func TestHead_AttachedRoundtrip(t *testing.T) {
	s := newRefStore(t)

	require.NoError(t, s.SetHeadAttached("master"))
	head, err := s.ReadHead()
	require.NoError(t, err)
	assert.True(t, head.Attached)
	assert.Equal(t, "master", head.Branch)
}

func TestHead_DetachedRoundtrip(t *testing.T) {
	s := newRefStore(t)

	require.NoError(t, s.SetHeadDetached("abcdef0123456789"))
	head, err := s.ReadHead()
	require.NoError(t, err)
	assert.False(t, head.Attached)
	assert.Equal(t, "abcdef0123456789", head.CommitID)
}

func TestBranch_WriteReadExists(t *testing.T) {
	s := newRefStore(t)

	assert.False(t, s.BranchExists("master"))

	require.NoError(t, s.WriteBranch("master", hash.Sentinel))
	assert.True(t, s.BranchExists("master"))

	id, err := s.ReadBranch("master")
	require.NoError(t, err)
	assert.Equal(t, hash.Sentinel, id)

	require.NoError(t, s.WriteBranch("master", "1111111111111111"))
	id, err = s.ReadBranch("master")
	require.NoError(t, err)
	assert.Equal(t, "1111111111111111", id)
}

func TestResolveHead_AttachedFollowsBranch(t *testing.T) {
	s := newRefStore(t)

	require.NoError(t, s.WriteBranch("master", "2222222222222222"))
	require.NoError(t, s.SetHeadAttached("master"))

	id, err := s.ResolveHead()
	require.NoError(t, err)
	assert.Equal(t, "2222222222222222", id)
}

func TestResolveHead_Detached(t *testing.T) {
	s := newRefStore(t)

	require.NoError(t, s.SetHeadDetached("3333333333333333"))
	id, err := s.ResolveHead()
	require.NoError(t, err)
	assert.Equal(t, "3333333333333333", id)
}

func TestBranchPath_RejectsTraversal(t *testing.T) {
	s := newRefStore(t)

	err := s.WriteBranch("../../escape", "1111111111111111")
	assert.Error(t, err)
}
