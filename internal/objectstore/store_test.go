package objectstore

import (
	"os"
	"path/filepath"
	"testing"

	"minigit/internal/hash"

	minigiterrors "minigit/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "objects"), 8)
	require.NoError(t, err)
	return s
}

func TestStore_PutGetRoundtrip(t *testing.T) {
	s := newStore(t)

	id, err := s.Put([]byte("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, hash.SumString("hello\n"), id)

	got, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello\n"), got)
}

func TestStore_PutIsIdempotent(t *testing.T) {
	s := newStore(t)

	id1, err := s.Put([]byte("same content"))
	require.NoError(t, err)
	id2, err := s.Put([]byte("same content"))
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	entries, err := os.ReadDir(s.root)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_PutEmptyContent(t *testing.T) {
	s := newStore(t)

	id, err := s.Put(nil)
	require.NoError(t, err)

	got, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []byte{}, got)
}

func TestStore_GetMissing(t *testing.T) {
	s := newStore(t)

	_, err := s.Get("deadbeefdeadbeef")
	require.Error(t, err)
	var mgErr *minigiterrors.Error
	require.ErrorAs(t, err, &mgErr)
	assert.Equal(t, minigiterrors.KindObjectMissing, mgErr.Kind)
}

func TestStore_Exists(t *testing.T) {
	s := newStore(t)

	assert.False(t, s.Exists("deadbeefdeadbeef"))

	id, err := s.Put([]byte("content"))
	require.NoError(t, err)
	assert.True(t, s.Exists(id))
}

func TestStore_NoLeftoverTempFiles(t *testing.T) {
	s := newStore(t)

	_, err := s.Put([]byte("x"))
	require.NoError(t, err)

	entries, err := os.ReadDir(s.root)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}
