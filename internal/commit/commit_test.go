package commit

import (
	"path/filepath"
	"testing"

	"minigit/internal/hash"
	"minigit/internal/objectstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialize_CanonicalOrder(t *testing.T) {
	r := Record{
		Parents:   []string{"p1", "p2"},
		Timestamp: "2024-01-02T03:04:05",
		Message:   "hello",
		Files:     map[string]string{"z.txt": "z", "a.txt": "a"},
	}
	got := string(Serialize(r))
	want := "parent p1\nparent p2\ntimestamp 2024-01-02T03:04:05\nmessage hello\na.txt:a\nz.txt:z\n"
	assert.Equal(t, want, got)
}

func TestID_IsHashOfSerialization(t *testing.T) {
	r := Record{Timestamp: "2024-01-02T03:04:05", Message: "m", Files: map[string]string{}}
	assert.Equal(t, hash.Sum(Serialize(r)), ID(r))
}

func TestParse_RoundtripsCanonicalForm(t *testing.T) {
	r := Record{
		Parents:   []string{"p1"},
		Timestamp: "2024-01-02T03:04:05",
		Message:   "hello world",
		Files:     map[string]string{"a.txt": "aaaa", "b/c.txt": "bbbb"},
	}
	parsed, err := Parse(Serialize(r))
	require.NoError(t, err)
	assert.Equal(t, r.Parents, parsed.Parents)
	assert.Equal(t, r.Timestamp, parsed.Timestamp)
	assert.Equal(t, r.Message, parsed.Message)
	assert.Equal(t, r.Files, parsed.Files)
}

func TestParse_TolerantOfLineOrder(t *testing.T) {
	shuffled := "message m\na.txt:x\ntimestamp 2024-01-01T00:00:00\nparent p1\n"
	r, err := Parse([]byte(shuffled))
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, r.Parents)
	assert.Equal(t, "2024-01-01T00:00:00", r.Timestamp)
	assert.Equal(t, "m", r.Message)
	assert.Equal(t, "x", r.Files["a.txt"])
}

func TestStore_SaveLoadRoundtrip(t *testing.T) {
	objects, err := objectstore.New(filepath.Join(t.TempDir(), "objects"), 8)
	require.NoError(t, err)
	store := NewStore(objects)

	r := Record{Timestamp: Now(), Message: "first", Files: map[string]string{"a.txt": "1111111111111111"}}
	id, err := store.Save(r)
	require.NoError(t, err)
	assert.Equal(t, ID(r), id)

	loaded, err := store.Load(id)
	require.NoError(t, err)
	assert.Equal(t, r.Files, loaded.Files)
	assert.Equal(t, r.Message, loaded.Message)
}

func TestStore_RejectsMultilineMessage(t *testing.T) {
	objects, err := objectstore.New(filepath.Join(t.TempDir(), "objects"), 8)
	require.NoError(t, err)
	store := NewStore(objects)

	_, err = store.Save(Record{Timestamp: Now(), Message: "line1\nline2", Files: map[string]string{}})
	assert.Error(t, err)
}
