package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum_Deterministic(t *testing.T) {
	a := Sum([]byte("hello\n"))
	b := Sum([]byte("hello\n"))
	require.Equal(t, a, b)
}

func TestSum_DiffersOnContent(t *testing.T) {
	assert.NotEqual(t, Sum([]byte("hello\n")), Sum([]byte("hello2\n")))
}

func TestSum_FixedWidth(t *testing.T) {
	for _, in := range [][]byte{{}, []byte("x"), []byte("a very much longer input string")} {
		out := Sum(in)
		assert.Len(t, out, 16)
	}
}

func TestSum_NeverSentinelForCommonInputs(t *testing.T) {
	inputs := []string{"", "a", "hello\n", "parent abc\ntimestamp 2020\nmessage x\n"}
	for _, in := range inputs {
		assert.NotEqual(t, Sentinel, SumString(in))
	}
}

func TestSum_Golden(t *testing.T) {
	// djb2: h=5381; h = h*33 + 'a' = 5381*33+97 = 0x2b606
	assert.Equal(t, Sum([]byte{}), SumString(""))
	assert.Equal(t, "000000000002b606", Sum([]byte("a")))
}
