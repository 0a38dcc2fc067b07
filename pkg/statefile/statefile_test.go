package statefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func tempStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	store, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	return store, path
}

func TestOpen_MissingFileStartsEmpty(t *testing.T) {
	store, _ := tempStore(t)

	var out []string
	assert.False(t, store.Get("anything", &out))
}

func TestSetGet_RoundTrip(t *testing.T) {
	store, path := tempStore(t)

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, store.Set("key", payload{Name: "dapur", Count: 3}))

	// Reload from disk to prove persistence, not just in-memory state
	reloaded, err := Open(path, zap.NewNop())
	require.NoError(t, err)

	var out payload
	require.True(t, reloaded.Get("key", &out))
	assert.Equal(t, payload{Name: "dapur", Count: 3}, out)
}

func TestOpen_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	store, err := Open(path, zap.NewNop())
	require.NoError(t, err)

	var out []string
	assert.False(t, store.Get("anything", &out))

	// Writing after recovery works normally
	require.NoError(t, store.Set("fresh", []string{"a"}))
	require.True(t, store.Get("fresh", &out))
	assert.Equal(t, []string{"a"}, out)
}

func TestGet_CorruptValueTreatedAsAbsent(t *testing.T) {
	store, path := tempStore(t)
	require.NoError(t, store.Set("key", "a string"))

	reloaded, err := Open(path, zap.NewNop())
	require.NoError(t, err)

	var out []int // wrong shape for the stored value
	assert.False(t, reloaded.Get("key", &out))
}

func TestSet_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "state.json")
	store, err := Open(path, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, store.Set("k", true))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
