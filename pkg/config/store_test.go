package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)

	data, err := store.GetSection(SectionIDLLM)
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.False(t, store.IsModified())
	assert.Equal(t, path, store.Path())
}

func TestFileStore_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.SetSection(SectionIDLLM, map[string]interface{}{
		"model":   "gpt-4o",
		"api_key": "sk-test",
	}))
	assert.True(t, store.IsModified())
	require.NoError(t, store.Save())
	assert.False(t, store.IsModified())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reloaded, err := NewFileStore(path)
	require.NoError(t, err)
	data, err := reloaded.GetSection(SectionIDLLM)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", data["model"])
	assert.Equal(t, "sk-test", data["api_key"])
}

func TestFileStore_SectionsAreCopied(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	in := map[string]interface{}{"username": "alice"}
	require.NoError(t, store.SetSection(SectionIDGrid, in))
	in["username"] = "mallory"

	out, err := store.GetSection(SectionIDGrid)
	require.NoError(t, err)
	assert.Equal(t, "alice", out["username"])

	out["username"] = "eve"
	again, err := store.GetSection(SectionIDGrid)
	require.NoError(t, err)
	assert.Equal(t, "alice", again["username"])
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewFileStore(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode config file")
}
