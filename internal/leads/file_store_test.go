package leads

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "data", "leads.json"))

	all, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestFileStore_EmptyFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.json")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	all, err := NewFileStore(path).LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFileStore_AppendPreservesOrder(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "leads.json")
	store := NewFileStore(path)

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.Append(ctx, sampleLead(i)))
	}

	all, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, l := range all {
		assert.Equal(t, sampleLead(i+1), l)
	}

	// A fresh store over the same file sees the same data.
	reopened, err := NewFileStore(path).LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, all, reopened)
}

func TestFileStore_WritesIndentedJSONArray(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "leads.json")
	store := NewFileStore(path)
	require.NoError(t, store.Append(ctx, sampleLead(1)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  {\n")

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "lead-1", raw[0]["id"])
	assert.Equal(t, "new", raw[0]["status"])
	assert.Equal(t, "2025-03-01T12:00:01Z", raw[0]["createdAt"])
	assert.NotContains(t, raw[0], "company", "empty optional fields are omitted")
}

func TestFileStore_DuplicateIDLeavesFileUntouched(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "leads.json")
	store := NewFileStore(path)
	require.NoError(t, store.Append(ctx, sampleLead(1)))

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.ErrorIs(t, store.Append(ctx, sampleLead(1)), ErrDuplicateLead)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFileStore_CorruptFileIsAnError(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "leads.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	store := NewFileStore(path)

	_, err := store.LoadAll(ctx)
	assert.Error(t, err)

	assert.Error(t, store.Append(ctx, sampleLead(1)))
	data, _ := os.ReadFile(path)
	assert.Equal(t, "{not json", string(data), "a failed append must not overwrite existing content")
}

func TestFileStore_UnwritableDirectoryFails(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	store := NewFileStore(filepath.Join(blocker, "leads.json"))
	assert.Error(t, store.Append(context.Background(), sampleLead(1)))
}

func TestFileStore_NoTempFilesLeftBehind(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "leads.json"))
	require.NoError(t, store.Append(ctx, sampleLead(1)))
	require.NoError(t, store.Append(ctx, sampleLead(2)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "leads.json", entries[0].Name())
}
