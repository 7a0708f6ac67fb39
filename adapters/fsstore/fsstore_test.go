package fsstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"opencm/internal/testkit"
	"opencm/internal/validate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "porters_five_forces", testkit.PorterFiveForces()))
	require.NoError(t, store.Put(ctx, "simple_chain", testkit.SimpleChain()))

	raws, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, raws, 2)

	// Listing order is file-name order.
	assert.Contains(t, raws[0].Origin, "porters_five_forces")
	assert.Contains(t, raws[1].Origin, "simple_chain")

	raw, err := store.Get(ctx, "simple_chain")
	require.NoError(t, err)
	m, diags := validate.ValidateBytes(raw.Data)
	require.NotNil(t, m, "stored document should validate: %v", diags)

	require.NoError(t, store.Delete(ctx, "simple_chain"))
	_, err = store.Get(ctx, "simple_chain")
	assert.Error(t, err)
}

func TestStore_ListIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.json"), []byte("{}"), 0o644))

	store := New(dir)
	raws, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, raws)
}

func TestLoad_ValidatesDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "porter.opencm.json")
	require.NoError(t, os.WriteFile(path, testkit.PorterFiveForces(), 0o644))

	m, diags, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, m, "diagnostics: %v", diags)
	assert.Equal(t, "porters_five_forces", m.ID.String())

	_, _, err = Load(filepath.Join(dir, "missing.opencm.json"))
	assert.Error(t, err)
}
