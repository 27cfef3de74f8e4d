package gormstorage_test

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamemaps/viewer/internal/database"
	"github.com/gamemaps/viewer/internal/storage"
	gormstorage "github.com/gamemaps/viewer/internal/storage/gorm"
)

// Compile-time interface check
var _ storage.Backend = (*gormstorage.Backend)(nil)

func newTestBackend(t *testing.T) *gormstorage.Backend {
	t.Helper()
	db, err := database.NewManager(zerolog.Nop()).GetSqliteDB(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)

	b := gormstorage.New(db, zerolog.Nop())
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestGet_Missing(t *testing.T) {
	b := newTestBackend(t)

	v, ok, err := b.Get("gamemap.visibleSubtypes.v1.world")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "", v)
}

func TestSetGet(t *testing.T) {
	b := newTestBackend(t)

	require.NoError(t, b.Set("gamemap.visibleSubtypes.v1.world", `["tpPoint","chest"]`))

	v, ok, err := b.Get("gamemap.visibleSubtypes.v1.world")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `["tpPoint","chest"]`, v)
}

func TestSet_Overwrites(t *testing.T) {
	b := newTestBackend(t)

	require.NoError(t, b.Set("k", `["a"]`))
	require.NoError(t, b.Set("k", `["b"]`))

	v, ok, err := b.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `["b"]`, v)
}

func TestDelete(t *testing.T) {
	b := newTestBackend(t)

	require.NoError(t, b.Set("k", `[]`))
	require.NoError(t, b.Delete("k"))
	require.NoError(t, b.Delete("missing"))

	_, ok, err := b.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeysAreIndependent(t *testing.T) {
	b := newTestBackend(t)

	require.NoError(t, b.Set("gamemap.visibleSubtypes.v1.world", `["a"]`))
	require.NoError(t, b.Set("gamemap.visibleSubtypes.v1.abyss", `["b"]`))

	v, _, err := b.Get("gamemap.visibleSubtypes.v1.world")
	require.NoError(t, err)
	assert.JSONEq(t, `["a"]`, v)
}
