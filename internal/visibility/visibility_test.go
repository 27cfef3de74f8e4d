package visibility

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	data   map[string]string
	getErr error
	puts   int
}

func newFakeStore() *fakeStore { return &fakeStore{data: map[string]string{}} }

func (f *fakeStore) Get(key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeStore) Put(key, value string) {
	f.puts++
	f.data[key] = value
}

var taxonomyIDs = []string{"tpPoint", "chest", "boss", "oculus"}

const worldKey = "gamemap.visibleSubtypes.v1.world"

func newState(store *fakeStore) (*State, *bytes.Buffer) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	return New(store, "gamemap", log), &buf
}

func TestRestore_AbsentSelectsAll(t *testing.T) {
	s, _ := newState(newFakeStore())
	s.Restore("world", taxonomyIDs)

	assert.True(t, s.Initialized())
	assert.Equal(t, taxonomyIDs, s.IDs())
}

func TestRestore_IntersectsWithTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		want   []string
	}{
		{"subset", `["boss","tpPoint"]`, []string{"tpPoint", "boss"}},
		{"stale ids dropped", `["chest","removedType"]`, []string{"chest"}},
		{"empty", `[]`, []string{}},
		{"only stale", `["gone"]`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.data[worldKey] = tt.stored

			s, _ := newState(store)
			s.Restore("world", taxonomyIDs)
			assert.Equal(t, tt.want, s.IDs())
		})
	}
}

func TestRestore_MalformedSelectsAllAndLogs(t *testing.T) {
	for _, stored := range []string{`not json`, `{"a":true}`, `null`, `[1,2]`} {
		store := newFakeStore()
		store.data[worldKey] = stored

		s, buf := newState(store)
		s.Restore("world", taxonomyIDs)

		assert.Equal(t, taxonomyIDs, s.IDs(), stored)
		assert.Contains(t, buf.String(), "Ignoring stored visibility", stored)
	}
}

func TestRestore_StorageErrorSelectsAll(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("storage unavailable")

	s, buf := newState(store)
	s.Restore("world", taxonomyIDs)

	assert.Equal(t, taxonomyIDs, s.IDs())
	assert.Contains(t, buf.String(), "storage unavailable")
}

func TestRestore_DoesNotWrite(t *testing.T) {
	store := newFakeStore()
	s, _ := newState(store)
	s.Restore("world", taxonomyIDs)
	assert.Equal(t, 0, store.puts)
}

func TestRestore_EmptyMapResets(t *testing.T) {
	s, _ := newState(newFakeStore())
	s.Restore("world", taxonomyIDs)
	s.Restore("", taxonomyIDs)

	assert.False(t, s.Initialized())
	assert.Empty(t, s.IDs())
	assert.False(t, s.Toggle("chest"))
}

func TestToggle_Involution(t *testing.T) {
	store := newFakeStore()
	store.data[worldKey] = `["tpPoint","boss"]`

	s, _ := newState(store)
	s.Restore("world", taxonomyIDs)
	before := s.IDs()

	for _, id := range taxonomyIDs {
		s.Toggle(id)
		s.Toggle(id)
		assert.Equal(t, before, s.IDs(), id)
	}
}

func TestToggle_PersistsFullSet(t *testing.T) {
	store := newFakeStore()
	s, _ := newState(store)
	s.Restore("world", taxonomyIDs)

	assert.False(t, s.Toggle("chest"))
	assert.JSONEq(t, `["tpPoint","boss","oculus"]`, store.data[worldKey])

	assert.True(t, s.Toggle("chest"))
	assert.JSONEq(t, `["tpPoint","chest","boss","oculus"]`, store.data[worldKey])
}

func TestToggle_UnknownIgnored(t *testing.T) {
	store := newFakeStore()
	s, _ := newState(store)
	s.Restore("world", taxonomyIDs)

	assert.False(t, s.Toggle("nope"))
	assert.False(t, s.Visible("nope"))
	assert.Equal(t, 0, store.puts)
}

func TestShowAllHideAll(t *testing.T) {
	store := newFakeStore()
	s, _ := newState(store)
	s.Restore("world", taxonomyIDs)

	s.HideAll()
	assert.Empty(t, s.IDs())
	assert.Equal(t, `[]`, store.data[worldKey])

	// hidden state survives a reload
	s.Restore("world", taxonomyIDs)
	assert.Empty(t, s.IDs())

	s.ShowAll()
	assert.Equal(t, taxonomyIDs, s.IDs())
	assert.JSONEq(t, `["tpPoint","chest","boss","oculus"]`, store.data[worldKey])
}

func TestSetMany(t *testing.T) {
	store := newFakeStore()
	s, _ := newState(store)
	s.Restore("world", taxonomyIDs)

	s.SetMany([]string{"chest", "boss", "ghost"}, false)
	assert.Equal(t, []string{"tpPoint", "oculus"}, s.IDs())
	assert.Equal(t, 1, store.puts)

	s.SetMany([]string{"boss"}, true)
	assert.True(t, s.Visible("boss"))
}

func TestMapsAreIndependent(t *testing.T) {
	store := newFakeStore()
	s, _ := newState(store)

	s.Restore("world", taxonomyIDs)
	s.HideAll()

	s.Restore("abyss", taxonomyIDs)
	assert.Equal(t, taxonomyIDs, s.IDs())
	assert.Equal(t, "abyss", s.MapID())

	_, ok := store.data["gamemap.visibleSubtypes.v1.abyss"]
	assert.False(t, ok)
}

func TestRestore_WithNewTaxonomy(t *testing.T) {
	store := newFakeStore()
	s, _ := newState(store)

	// taxonomy not loaded yet
	s.Restore("world", nil)
	require.True(t, s.Initialized())
	assert.Empty(t, s.IDs())

	s.Restore("world", taxonomyIDs)
	assert.Equal(t, taxonomyIDs, s.IDs())
}
