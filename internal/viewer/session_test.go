package viewer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamemaps/viewer/internal/api"
	"github.com/gamemaps/viewer/internal/config"
	"github.com/gamemaps/viewer/internal/datasource"
	"github.com/gamemaps/viewer/internal/logging"
	"github.com/gamemaps/viewer/internal/persist"
	"github.com/gamemaps/viewer/internal/storage/memory"
)

var bundle = map[string]string{
	"/data/maps.yaml": `
version: 1
maps:
  - {id: abyss, name: abyss, type: dark, tileWidth: 256, tileHeight: 256, tilesCountX: 2, tilesCountY: 2, order: 2}
  - {id: world, name: world, type: light, tileWidth: 256, tileHeight: 256, tilesCountX: 4, tilesCountY: 2, order: 1}
`,
	"/data/types.yaml": `
version: 1
categories:
  - id: locations
    name: locations
    icon: UI/Icon/Location_Light.png
    subtypes:
      - {id: tpPoint, name: tpPoint, category: locations}
      - {id: chest, name: chest, category: locations, canComplete: true}
`,
	"/data/markers/world.yaml": `
locations:
  tpPoint:
    tp1: {position: [100, 200]}
  chest:
    c1: {position: [10, 20]}
    c2: {position: [30, 40]}
`,
	"/locales/en/common.yaml":         "unknownMarker: Unknown\n",
	"/locales/en/types.yaml":          "subtypes:\n  chest:\n    name: Chest\n",
	"/locales/en/markers/world.yaml":  "c1:\n  name: Hidden chest\n",
	"/api/data/maps.yaml":             "version: 1\nmaps:\n  - {id: world, name: world, tileWidth: 256, tileHeight: 256, tilesCountX: 1, tilesCountY: 1}\n",
	"/api/data/types.yaml":            "version: 1\ncategories: []\n",
	"/api/data/markers/world.yaml":    "{}\n",
	"/locales/zh-CN/common.yaml":      "unknownMarker: 未知\n",
	"/locales/zh-CN/maps.yaml":        "world: 世界\n",
	"/locales/zh-CN/types.yaml":       "subtypes:\n  chest:\n    name: 宝箱\n",
}

type fixture struct {
	session *Session
	writer  *persist.Writer
	backend *memory.Backend
	source  *datasource.Source
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bundle[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	source := datasource.New(datasource.Config{CDNPrefix: server.URL, BasePath: "/", APIBaseURL: server.URL + "/api"})
	backend := memory.New()
	writer, err := persist.New(backend, logging.NewKVLogger(logging.NewZerolog(io.Discard, "info")))
	require.NoError(t, err)
	t.Cleanup(writer.Close)

	s := New(Dependencies{
		Source:   source,
		Client:   api.New(source, "r1"),
		Prefs:    writer,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Build:    config.BuildInfo{Time: "2026-01-01", Revision: "r1"},
		Language: "en",
	})
	t.Cleanup(s.Close)
	s.Start(context.Background())
	return &fixture{session: s, writer: writer, backend: backend, source: source}
}

func TestStart_LoadsSortedMaps(t *testing.T) {
	f := newFixture(t)
	maps := f.session.Maps()
	require.Len(t, maps, 2)
	assert.Equal(t, "world", maps[0].ID)
	assert.False(t, f.session.Loading())
	assert.Len(t, f.session.Categories(), 1)
}

func TestSelectMap_Unknown(t *testing.T) {
	f := newFixture(t)
	err := f.session.SelectMap(context.Background(), "nowhere")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Empty(t, f.session.SelectedMap())
}

func TestRender_SelectedMap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.session.SelectMap(ctx, "world"))
	f.session.Wait()

	frame, err := f.session.Render()
	require.NoError(t, err)
	assert.Equal(t, "world", frame.Map.ID)
	assert.Equal(t, 1024.0, frame.Width)
	assert.Equal(t, 512.0, frame.Height)
	assert.Equal(t, map[string]int{"tpPoint": 1, "chest": 2}, frame.Counts)
	assert.False(t, frame.Loading)
	require.Len(t, frame.Markers, 3)

	byID := map[string]string{}
	for _, m := range frame.Markers {
		byID[m.ID] = m.Label
	}
	assert.Equal(t, "Hidden chest", byID["c1"])
	assert.Equal(t, "Chest", byID["c2"])
}

func TestRender_NoSelection(t *testing.T) {
	f := newFixture(t)
	_, err := f.session.Render()
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestToggleSubtype_PersistsPerMap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.session.SelectMap(ctx, "world"))
	f.session.Wait()

	assert.False(t, f.session.ToggleSubtype("chest"))
	require.NoError(t, f.writer.Flush(ctx))

	stored, ok, err := f.backend.Get("gamemap.visibleSubtypes.v1.world")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `["tpPoint"]`, stored)

	frame, err := f.session.Render()
	require.NoError(t, err)
	require.Len(t, frame.Markers, 1)
	assert.Equal(t, "tp1", frame.Markers[0].ID)

	// other maps keep their own state
	require.NoError(t, f.session.SelectMap(ctx, "abyss"))
	f.session.Wait()
	assert.Equal(t, []string{"tpPoint", "chest"}, f.session.VisibleSubtypes())

	require.NoError(t, f.session.SelectMap(ctx, "world"))
	f.session.Wait()
	assert.Equal(t, []string{"tpPoint"}, f.session.VisibleSubtypes())
}

func TestSetCategory(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.session.SelectMap(context.Background(), "world"))
	f.session.Wait()

	require.NoError(t, f.session.SetCategory("locations", false))
	assert.Empty(t, f.session.VisibleSubtypes())
	require.NoError(t, f.session.SetCategory("locations", true))
	assert.Len(t, f.session.VisibleSubtypes(), 2)

	assert.Error(t, f.session.SetCategory("nope", true))
}

func TestShowAllHideAll(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.session.SelectMap(context.Background(), "world"))
	f.session.Wait()

	f.session.HideAll()
	frame, err := f.session.Render()
	require.NoError(t, err)
	assert.Empty(t, frame.Markers)

	f.session.ShowAll()
	frame, err = f.session.Render()
	require.NoError(t, err)
	assert.Len(t, frame.Markers, 3)
}

func TestToggleCompleted(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.session.SelectMap(context.Background(), "world"))
	f.session.Wait()

	done, err := f.session.ToggleCompleted("c1")
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, []string{"c1"}, f.session.Completed())

	frame, err := f.session.Render()
	require.NoError(t, err)
	assert.Equal(t, 1, frame.Completed)

	_, err = f.session.ToggleCompleted("tp1")
	assert.Error(t, err, "tpPoint cannot be completed")
	_, err = f.session.ToggleCompleted("missing")
	assert.Error(t, err)
}

func TestSelectFromURL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.session.SelectFromURL(ctx, "https://maps.example/?map=abyss")
	require.NoError(t, err)
	assert.Equal(t, "abyss", id)

	id, err = f.session.SelectFromURL(ctx, "https://maps.example/?map=bogus")
	require.NoError(t, err)
	assert.Equal(t, "world", id)

	share, err := f.session.ShareURL("https://maps.example/?lang=en")
	require.NoError(t, err)
	assert.True(t, strings.Contains(share, "map=world"))
}

func TestTileURL(t *testing.T) {
	f := newFixture(t)
	_, ok := f.session.TileURL(0, 0)
	assert.False(t, ok)

	require.NoError(t, f.session.SelectMap(context.Background(), "world"))
	u, ok := f.session.TileURL(0, 0)
	require.True(t, ok)
	assert.Contains(t, u, "UI/Map/WorldMap/world/Res/world_00_00.png")

	_, ok = f.session.TileURL(4, 0)
	assert.False(t, ok)
}

func TestSetDataMode_ReloadsAndKeepsSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.session.SelectMap(ctx, "world"))
	f.session.Wait()

	require.NoError(t, f.session.SetDataMode(ctx, datasource.Dynamic))
	f.session.Wait()

	assert.Equal(t, "dynamic", f.session.Info().DataMode)
	require.Len(t, f.session.Maps(), 1)
	assert.Equal(t, "world", f.session.SelectedMap())
	assert.Empty(t, f.session.Markers())
}

func TestSetDataMode_DropsVanishedMap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.session.SelectMap(ctx, "abyss"))
	f.session.Wait()

	require.NoError(t, f.session.SetDataMode(ctx, datasource.Dynamic))
	assert.Empty(t, f.session.SelectedMap())
}

func TestInfoAndLogAttrs(t *testing.T) {
	f := newFixture(t)
	info := f.session.Info()
	assert.Equal(t, "2026-01-01", info.BuildTime)
	assert.Equal(t, "r1", info.Revision)
	assert.Equal(t, "static", info.DataMode)
	assert.Equal(t, "en", info.Language)

	attrs := f.session.LogAttrs()
	require.Len(t, attrs, 2)
	assert.Equal(t, "selectedMap", attrs[0].Key)
}

func TestSetLanguage(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.session.SetLanguage(context.Background(), "zh-CN"))
	assert.Equal(t, "zh-CN", f.session.Info().Language)
	assert.Equal(t, "未知", f.session.Translate("common:unknownMarker", "x"))
}
