// Package viewer wires the data source, stores and per-map state into one
// session that a front end drives.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gamemaps/viewer/internal/api"
	"github.com/gamemaps/viewer/internal/completion"
	"github.com/gamemaps/viewer/internal/config"
	"github.com/gamemaps/viewer/internal/datasource"
	"github.com/gamemaps/viewer/internal/gamedata"
	"github.com/gamemaps/viewer/internal/geo"
	"github.com/gamemaps/viewer/internal/locale"
	"github.com/gamemaps/viewer/internal/markers"
	"github.com/gamemaps/viewer/internal/markerstore"
	"github.com/gamemaps/viewer/internal/model"
	"github.com/gamemaps/viewer/internal/persist"
	"github.com/gamemaps/viewer/internal/urlstate"
	"github.com/gamemaps/viewer/internal/viewport"
	"github.com/gamemaps/viewer/internal/visibility"
)

// ErrNotFound is returned when a map id is not in the loaded manifest.
var ErrNotFound = errors.New("map not found")

// LoadRecorder receives document load timings.
type LoadRecorder interface {
	RecordLoad(ctx context.Context, resource string, d time.Duration, items int, err error)
}

// Dependencies holds the collaborators of a Session.
type Dependencies struct {
	Source        *datasource.Source
	Client        *api.Client
	Prefs         persist.Store
	Logger        *slog.Logger
	Recorder      LoadRecorder
	Build         config.BuildInfo
	StoragePrefix string
	Language      string
}

// Info is shown in the about panel.
type Info struct {
	BuildTime string `json:"buildTime"`
	Revision  string `json:"revision"`
	DataMode  string `json:"dataMode"`
	Language  string `json:"language"`
	BaseURL   string `json:"baseUrl"`
}

// Frame is the render state of the selected map.
type Frame struct {
	Map          model.GameMapMeta       `json:"map"`
	Width        float64                 `json:"width"`
	Height       float64                 `json:"height"`
	Center       geo.LatLng              `json:"center"`
	Bounds       [2]geo.LatLng           `json:"bounds"`
	WatermarkURL string                  `json:"watermarkUrl"`
	Markers      []viewport.RenderMarker `json:"markers"`
	Counts       map[string]int          `json:"counts"`
	Completed    int                     `json:"completed"`
	Loading      bool                    `json:"loading"`
}

// Session is one viewer instance.
type Session struct {
	source  *datasource.Source
	client  *api.Client
	log     *slog.Logger
	build   config.BuildInfo
	assets  *viewport.Assets
	data    *gamedata.Store
	markers *markerstore.Store
	visible *visibility.State
	done    *completion.Set
	catalog *locale.Catalog

	unsubscribe func()

	mu       sync.RWMutex
	selected string
}

// New builds a session. Nothing is fetched until Start.
func New(deps Dependencies) *Session {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	prefix := deps.StoragePrefix
	if prefix == "" {
		prefix = "gamemap"
	}

	s := &Session{
		source:  deps.Source,
		client:  deps.Client,
		log:     log,
		build:   deps.Build,
		assets:  viewport.NewAssets(deps.Source),
		visible: visibility.New(deps.Prefs, prefix, log),
		done:    completion.New(deps.Prefs, prefix, log),
		catalog: locale.NewCatalog(deps.Client, deps.Source, deps.Language, log),
	}

	var dataOpts []gamedata.Option
	markerOpts := []markerstore.Option{
		markerstore.WithResolver(func() markers.CategoryResolver { return s.data.Taxonomy() }),
	}
	if deps.Recorder != nil {
		dataOpts = append(dataOpts, gamedata.WithRecorder(deps.Recorder))
		markerOpts = append(markerOpts, markerstore.WithRecorder(deps.Recorder))
	}
	s.data = gamedata.New(deps.Client, log, dataOpts...)
	s.markers = markerstore.New(deps.Client, log, markerOpts...)

	s.unsubscribe = deps.Source.Subscribe(s.onModeChange)
	return s
}

func (s *Session) onModeChange(m datasource.Mode) {
	s.log.Info("Data mode changed", "mode", m)
	if err := s.catalog.Reload(context.Background()); err != nil {
		s.log.Warn("Locale reload incomplete", "error", err)
	}
}

// Start loads the manifests and the default locale tables together.
func (s *Session) Start(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.data.Load(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := s.catalog.Load(ctx, locale.DefaultNamespaces...); err != nil {
			s.log.Warn("Locale load incomplete", "error", err)
		}
	}()
	wg.Wait()
}

// SelectMap switches the selected map. An empty id clears the selection.
// Marker loading continues in the background; see Wait.
func (s *Session) SelectMap(ctx context.Context, id string) error {
	if id == "" {
		s.setSelected("")
		s.visible.Restore("", nil)
		s.done.Restore("")
		s.markers.Select(ctx, "")
		return nil
	}

	m, ok := s.data.Map(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.setSelected(id)
	s.visible.Restore(id, s.data.Taxonomy().SubtypeIDs())
	s.done.Restore(id)
	s.markers.Select(ctx, id)

	if err := s.catalog.Load(ctx, locale.MarkersNamespace(m.Name)); err != nil {
		s.log.Debug("No marker names for map", "map", id, "error", err)
	}
	return nil
}

// SelectFromURL selects the map named by the URL's map parameter, or the first map.
func (s *Session) SelectFromURL(ctx context.Context, rawURL string) (string, error) {
	id := urlstate.SelectedMap(rawURL, s.data.Maps())
	return id, s.SelectMap(ctx, id)
}

// ShareURL returns rawURL pointing at the selected map.
func (s *Session) ShareURL(rawURL string) (string, error) {
	return urlstate.WithSelectedMap(rawURL, s.SelectedMap())
}

func (s *Session) setSelected(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = id
}

// SelectedMap returns the selected map id, or "".
func (s *Session) SelectedMap() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Wait blocks until pending marker loads resolve.
func (s *Session) Wait() {
	s.markers.Wait()
}

// Render composes the frame for the selected map.
func (s *Session) Render() (Frame, error) {
	id := s.SelectedMap()
	m, ok := s.data.Map(id)
	if !ok {
		return Frame{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	w, h := geo.Dimensions(m)
	return Frame{
		Map:          m,
		Width:        w,
		Height:       h,
		Center:       geo.Center(m),
		Bounds:       geo.BoundsLatLng(m),
		WatermarkURL: s.assets.WatermarkURL(),
		Markers: s.assets.Compose(viewport.Scene{
			Map:        m,
			Markers:    s.markers.Markers(),
			Visible:    s.visible,
			Taxonomy:   s.data.Taxonomy(),
			Completed:  s.done,
			Translator: s.catalog,
		}),
		Counts:    s.markers.Counts(),
		Completed: s.done.Count(),
		Loading:   s.markers.Loading(),
	}, nil
}

// TileURL resolves a background tile of the selected map in asset indices.
func (s *Session) TileURL(x, y int) (string, bool) {
	m, ok := s.data.Map(s.SelectedMap())
	if !ok {
		return "", false
	}
	return s.assets.TileURL(m, x, y)
}

// ToggleSubtype flips a subtype on the selected map.
func (s *Session) ToggleSubtype(id string) bool {
	return s.visible.Toggle(id)
}

// SetCategory shows or hides every subtype of a category.
func (s *Session) SetCategory(category string, on bool) error {
	ids := s.data.Taxonomy().SubtypeIDsOf(category)
	if ids == nil {
		return fmt.Errorf("unknown category %q", category)
	}
	s.visible.SetMany(ids, on)
	return nil
}

func (s *Session) ShowAll() { s.visible.ShowAll() }

func (s *Session) HideAll() { s.visible.HideAll() }

// ToggleCompleted flips a marker's completion. Only markers whose subtype can
// be completed are accepted.
func (s *Session) ToggleCompleted(markerID string) (bool, error) {
	for _, m := range s.markers.Markers() {
		if m.ID != markerID {
			continue
		}
		sub, ok := s.data.Taxonomy().Subtype(m.SubtypeID)
		if !ok || !sub.CanComplete {
			return false, fmt.Errorf("marker %s cannot be completed", markerID)
		}
		return s.done.Toggle(markerID), nil
	}
	return false, fmt.Errorf("marker %s not loaded", markerID)
}

// SetLanguage switches the display language and reloads tables.
func (s *Session) SetLanguage(ctx context.Context, lang string) error {
	return s.catalog.SetLanguage(ctx, lang)
}

// SetDataMode switches between the bundle and the content API, then reloads
// the manifests and the selected map.
func (s *Session) SetDataMode(ctx context.Context, mode datasource.Mode) error {
	if s.source.Mode() == mode {
		return nil
	}
	s.source.SetMode(mode)
	s.data.Load(ctx)

	id := s.SelectedMap()
	if _, ok := s.data.Map(id); !ok {
		id = ""
	}
	return s.SelectMap(ctx, id)
}

// Info returns build and source details.
func (s *Session) Info() Info {
	return Info{
		BuildTime: s.build.Time,
		Revision:  s.build.Revision,
		DataMode:  string(s.source.Mode()),
		Language:  s.catalog.Language(),
		BaseURL:   s.source.BaseURL(),
	}
}

// LogAttrs describes the session for every log record.
func (s *Session) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("selectedMap", s.SelectedMap()),
		slog.String("dataMode", string(s.source.Mode())),
	}
}

// Maps returns the listed maps in display order.
func (s *Session) Maps() []model.GameMapMeta { return s.data.Maps() }

// Loading reports whether the manifests are still loading.
func (s *Session) Loading() bool { return s.data.Loading() }

func (s *Session) Categories() []model.MarkerTypeCategory {
	return s.data.Taxonomy().Categories()
}

func (s *Session) Markers() []model.Marker { return s.markers.Markers() }

func (s *Session) VisibleSubtypes() []string { return s.visible.IDs() }

func (s *Session) Completed() []string { return s.done.IDs() }

// Translate resolves a catalog key in the active language.
func (s *Session) Translate(key, fallback string) string {
	return s.catalog.T(key, fallback)
}

// Close detaches the session from the data source.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.markers.Wait()
}
