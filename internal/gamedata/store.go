// Package gamedata loads the maps manifest and the marker type taxonomy.
package gamedata

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gamemaps/viewer/internal/api"
	"github.com/gamemaps/viewer/internal/model"
	"github.com/gamemaps/viewer/internal/taxonomy"
)

const (
	MapsPath  = "data/maps.yaml"
	TypesPath = "data/types.yaml"
)

// Fetcher loads several documents as one unit.
type Fetcher interface {
	FetchAll(ctx context.Context, reqs ...api.Request) error
}

// LoadRecorder receives the duration and outcome of each load.
type LoadRecorder interface {
	RecordLoad(ctx context.Context, resource string, d time.Duration, items int, err error)
}

// Store holds the sorted visible maps and the taxonomy.
type Store struct {
	client   Fetcher
	log      *slog.Logger
	recorder LoadRecorder

	mu      sync.RWMutex
	maps    []model.GameMapMeta
	tax     *taxonomy.Taxonomy
	loading bool
}

// Option configures a Store.
type Option func(*Store)

// WithRecorder reports load timings to r.
func WithRecorder(r LoadRecorder) Option {
	return func(s *Store) { s.recorder = r }
}

// New creates a store in the loading state.
func New(client Fetcher, log *slog.Logger, opts ...Option) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{
		client:  client,
		log:     log,
		tax:     taxonomy.Empty(),
		loading: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches both manifests together and commits them only if both succeed
// and the taxonomy is valid. Failures are logged and leave the store empty.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	start := time.Now()
	maps, tax, err := s.fetch(ctx)
	if s.recorder != nil {
		s.recorder.RecordLoad(ctx, "manifests", time.Since(start), len(maps), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		s.log.Error("Failed to load game data", "error", err)
		s.maps = nil
		s.tax = taxonomy.Empty()
		return
	}

	s.maps = maps
	s.tax = tax
	s.log.Info("Game data loaded", "maps", len(maps), "subtypes", tax.Len())
}

func (s *Store) fetch(ctx context.Context) ([]model.GameMapMeta, *taxonomy.Taxonomy, error) {
	var mapsFile model.MapsFile
	var typesFile model.TypesFile

	err := s.client.FetchAll(ctx,
		api.Request{Path: MapsPath, Out: &mapsFile},
		api.Request{Path: TypesPath, Out: &typesFile},
	)
	if err != nil {
		return nil, nil, err
	}

	tax, err := taxonomy.New(typesFile.Categories)
	if err != nil {
		return nil, nil, err
	}
	return SortMaps(mapsFile.Maps), tax, nil
}

// SortMaps drops hidden maps and orders the rest by order hint, then id.
func SortMaps(maps []model.GameMapMeta) []model.GameMapMeta {
	out := make([]model.GameMapMeta, 0, len(maps))
	for _, m := range maps {
		if m.Visible() {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		oi, oj := out[i].SortOrder(), out[j].SortOrder()
		if oi != oj {
			return oi < oj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Maps returns the visible maps in display order.
func (s *Store) Maps() []model.GameMapMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.GameMapMeta(nil), s.maps...)
}

// Map looks up a loaded map by id.
func (s *Store) Map(id string) (model.GameMapMeta, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.maps {
		if m.ID == id {
			return m, true
		}
	}
	return model.GameMapMeta{}, false
}

// Taxonomy returns the loaded taxonomy; empty until a load succeeds.
func (s *Store) Taxonomy() *taxonomy.Taxonomy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tax
}

// Loading is true until the first joint load resolves.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}
