// Package markerstore holds the markers of the selected map.
package markerstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gamemaps/viewer/internal/markers"
	"github.com/gamemaps/viewer/internal/model"
)

// Fetcher loads one document.
type Fetcher interface {
	Fetch(ctx context.Context, relPath string, out any) error
}

// LoadRecorder receives the duration and outcome of each load.
type LoadRecorder interface {
	RecordLoad(ctx context.Context, resource string, d time.Duration, items int, err error)
}

// ResolverFunc returns the taxonomy used to resolve categories of flat documents.
type ResolverFunc func() markers.CategoryResolver

// Path returns the marker document path for mapID.
func Path(mapID string) string {
	return fmt.Sprintf("data/markers/%s.yaml", mapID)
}

// Store holds the marker list of the current selection.
// A load only commits if its selection is still current when it resolves.
type Store struct {
	client   Fetcher
	resolver ResolverFunc
	log      *slog.Logger
	recorder LoadRecorder

	mu       sync.RWMutex
	gen      uint64
	selected string
	markers  []model.Marker
	counts   map[string]int
	loading  bool

	wg sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithResolver sets the taxonomy source for flat documents.
func WithResolver(fn ResolverFunc) Option {
	return func(s *Store) { s.resolver = fn }
}

// WithRecorder reports load timings to r.
func WithRecorder(r LoadRecorder) Option {
	return func(s *Store) { s.recorder = r }
}

func New(client Fetcher, log *slog.Logger, opts ...Option) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{
		client: client,
		log:    log,
		counts: map[string]int{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select switches the selection to mapID and starts loading its markers in
// the background. An empty id clears the list. Earlier loads still in flight
// are superseded and their results dropped.
func (s *Store) Select(ctx context.Context, mapID string) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.selected = mapID

	if mapID == "" {
		s.markers = nil
		s.counts = map[string]int{}
		s.loading = false
		s.mu.Unlock()
		return
	}

	s.loading = true
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.load(ctx, gen, mapID)
	}()
}

func (s *Store) load(ctx context.Context, gen uint64, mapID string) {
	start := time.Now()
	list, err := s.fetch(ctx, mapID)
	if s.recorder != nil {
		s.recorder.RecordLoad(ctx, "markers/"+mapID, time.Since(start), len(list), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		s.log.Debug("Dropping superseded marker load", "map", mapID, "current", s.selected)
		return
	}

	if err != nil {
		s.log.Error("Failed to load markers", "map", mapID, "error", err)
		list = nil
	}
	s.markers = list
	s.counts = markers.CountBySubtype(list)
	s.loading = false
}

func (s *Store) fetch(ctx context.Context, mapID string) ([]model.Marker, error) {
	var doc yaml.Node
	if err := s.client.Fetch(ctx, Path(mapID), &doc); err != nil {
		return nil, err
	}
	var resolver markers.CategoryResolver
	if s.resolver != nil {
		resolver = s.resolver()
	}
	return markers.Flatten(&doc, resolver)
}

// Wait blocks until every started load has resolved.
func (s *Store) Wait() {
	s.wg.Wait()
}

// Markers returns the committed marker list.
func (s *Store) Markers() []model.Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Marker(nil), s.markers...)
}

// Counts returns the number of loaded markers per subtype id.
func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) SelectedID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}
