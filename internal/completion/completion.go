// Package completion tracks the markers a user has marked done on a map.
package completion

import (
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/gamemaps/viewer/internal/persist"
)

// KeyName is the storage key segment for completed marker lists.
const KeyName = "completed"

// Set holds completed marker ids for the selected map.
type Set struct {
	store  persist.Store
	prefix string
	log    *slog.Logger

	mu    sync.RWMutex
	mapID string
	done  map[string]struct{}
}

func New(store persist.Store, prefix string, log *slog.Logger) *Set {
	if log == nil {
		log = slog.Default()
	}
	return &Set{store: store, prefix: prefix, log: log, done: map[string]struct{}{}}
}

// Restore loads the completed markers of mapID. Marker ids are not validated
// because the marker document may still be loading.
func (s *Set) Restore(mapID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mapID = mapID
	s.done = map[string]struct{}{}
	if mapID == "" {
		return
	}

	ids, err := persist.LoadStrings(s.store, persist.Key(s.prefix, KeyName, mapID))
	if err != nil {
		if !errors.Is(err, persist.ErrNotFound) {
			s.log.Warn("Ignoring stored completion", "map", mapID, "error", err)
		}
		return
	}
	for _, id := range ids {
		s.done[id] = struct{}{}
	}
}

// Toggle flips markerID and returns whether it is now completed.
func (s *Set) Toggle(markerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mapID == "" || markerID == "" {
		return false
	}
	_, was := s.done[markerID]
	if was {
		delete(s.done, markerID)
	} else {
		s.done[markerID] = struct{}{}
	}

	key := persist.Key(s.prefix, KeyName, s.mapID)
	if err := persist.PutStrings(s.store, key, s.idsLocked()); err != nil {
		s.log.Error("Failed to persist completion", "map", s.mapID, "error", err)
	}
	return !was
}

func (s *Set) Has(markerID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.done[markerID]
	return ok
}

func (s *Set) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.done)
}

// IDs returns completed marker ids sorted.
func (s *Set) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idsLocked()
}

func (s *Set) idsLocked() []string {
	ids := make([]string, 0, len(s.done))
	for id := range s.done {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
