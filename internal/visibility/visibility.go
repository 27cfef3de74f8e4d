// Package visibility tracks which marker subtypes are shown on the selected map.
package visibility

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/gamemaps/viewer/internal/persist"
)

// KeyName is the storage key segment for visible subtype lists.
const KeyName = "visibleSubtypes"

// State is the visible subtype set for one map at a time.
// Every mutation schedules a write of the full set; storage errors are logged.
type State struct {
	store  persist.Store
	prefix string
	log    *slog.Logger

	mu      sync.RWMutex
	mapID   string
	valid   []string
	visible map[string]struct{}
}

// New creates an uninitialized state. prefix namespaces the storage keys.
func New(store persist.Store, prefix string, log *slog.Logger) *State {
	if log == nil {
		log = slog.Default()
	}
	return &State{store: store, prefix: prefix, log: log}
}

// Restore loads the persisted set for mapID, keeping only ids in validIDs.
// An absent or unreadable preference selects every valid id.
// An empty mapID resets the state to uninitialized.
func (s *State) Restore(mapID string, validIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mapID = mapID
	s.valid = append([]string(nil), validIDs...)
	if mapID == "" {
		s.visible = nil
		return
	}

	s.visible = make(map[string]struct{}, len(validIDs))
	key := persist.Key(s.prefix, KeyName, mapID)

	stored, err := persist.LoadStrings(s.store, key)
	if err != nil {
		if !errors.Is(err, persist.ErrNotFound) {
			s.log.Warn("Ignoring stored visibility", "map", mapID, "error", err)
		}
		for _, id := range validIDs {
			s.visible[id] = struct{}{}
		}
		return
	}

	want := make(map[string]struct{}, len(stored))
	for _, id := range stored {
		want[id] = struct{}{}
	}
	for _, id := range validIDs {
		if _, ok := want[id]; ok {
			s.visible[id] = struct{}{}
		}
	}
}

// MapID returns the map the state was restored for, or "".
func (s *State) MapID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mapID
}

// Initialized reports whether a map has been restored.
func (s *State) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visible != nil
}

// Visible reports whether subtype id is shown.
func (s *State) Visible(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.visible[id]
	return ok
}

// IDs returns the visible subtypes in taxonomy order.
func (s *State) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idsLocked()
}

func (s *State) idsLocked() []string {
	ids := make([]string, 0, len(s.visible))
	for _, id := range s.valid {
		if _, ok := s.visible[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Toggle flips the membership of id and returns whether it is now visible.
// Unknown ids and an uninitialized state are left untouched.
func (s *State) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.visible == nil || !s.knownLocked(id) {
		return false
	}
	_, on := s.visible[id]
	if on {
		delete(s.visible, id)
	} else {
		s.visible[id] = struct{}{}
	}
	s.persistLocked()
	return !on
}

// ShowAll makes every valid subtype visible.
func (s *State) ShowAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.visible == nil {
		return
	}
	for _, id := range s.valid {
		s.visible[id] = struct{}{}
	}
	s.persistLocked()
}

// HideAll hides every subtype.
func (s *State) HideAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.visible == nil {
		return
	}
	s.visible = make(map[string]struct{})
	s.persistLocked()
}

// SetMany shows or hides the given subtypes in one write, as a category
// checkbox does.
func (s *State) SetMany(ids []string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.visible == nil {
		return
	}
	for _, id := range ids {
		if !s.knownLocked(id) {
			continue
		}
		if on {
			s.visible[id] = struct{}{}
		} else {
			delete(s.visible, id)
		}
	}
	s.persistLocked()
}

func (s *State) knownLocked(id string) bool {
	for _, v := range s.valid {
		if v == id {
			return true
		}
	}
	return false
}

func (s *State) persistLocked() {
	key := persist.Key(s.prefix, KeyName, s.mapID)
	if err := persist.PutStrings(s.store, key, s.idsLocked()); err != nil {
		s.log.Error("Failed to persist visibility", "map", s.mapID, "error", err)
	}
}
