package persist

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no value is stored under a key.
var ErrNotFound = errors.New("preference not found")

// Store reads stored preferences and schedules writes. Writer implements it.
type Store interface {
	Get(key string) (string, bool, error)
	Put(key, value string)
}

// Key builds a namespaced storage key: <prefix>.<name>.v1.<mapID>.
func Key(prefix, name, mapID string) string {
	return fmt.Sprintf("%s.%s.v1.%s", prefix, name, mapID)
}

// LoadStrings decodes the JSON string array stored under key.
func LoadStrings(s Store, key string) ([]string, error) {
	raw, ok, err := s.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	if ids == nil {
		// a stored JSON null is not a list
		return nil, fmt.Errorf("failed to decode %s: not a list", key)
	}
	return ids, nil
}

// PutStrings schedules ids to be stored under key as a JSON array.
func PutStrings(s Store, key string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	s.Put(key, string(data))
	return nil
}
