// internal/storage/storage.go
package storage

// Backend is durable client storage for JSON-encoded preferences, keyed by
// namespaced strings such as "<prefix>.visibleSubtypes.v1.<mapId>".
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Get returns the stored value and whether the key exists.
	Get(key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}
