package queue

import (
	"sync"
)

// Keyed is a thread-safe FIFO of key/value pairs where each key appears at
// most once. Pushing a key that is already queued replaces its value in place.
type Keyed[K comparable, V any] struct {
	mu     sync.Mutex
	keys   []K
	values map[K]V
}

// New creates a new empty queue.
func New[K comparable, V any]() *Keyed[K, V] {
	return &Keyed[K, V]{
		keys:   make([]K, 0),
		values: make(map[K]V),
	}
}

// Push queues value under key. Returns true if an earlier value was replaced.
func (q *Keyed[K, V]) Push(key K, value V) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, replaced := q.values[key]
	if !replaced {
		q.keys = append(q.keys, key)
	}
	q.values[key] = value
	return replaced
}

// Pop removes and returns the oldest key with its latest value.
func (q *Keyed[K, V]) Pop() (K, V, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.keys) == 0 {
		var zk K
		var zv V
		return zk, zv, false
	}
	key := q.keys[0]
	q.keys = q.keys[1:]
	value := q.values[key]
	delete(q.values, key)
	return key, value, true
}

// Peek returns the queued value for key without removing it.
func (q *Keyed[K, V]) Peek(key K) (V, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	v, ok := q.values[key]
	return v, ok
}

// Empty returns true if the queue has no items.
func (q *Keyed[K, V]) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.keys) == 0
}

// Len returns the number of keys in the queue.
func (q *Keyed[K, V]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.keys)
}

// Clear removes all items from the queue.
func (q *Keyed[K, V]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.keys = q.keys[:0]
	q.values = make(map[K]V)
}
