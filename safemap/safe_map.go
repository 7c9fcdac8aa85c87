// Package safemap provides a small generic map safe for concurrent use,
// used by the server to track live player sessions.
package safemap

import "sync"

// SafeMap is a mutex-guarded map with comparable keys. The zero value is
// not usable; create instances with New. SafeMap must not be copied after
// first use.
type SafeMap[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// New returns an empty SafeMap ready for concurrent use.
func New[K comparable, V any]() *SafeMap[K, V] {
	return &SafeMap[K, V]{m: make(map[K]V)}
}

// Set stores v under k, replacing any existing value.
func (s *SafeMap[K, V]) Set(k K, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[k] = v
}

// Get returns the value for k and whether it was present. A missing key
// yields the zero value of V and false.
func (s *SafeMap[K, V]) Get(k K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[k]
	return v, ok
}

// Delete removes k from the map. Deleting an absent key is a no-op.
func (s *SafeMap[K, V]) Delete(k K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, k)
}

// Has reports whether k is present.
func (s *SafeMap[K, V]) Has(k K) bool {
	_, ok := s.Get(k)
	return ok
}

// Len returns the number of entries.
func (s *SafeMap[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// Values returns a snapshot slice of the current values in unspecified
// order. The slice is safe to iterate without holding any lock.
func (s *SafeMap[K, V]) Values() []V {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]V, 0, len(s.m))
	for _, v := range s.m {
		out = append(out, v)
	}

	return out
}

// Range calls f for each entry until f returns false. f runs on a snapshot
// of the entries, so it may Set or Delete on the map without deadlocking.
func (s *SafeMap[K, V]) Range(f func(k K, v V) bool) {
	s.mu.RLock()
	type entry struct {
		k K
		v V
	}
	entries := make([]entry, 0, len(s.m))
	for k, v := range s.m {
		entries = append(entries, entry{k, v})
	}
	s.mu.RUnlock()

	for _, e := range entries {
		if !f(e.k, e.v) {
			return
		}
	}
}
