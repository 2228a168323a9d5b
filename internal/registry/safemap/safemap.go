// Package safemap provides a sharded, concurrent map used for crossmist's
// process-lifetime entry-point dispatch table.
package safemap

import (
	"fmt"
	"runtime"

	csmap "github.com/mhmtszr/concurrent-swiss-map"
	"github.com/zeebo/xxh3"
)

// Map is a thread-safe map sharded across approximately one bucket per CPU,
// hashed with xxh3 rather than the stdlib's FNV-based map hasher.
type Map[K comparable, V any] struct {
	internal *csmap.CsMap[K, V]
}

// New builds an empty Map.
func New[K comparable, V any]() *Map[K, V] {
	shards := uint64(runtime.NumCPU())
	if shards < 1 {
		shards = 1
	}
	return &Map[K, V]{
		internal: csmap.Create(
			csmap.WithShardCount[K, V](shards),
			csmap.WithCustomHasher[K, V](func(key K) uint64 {
				return xxh3.HashString(fmt.Sprintf("%v", key))
			}),
		),
	}
}

// Set stores value under key, overwriting any previous entry.
func (m *Map[K, V]) Set(key K, value V) {
	m.internal.Store(key, value)
}

// Get returns the value stored under key, if any.
func (m *Map[K, V]) Get(key K) (V, bool) {
	return m.internal.Load(key)
}

// GetOrSet stores value under key only if key is absent, and reports which
// value ended up there.
func (m *Map[K, V]) GetOrSet(key K, value V) (actual V, loaded bool) {
	actual, loaded = m.internal.Load(key)
	if !loaded {
		m.internal.Store(key, value)
		return value, false
	}
	return actual, true
}

// Del removes key, returning its prior value if it was present.
func (m *Map[K, V]) Del(key K) (value V, ok bool) {
	value, ok = m.internal.Load(key)
	if ok {
		m.internal.Delete(key)
	}
	return value, ok
}

// Len reports the number of entries currently stored.
func (m *Map[K, V]) Len() int {
	return m.internal.Count()
}

// ForEach visits every entry until fn returns false.
func (m *Map[K, V]) ForEach(fn func(K, V) bool) {
	m.internal.Range(func(key K, value V) (stop bool) {
		return !fn(key, value)
	})
}
