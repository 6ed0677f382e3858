// =============================================================================
// FX Booking Transformer - Build-Once Map
// =============================================================================
//
// Map is the storage behind the accessor tables and the field mappings. Each
// key is built at most once, even when many goroutines ask for it at the same
// time. Callers that arrive while a build is running wait for it, and callers
// that arrive later read the published value without taking a lock.
//
// A failed build is remembered. Every later Load of the same key returns the
// same error; nothing is rebuilt for the lifetime of the map.
//
// =============================================================================

package oncemap

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// entry holds the single build of one key.
type entry[K comparable, V any] struct {
	once sync.Once
	done atomic.Bool
	val  V
	err  error
}

func (e *entry[K, V]) get(key K, build func(K) (V, error)) (V, error) {
	e.once.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				e.err = fmt.Errorf("build panicked: %v", r)
			}
			e.done.Store(true)
		}()
		e.val, e.err = build(key)
	})
	return e.val, e.err
}

// Map is a concurrent build-once cache. The zero value is ready to use.
// A Map must not be copied after first use.
type Map[K comparable, V any] struct {
	m sync.Map // K -> *entry[K, V]
}

// Load returns the value for key, calling build exactly once per key to
// produce it. A panic inside build is converted into the sticky error.
func (m *Map[K, V]) Load(key K, build func(K) (V, error)) (V, error) {
	if e, ok := m.m.Load(key); ok {
		return e.(*entry[K, V]).get(key, build)
	}
	e, _ := m.m.LoadOrStore(key, &entry[K, V]{})
	return e.(*entry[K, V]).get(key, build)
}

// Range calls fn for every key whose build has finished successfully.
// Keys still building or failed are not visited.
func (m *Map[K, V]) Range(fn func(K, V) bool) {
	m.m.Range(func(k, raw any) bool {
		e := raw.(*entry[K, V])
		if !e.done.Load() || e.err != nil {
			return true
		}
		return fn(k.(K), e.val)
	})
}

// Len reports the number of successfully built keys.
func (m *Map[K, V]) Len() int {
	n := 0
	m.Range(func(K, V) bool {
		n++
		return true
	})
	return n
}
