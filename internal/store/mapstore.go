package store

import (
	"sync"

	"github.com/jekaa/txmap/mvcc"
)

// MapStorage is a hash-based Storage backend supporting the optional
// Insertable and Allocable extensions.
//
// A plain sync.RWMutex + map is used rather than sync.Map: Insert needs
// to report, atomically with the insert, whether it replaced an
// existing binding — a single critical section makes that trivial,
// where sync.Map's LoadOrStore/Swap split would need an extra round
// trip to get the same answer.
type MapStorage[K comparable, T any] struct {
	mu    sync.RWMutex
	cells map[K]*mvcc.Lock[T]

	nextID  uint64
	allocFn func(uint64) K
}

// NewMapStorage constructs an empty MapStorage. allocFn mints a key from
// a monotonically increasing counter for Alloc; pass nil if the backend
// will never be used through the Allocable extension.
func NewMapStorage[K comparable, T any](allocFn func(id uint64) K) *MapStorage[K, T] {
	return &MapStorage[K, T]{
		cells:   make(map[K]*mvcc.Lock[T]),
		allocFn: allocFn,
	}
}

// Get returns the Lock cell bound to key, if any.
func (s *MapStorage[K, T]) Get(key K) (*mvcc.Lock[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.cells[key]
	return l, ok
}

// Remove deletes the binding for key and returns the prior Lock cell.
func (s *MapStorage[K, T]) Remove(key K) (*mvcc.Lock[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.cells[key]
	if ok {
		delete(s.cells, key)
	}
	return l, ok
}

// Insert binds key to a fresh Lock cell wrapping value, returning the
// cell it replaced, if any. The core never calls this; it exists for
// callers (e.g. internal/api) that need to create keys on demand.
func (s *MapStorage[K, T]) Insert(key K, value T) (*mvcc.Lock[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.cells[key]
	s.cells[key] = mvcc.NewLock(value)
	return prev, existed
}

// Alloc mints a fresh key via allocFn and binds it to value, returning
// the minted key.
func (s *MapStorage[K, T]) Alloc(value T) K {
	id := s.nextAllocID()
	key := s.allocFn(id)
	s.mu.Lock()
	s.cells[key] = mvcc.NewLock(value)
	s.mu.Unlock()
	return key
}

func (s *MapStorage[K, T]) nextAllocID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return s.nextID
}
