// Package store provides reference Storage implementations for
// github.com/jekaa/txmap/mvcc. The core treats storage as an external
// contract; these are concrete backends, not part of that contract.
package store

import "github.com/jekaa/txmap/mvcc"

// ArrayStorage is a fixed-size array backend indexed by int. Remove
// always reports absent: entries are never physically unlinked. A
// removed entry still reads as absent, within the removing transaction
// and in later ones, because the cell stays marked as removed; the
// backend slot itself persists, and a later GetMut can write through it.
type ArrayStorage[T any] struct {
	cells []*mvcc.Lock[T]
}

// NewArrayStorage wraps the given initial values as a fixed-size
// backend, one Lock cell per value in order.
func NewArrayStorage[T any](values ...T) *ArrayStorage[T] {
	cells := make([]*mvcc.Lock[T], len(values))
	for i, v := range values {
		cells[i] = mvcc.NewLock(v)
	}
	return &ArrayStorage[T]{cells: cells}
}

// Get returns the Lock cell at key, or (nil, false) if key is out of
// range.
func (s *ArrayStorage[T]) Get(key int) (*mvcc.Lock[T], bool) {
	if key < 0 || key >= len(s.cells) {
		return nil, false
	}
	return s.cells[key], true
}

// Remove never removes anything; see the type doc comment.
func (s *ArrayStorage[T]) Remove(int) (*mvcc.Lock[T], bool) {
	return nil, false
}
