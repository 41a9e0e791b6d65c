package mvcc

import "sync"

// atomicCell is a one-slot mailbox holding an optional shared pointer,
// guarded by a short-critical-section mutex. All three operations are
// linearization points; none of them block on anything but the internal
// mutex. The occupant is shared by pointer; Go's garbage collector makes
// a bare *T a valid shared handle without any reference counting.
type atomicCell[T any] struct {
	mu    sync.Mutex
	value *T
}

// get returns the current occupant, or nil if the cell is empty.
func (c *atomicCell[T]) get() *T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// set unconditionally replaces the occupant.
func (c *atomicCell[T]) set(v *T) {
	c.mu.Lock()
	c.value = v
	c.mu.Unlock()
}

// take removes and returns the current occupant.
func (c *atomicCell[T]) take() *T {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.value
	c.value = nil
	return v
}
