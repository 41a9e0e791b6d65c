package mvcc

import (
	"sync"
	"sync/atomic"
)

// Lock is the per-entry dual-versioned concurrency primitive. It holds
// the committed value, an optional pending value staged by the entry's
// current writer, the stage-time clock, a per-entry writer mutex, and a
// reader/writer lock whose read side is held across a transaction's
// reader lifetime and whose write side is taken only at publish to
// fence out concurrent readers during the committed-slot swap.
type Lock[T any] struct {
	rw sync.RWMutex

	// value is the currently committed value. It is only ever replaced
	// while rw's write side is held (Tx commit Phase D).
	value *T

	// newValue is the pending value staged by the current writer. The
	// absent variant during a staged removal means "will be gone after
	// commit".
	newValue atomicCell[T]

	// newClock is 0 when no writer currently owns the pending slot, and
	// the global clock observed at the time a writer staged its claim
	// otherwise. The one exception is a committed removal: commit leaves
	// newClock at the commit clock (with newValue empty), so the entry
	// keeps reading as absent after its writer mutex is released.
	newClock atomic.Uint64

	// writerMu is a non-reentrant exclusive mutex serializing writers on
	// this entry. Held from GetMut/Remove through commit's release in
	// Phase E.
	writerMu sync.Mutex
}

// NewLock wraps v as the committed value of a fresh entry: no pending
// write, a fresh writer mutex.
func NewLock[T any](v T) *Lock[T] {
	return &Lock[T]{value: &v}
}
