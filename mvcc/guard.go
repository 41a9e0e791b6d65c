package mvcc

// ReadGuard borrows either the staged pending value (if the visibility
// rule in Tx.Get selected it) or the committed one. It is valid for the
// remainder of the enclosing transaction; dropping it early releases
// nothing, since the entry's read-side lock is held for the whole
// transaction, not per-guard.
type ReadGuard[T any] struct {
	value *T
}

// Value returns the guarded value.
func (g *ReadGuard[T]) Value() *T {
	return g.value
}

// WriteGuard borrows the transaction-local working copy created by
// GetMut. It is never visible to any other transaction until commit.
type WriteGuard[T any] struct {
	value *T
}

// Value returns the guarded working copy.
func (g *WriteGuard[T]) Value() *T {
	return g.value
}
