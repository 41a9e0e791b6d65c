package mvcc

// writer records a Lock cell held for writing, together with the
// transaction-local working copy that will be staged at commit. value
// is heap-allocated independently of the writers slice so that a
// WriteGuard handed out by an earlier GetMut stays valid across later
// GetMut calls, even if the slice backing array is reallocated.
type writer[T any] struct {
	lock  *Lock[T]
	value *T
}

// removal records a Lock cell staged for removal, together with the key
// the backend will be asked to drop at publish time.
type removal[K comparable, T any] struct {
	lock *Lock[T]
	key  K
}

// Tx is a transaction's scratch space: anchored readers (keeping their
// read-side locks live for the transaction's duration), staged writers
// and their working values, and pending removals. Its commit runs when
// Transaction's deferred call fires at scope exit.
//
// A Tx is not safe for concurrent use from multiple goroutines — like a
// *sql.Tx, it belongs to the single goroutine that opened it.
type Tx[K comparable, T any, S Storage[K, T]] struct {
	m *Map[K, T, S]

	readers []*Lock[T]
	writers []writer[T]
	removed []removal[K, T]

	// heldRemovals indexes keys this transaction has already staged for
	// removal, so a later GetMut on the same key rejects it instead of
	// deadlocking or resurrecting the entry.
	heldRemovals map[K]struct{}

	// heldWriters indexes keys this transaction already holds writerMu
	// for. Get consults it to avoid anchoring a second, independent
	// read-side lock on an entry this same goroutine will later take the
	// write side of during commit — sync.RWMutex isn't reentrant, so
	// holding both would self-deadlock in Phase D.
	heldWriters map[K]struct{}
}

func newTx[K comparable, T any, S Storage[K, T]](m *Map[K, T, S]) *Tx[K, T, S] {
	return &Tx[K, T, S]{m: m}
}

// Get looks up key and, if present, returns a ReadGuard exposing
// whichever of the entry's pending or committed value is visible to
// this transaction's snapshot. The entry's read-side lock is acquired
// and held for the remainder of the transaction.
//
// If this same transaction already holds key for writing (via GetMut)
// or has staged it for removal, Get does not anchor a read-side lock at
// all: commit will later take that entry's write side to publish, and
// a read lock held by this same goroutine past that point would never
// be released. Such a call always reports absent, since the value this
// transaction itself is about to write or remove is never visible to
// its own reads before commit.
func (tx *Tx[K, T, S]) Get(key K) (*ReadGuard[T], bool) {
	if _, staged := tx.heldWriters[key]; staged {
		return nil, false
	}
	if _, staged := tx.heldRemovals[key]; staged {
		return nil, false
	}

	lock, ok := tx.m.storage.Get(key)
	if !ok {
		return nil, false
	}

	tx.readers = append(tx.readers, lock)
	lock.rw.RLock()

	g := tx.m.global.Load()
	tx.m.local.With(func(state *ThreadState) { state.LocalClock = g })

	n := lock.newClock.Load()
	if n > 0 && g >= n {
		// A writer has already staged (but not yet published) a value
		// whose stage-time clock is <= the clock we just observed: we
		// should see it. The comparison is >=, not >.
		if nv := lock.newValue.get(); nv != nil {
			return &ReadGuard[T]{value: nv}, true
		}
		return nil, false
	}

	return &ReadGuard[T]{value: lock.value}, true
}

// GetMut looks up key, acquires its writer mutex (blocking until
// available), and returns a WriteGuard over a clone of the committed
// value. The clone is exclusively owned by this transaction until
// commit; no other transaction observes it before then.
func (tx *Tx[K, T, S]) GetMut(key K) (*WriteGuard[T], bool) {
	if _, staged := tx.heldRemovals[key]; staged {
		return nil, false
	}

	lock, ok := tx.m.storage.Get(key)
	if !ok {
		return nil, false
	}

	lock.writerMu.Lock()

	lock.rw.RLock()
	g := tx.m.global.Load()
	tx.m.local.With(func(state *ThreadState) { state.LocalClock = g })
	lock.newClock.Store(g)
	working := *lock.value
	lock.rw.RUnlock()

	tx.writers = append(tx.writers, writer[T]{lock: lock, value: &working})
	if tx.heldWriters == nil {
		tx.heldWriters = make(map[K]struct{})
	}
	tx.heldWriters[key] = struct{}{}

	return &WriteGuard[T]{value: &working}, true
}

// Remove stages key for removal and returns the previously committed
// value for inspection or disposal. Acquisition follows GetMut's
// sequence; the physical unlink from the storage backend happens only
// at publish (commit Phase D), never before.
func (tx *Tx[K, T, S]) Remove(key K) (*T, bool) {
	lock, ok := tx.m.storage.Get(key)
	if !ok {
		return nil, false
	}

	lock.writerMu.Lock()

	lock.rw.RLock()
	g := tx.m.global.Load()
	tx.m.local.With(func(state *ThreadState) { state.LocalClock = g })
	lock.newClock.Store(g)
	prev := lock.value
	lock.rw.RUnlock()

	tx.removed = append(tx.removed, removal[K, T]{lock: lock, key: key})
	if tx.heldRemovals == nil {
		tx.heldRemovals = make(map[K]struct{})
	}
	tx.heldRemovals[key] = struct{}{}

	return prev, true
}

// commit stages every writer and removal, publishes the new global
// clock, then promotes or unlinks each entry and fences its readers. It
// runs exactly once, from Transaction's deferred call.
func (tx *Tx[K, T, S]) commit() {
	// Phase A: advance local clock.
	var c uint64
	tx.m.local.With(func(state *ThreadState) {
		c = state.LocalClock + 1
		state.LocalClock = c
	})

	// Phase B: stage, while still holding each entry's read-side and
	// writer mutex.
	for i := range tx.writers {
		w := &tx.writers[i]
		w.lock.rw.RLock()
		w.lock.newValue.set(w.value)
		w.lock.newClock.Store(c)
		w.lock.rw.RUnlock()
	}
	for _, r := range tx.removed {
		r.lock.rw.RLock()
		r.lock.newValue.set(nil)
		r.lock.newClock.Store(c)
		r.lock.rw.RUnlock()
	}

	// Phase C: publish the global clock.
	tx.m.global.Add(1)

	// Phase D: promote and fence, per entry, in order.
	for i := range tx.writers {
		w := &tx.writers[i]
		w.lock.rw.Lock()
		if nv := w.lock.newValue.take(); nv != nil {
			w.lock.value = nv
		}
		w.lock.newClock.Store(0)
		w.lock.rw.Unlock()
	}
	for _, r := range tx.removed {
		r.lock.rw.Lock()
		tx.m.storage.Remove(r.key)
		// newClock is left at c, not reset to 0: on a backend whose
		// Remove is a physical no-op (a fixed-size slot that's never
		// unlinked), this keeps the entry permanently absent instead of
		// falling through to the stale committed value once g advances
		// past c again. A backend that mints a fresh Lock cell on
		// re-insertion is unaffected, since insertion hands back a new
		// cell rather than reusing this one.
		r.lock.rw.Unlock()
	}

	// Phase E: release writer mutexes.
	for i := range tx.writers {
		tx.writers[i].lock.writerMu.Unlock()
	}
	for _, r := range tx.removed {
		r.lock.writerMu.Unlock()
	}

	// Release every anchored reader's read-side lock.
	for _, l := range tx.readers {
		l.rw.RUnlock()
	}

	if tx.m.logger != nil {
		tx.m.logger.Debug("committed transaction",
			"clock", c,
			"writes", len(tx.writers),
			"removals", len(tx.removed),
		)
	}
}
