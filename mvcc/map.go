package mvcc

import (
	"log/slog"
	"sync/atomic"
)

// Map is the top-level coordinator: it owns the monotonically
// increasing global clock, the per-thread-state accessor, and the
// storage backend. It does not create or destroy Lock cells itself
// except through the backend's Remove — cells are minted by the
// backend (e.g. via Insertable/Allocable, or pre-populated at backend
// construction time).
type Map[K comparable, T any, S Storage[K, T]] struct {
	global atomic.Uint64

	local   ThreadLocal
	storage S

	logger *slog.Logger
}

// UnsafeNew constructs a Map from a per-thread-state accessor and a
// storage backend. It is "unsafe" in the sense that construction is
// unchecked with respect to the soundness precondition that local truly
// provides disjoint ThreadState per concurrently-executing caller; the
// Map performs no verification of this.
func UnsafeNew[K comparable, T any, S Storage[K, T]](local ThreadLocal, storage S, opts ...Option) *Map[K, T, S] {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	m := &Map[K, T, S]{
		local:   local,
		storage: storage,
		logger:  cfg.logger,
	}
	m.global.Store(1)
	return m
}

// Transaction constructs a fresh Tx bound to this Map, invokes f with
// it, and commits the Tx (publishing every staged write and removal)
// before returning. The return value of f is the return value of
// Transaction.
//
// Commit is driven by a defer rather than a destructor, since Go has no
// scope-exit hooks: if f panics, the deferred commit still runs and
// publishes whatever was staged before the panic, and the panic is then
// re-raised. This is best-effort publish on abnormal exit, not
// atomicity with the closure.
func Transaction[K comparable, T any, S Storage[K, T], R any](m *Map[K, T, S], f func(tx *Tx[K, T, S]) R) R {
	tx := newTx(m)
	defer tx.commit()
	return f(tx)
}
