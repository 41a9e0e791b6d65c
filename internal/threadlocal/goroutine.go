// Package threadlocal provides a reference ThreadLocal implementation
// for github.com/jekaa/txmap/mvcc, so the CLI and HTTP service in this
// repo have something real to construct a Map with.
package threadlocal

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"

	"github.com/jekaa/txmap/mvcc"
)

// GoroutineLocal is a best-effort per-goroutine mvcc.ThreadLocal. Go has
// no native goroutine-local storage, so identity is recovered by
// parsing the calling goroutine's id out of its own stack trace — the
// same technique used by well-known third-party goroutine-local
// packages. Entries are created lazily on first use and never
// reclaimed, so the map grows by one entry per distinct goroutine that
// calls With. The CLI's "bench" subcommand uses a fixed set of worker
// goroutines; "serve" runs on net/http, which starts a goroutine per
// connection, so its entries keep accumulating for the life of the
// process.
type GoroutineLocal struct {
	states sync.Map // goroutine id (uint64) -> *mvcc.ThreadState
}

// New constructs an empty GoroutineLocal.
func New() *GoroutineLocal {
	return &GoroutineLocal{}
}

// With invokes f with the ThreadState belonging to the calling
// goroutine, creating it on first use.
func (g *GoroutineLocal) With(f func(state *mvcc.ThreadState)) {
	id := goroutineID()
	v, _ := g.states.LoadOrStore(id, &mvcc.ThreadState{})
	f(v.(*mvcc.ThreadState))
}

// goroutineID scrapes the numeric goroutine id out of the header line
// of runtime.Stack's output ("goroutine 17 [running]: ..."). It is
// deliberately conservative: any parse failure falls back to id 0
// rather than panicking, trading perfect isolation for availability.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]

	const prefix = "goroutine "
	if !bytes.HasPrefix(b, []byte(prefix)) {
		return 0
	}
	b = b[len(prefix):]

	end := bytes.IndexByte(b, ' ')
	if end < 0 {
		return 0
	}

	id, err := strconv.ParseUint(string(b[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
