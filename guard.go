// Value Guard: the engine has no borrow checker, so a single in-use
// exclusion token stands in for Rust's compile-time aliasing guarantee
// that at most one live reference into the mmap'd arena exists at a
// time (see spec.md's design note on exclusion instead of borrow
// checking). A second acquire while one is outstanding is a programming
// error in the caller, not a recoverable condition, so in debug builds
// the first acquire's call stack is captured to make that bug locatable.
//
// Grounded on original_source's journal_object_ref/journal_object_mut
// acquire-then-release protocol, and on jpl-au-folio's fileLock: a
// mutex whose job is guarding a single resource's lifetime rather than
// general-purpose locking.
package journal

import (
	"fmt"
	"runtime"
	"sync"
)

// ValueGuard enforces that at most one typed accessor call on a given
// Window Manager is in progress at a time. The guard is released when
// the accessor returns, so the views it returns stay usable afterwards
// and are not tracked by the guard.
type ValueGuard struct {
	mu      sync.Mutex
	held    bool
	holder  []uintptr
	debug   bool
}

// NewValueGuard creates an unheld guard. debug enables call-stack
// capture on acquire, used to diagnose ErrGuardInUse in tests.
func NewValueGuard(debug bool) *ValueGuard {
	return &ValueGuard{debug: debug}
}

// Acquire marks the guard in-use, returning ErrGuardInUse (with the
// previous holder's stack, if debug capture is on) if already held.
func (g *ValueGuard) Acquire() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held {
		if g.debug && len(g.holder) > 0 {
			return fmt.Errorf("%w: previously acquired at:\n%s", ErrGuardInUse, formatStack(g.holder))
		}
		return ErrGuardInUse
	}
	g.held = true
	if g.debug {
		pcs := make([]uintptr, 32)
		n := runtime.Callers(2, pcs)
		g.holder = pcs[:n]
	}
	return nil
}

// Release clears the in-use flag. Calling Release without a matching
// Acquire is a no-op.
func (g *ValueGuard) Release() {
	g.mu.Lock()
	g.held = false
	g.holder = nil
	g.mu.Unlock()
}

func formatStack(pcs []uintptr) string {
	frames := runtime.CallersFrames(pcs)
	out := ""
	for {
		f, more := frames.Next()
		out += fmt.Sprintf("  %s\n    %s:%d\n", f.Function, f.File, f.Line)
		if !more {
			break
		}
	}
	return out
}
