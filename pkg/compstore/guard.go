package compstore

import "sync/atomic"

// ReadGuard grants shared, read-only access to a cell's payload for its
// lifetime. Construction (via TryRead/Read or a Handle) performed the one
// type assertion; Value returns the proven *T without re-checking.
//
// A guard holds its own strong reference to the cell, so it stays valid even
// if every handle to the component is released while the guard is live.
// Callers must call Release when done; Release is idempotent, so a deferred
// Release after an early one is harmless.
type ReadGuard[T any] struct {
	cell     *Cell
	val      *T
	released atomic.Bool
}

// Value returns the guarded component. The pointee must not be mutated
// through a read guard. Panics if the guard was already released.
func (g *ReadGuard[T]) Value() *T {
	if g.released.Load() {
		panic("compstore: use of released read guard")
	}
	return g.val
}

// Release drops the reader's lock share and the guard's strong reference.
func (g *ReadGuard[T]) Release() {
	if !g.released.CompareAndSwap(false, true) {
		return
	}
	g.cell.unlockRead()
	g.cell.Release()
}

// WriteGuard grants exclusive access to a cell's payload for its lifetime.
// Like ReadGuard it retains the cell, so the payload cannot be dropped out
// from under a live guard by a concurrent release of all other handles.
type WriteGuard[T any] struct {
	cell     *Cell
	val      *T
	released atomic.Bool
}

// Value returns the guarded component for reading or mutation.
// Panics if the guard was already released.
func (g *WriteGuard[T]) Value() *T {
	if g.released.Load() {
		panic("compstore: use of released write guard")
	}
	return g.val
}

// Set replaces the component value.
func (g *WriteGuard[T]) Set(value T) {
	*g.Value() = value
}

// Release clears the recorded writer identity, unlocks, and drops the
// guard's strong reference.
func (g *WriteGuard[T]) Release() {
	if !g.released.CompareAndSwap(false, true) {
		return
	}
	g.cell.unlockWrite()
	g.cell.Release()
}
