package compstore

import (
	"fmt"
	"reflect"
	"runtime"
	"sync/atomic"
)

// Cell flag bits.
const (
	// flagOrphaned marks a cell detached from its owning store.
	flagOrphaned uint32 = 1 << 0
	// flagInitialized marks that the payload has been constructed.
	flagInitialized uint32 = 1 << 1
)

// Cell is the type-erased, reference-counted storage unit for one component
// instance. It is modeled closely after a hand-rolled Arc, but with an
// embedded reader/writer spin lock instead of a separate mutex allocation.
//
// Counts:
//   - strong keeps the payload alive; the payload is dropped exactly once
//     when strong reaches zero.
//   - weak keeps the surrounding bookkeeping alive so outstanding WeakRefs
//     can still answer Upgrade; every strong holder also counts as one weak
//     holder, so weak reaches zero strictly after strong does.
//
// Lock state:
//   - -1: a writer holds the lock
//   - 0: idle
//   - n>0: n concurrent readers hold the lock
//
// Cells are handed out by a Store and accessed through Handle and the guard
// types; the raw operations below are the primitives those types build on.
type Cell struct {
	strong atomic.Int64
	weak   atomic.Int64

	// state is the reader/writer lock. Transitions are only ever
	// 0 -> n+1 (reader), n+1 -> n, 0 -> -1 (writer), -1 -> 0.
	state atomic.Int64

	// writerGID and writerSite identify the current writer, valid only
	// while state == -1. Read by the deadlock check.
	writerGID  atomic.Int64
	writerSite atomic.Pointer[string]

	flags atomic.Uint32

	// payload boxes the component value as *T. Absent until initialized,
	// cleared exactly once when strong reaches zero.
	payload atomic.Pointer[box]

	// typ is the type the cell was declared with, recorded at creation
	// even for uninitialized cells so forward-declared handles can be
	// type-checked before the value exists.
	typ      reflect.Type
	typeName string
}

// box holds the component value. The value field is always a *T for the
// cell's declared type T; the single type assertion happens at guard
// construction, never on the deref path.
type box struct {
	value any
}

// NewCell creates a cell already carrying a value.
// Counts start at strong=1, weak=1; the caller owns that strong reference.
func NewCell[T any](value T) *Cell {
	c := newCellShell[T]()
	v := value
	c.payload.Store(&box{value: &v})
	c.flags.Store(flagInitialized)
	return c
}

// NewUninitializedCell creates a forward-declared cell for type T: the
// declared type is recorded but no payload exists until Initialize runs.
func NewUninitializedCell[T any]() *Cell {
	return newCellShell[T]()
}

func newCellShell[T any]() *Cell {
	typ := reflect.TypeFor[T]()
	c := &Cell{typ: typ, typeName: typ.String()}
	c.strong.Store(1)
	c.weak.Store(1)
	return c
}

// Initialize constructs the payload of a forward-declared cell.
// Exactly one concurrent initializer wins; the losers observe false
// ("no-op, already done"). Initializing with a type other than the cell's
// declared type is a wiring bug and panics.
func Initialize[T any](c *Cell, value T) bool {
	if typ := reflect.TypeFor[T](); typ != c.typ {
		panic(fmt.Sprintf("compstore: initialize %s with value of type %s", c.typeName, typ))
	}
	for {
		old := c.flags.Load()
		if old&flagInitialized != 0 {
			return false
		}
		if c.flags.CompareAndSwap(old, old|flagInitialized) {
			break
		}
	}
	v := value
	c.payload.Store(&box{value: &v})
	return true
}

// Is reports whether the cell was declared for type T. Checks the recorded
// type, so it answers for uninitialized cells too, and takes no lock.
func Is[T any](c *Cell) bool {
	return c.typ == reflect.TypeFor[T]()
}

// TryRead acquires a shared read lock and returns a typed read guard.
// Returns ErrNotInitialized if the cell is forward-declared and empty, or a
// *TypeMismatchError if the cell stores a different type. The type check
// happens here, once; the guard carries the proven *T for its lifetime.
func TryRead[T any](c *Cell) (*ReadGuard[T], error) {
	b := c.payload.Load()
	if b == nil {
		return nil, ErrNotInitialized
	}
	v, ok := b.value.(*T)
	if !ok {
		return nil, &TypeMismatchError{Expected: reflect.TypeFor[T]().String(), Found: c.typeName}
	}
	c.lockRead()
	return &ReadGuard[T]{cell: c, val: v}, nil
}

// Read is the panicking form of TryRead, for access that is expected to
// succeed once wiring is complete.
func Read[T any](c *Cell) *ReadGuard[T] {
	g, err := TryRead[T](c)
	if err != nil {
		panic(fmt.Sprintf("compstore: read %s: %v", c.typeName, err))
	}
	return g
}

// TryWrite acquires the exclusive write lock and returns a typed write
// guard. Error conditions match TryRead.
func TryWrite[T any](c *Cell) (*WriteGuard[T], error) {
	return tryWriteAt[T](c, callerSite(1))
}

// Write is the panicking form of TryWrite.
func Write[T any](c *Cell) *WriteGuard[T] {
	g, err := tryWriteAt[T](c, callerSite(1))
	if err != nil {
		panic(fmt.Sprintf("compstore: write %s: %v", c.typeName, err))
	}
	return g
}

func tryWriteAt[T any](c *Cell, site string) (*WriteGuard[T], error) {
	b := c.payload.Load()
	if b == nil {
		return nil, ErrNotInitialized
	}
	v, ok := b.value.(*T)
	if !ok {
		return nil, &TypeMismatchError{Expected: reflect.TypeFor[T]().String(), Found: c.typeName}
	}
	c.lockWrite(site)
	return &WriteGuard[T]{cell: c, val: v}, nil
}

// Retain manually increments the counts: one strong and, because every
// strong holder is also a weak holder, one weak. Paired with Release.
func (c *Cell) Retain() {
	c.strong.Add(1)
	c.weak.Add(1)
}

// Release undoes one Retain. When the last strong reference goes, the
// payload is dropped in place; when the last weak reference goes, nothing
// keeps the cell's bookkeeping reachable and the allocation is left to the
// collector.
func (c *Cell) Release() {
	if c.strong.Add(-1) == 0 {
		c.dropPayload()
	}
	c.weak.Add(-1)
}

// dropPayload clears the payload pointer. Runs exactly once: only the
// releaser that took strong to zero calls it.
func (c *Cell) dropPayload() {
	c.payload.Store(nil)
}

// Downgrade returns a weak reference to the cell, incrementing the weak
// count. The cell's own strong count is untouched; the caller keeps whatever
// strong references it already held.
func (c *Cell) Downgrade() *WeakRef {
	c.weak.Add(1)
	return &WeakRef{cell: c}
}

// Orphan marks the cell as detached from its owning store. Purely advisory:
// it never frees anything, but guard acquisition refuses orphaned cells and
// iterating callers can skip them.
func (c *Cell) Orphan() {
	c.flags.Or(flagOrphaned)
}

// IsOrphaned reports whether the cell has been orphaned.
func (c *Cell) IsOrphaned() bool {
	return c.flags.Load()&flagOrphaned != 0
}

// IsInitialized reports whether the payload has been constructed.
func (c *Cell) IsInitialized() bool {
	return c.flags.Load()&flagInitialized != 0
}

// TypeName returns the declared component type name, for diagnostics.
func (c *Cell) TypeName() string {
	return c.typeName
}

// StrongCount returns the current strong count. Diagnostic only; the value
// may be stale the moment it is returned.
func (c *Cell) StrongCount() int64 {
	return c.strong.Load()
}

// WeakCount returns the current weak count. Diagnostic only.
func (c *Cell) WeakCount() int64 {
	return c.weak.Load()
}

// LockState returns the raw lock state (-1 writer, 0 idle, n readers).
// Diagnostic only.
func (c *Cell) LockState() int64 {
	return c.state.Load()
}

// String implements fmt.Stringer.
func (c *Cell) String() string {
	return fmt.Sprintf("Cell{type: %s, strong: %d, weak: %d}",
		c.typeName, c.strong.Load(), c.weak.Load())
}

// lockRead spins until the shared lock is acquired. Readers increment the
// state whenever no writer holds it; while a writer is observed, the first
// iteration runs the same-goroutine deadlock check, then the reader yields
// the processor between attempts. Hold times are a field read, so spinning
// beats parking the goroutine on a heavier lock.
func (c *Cell) lockRead() {
	c.checkFlags("read")
	c.Retain()
	first := true
	for {
		v := c.state.Load()
		if v < 0 {
			// A frame higher up this goroutine's stack may hold the
			// write lock; without this check we would spin forever.
			if first {
				c.checkDeadlock("read")
				first = false
			}
			runtime.Gosched()
			continue
		}
		if c.state.CompareAndSwap(v, v+1) {
			return
		}
	}
}

// lockWrite spins until the exclusive lock is acquired, then records the
// writer's goroutine id and call site for deadlock diagnostics.
func (c *Cell) lockWrite(site string) {
	c.checkFlags("write")
	c.Retain()
	first := true
	for !c.state.CompareAndSwap(0, -1) {
		if first && c.state.Load() == -1 {
			c.checkDeadlock("write")
		}
		first = false
		runtime.Gosched()
	}
	c.writerGID.Store(currentGoroutineID())
	c.writerSite.Store(&site)
}

// unlockRead releases one reader.
func (c *Cell) unlockRead() {
	c.state.Add(-1)
}

// unlockWrite clears the writer identity, then releases the lock.
func (c *Cell) unlockWrite() {
	c.writerGID.Store(0)
	c.writerSite.Store(nil)
	c.state.Store(0)
}

// checkFlags panics on any flag beyond INITIALIZED; an orphaned cell must
// not hand out guards.
func (c *Cell) checkFlags(lockKind string) {
	if c.flags.Load()&^flagInitialized != 0 {
		panic(fmt.Sprintf("compstore: %s of orphaned component %s", lockKind, c.typeName))
	}
}

// checkDeadlock panics if the goroutine that holds the write lock is the one
// asking for another lock. The recorded id could change between the load and
// the comparison, but the check only matters when they are equal, and equal
// means this goroutine holds the lock and cannot release it while spinning
// here.
func (c *Cell) checkDeadlock(lockKind string) {
	gid := c.writerGID.Load()
	if gid == 0 || gid != currentGoroutineID() {
		return
	}
	site := "unknown"
	if p := c.writerSite.Load(); p != nil {
		site = *p
	}
	panic(fmt.Sprintf(
		"compstore: deadlock detected: goroutine %d attempted to acquire %s lock on %s while holding write lock acquired at %s",
		gid, lockKind, c.typeName, site))
}
