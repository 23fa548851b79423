package compstore

import (
	"fmt"
	"sync/atomic"
)

// Handle is a typed, cheaply cloneable capability referencing one component
// cell. The type match is asserted once, when the handle is constructed; all
// later access goes through guards, which re-prove nothing.
//
// Handles are obtained from a Store (Insert, HandleFor). Each handle owns
// one strong reference; Clone takes another, Release drops this handle's.
type Handle[T any] struct {
	cell     *Cell
	released atomic.Bool
}

// handleFromCell wraps a cell in a typed handle, asserting the declared
// type and retaining one strong reference.
func handleFromCell[T any](c *Cell) *Handle[T] {
	if !Is[T](c) {
		panic(fmt.Sprintf("compstore: handle type mismatch: cell holds %s", c.typeName))
	}
	c.Retain()
	return &Handle[T]{cell: c}
}

// newStandaloneHandle creates a handle over a fresh cell that belongs to no
// store. The handle adopts the cell's initial strong reference.
func newStandaloneHandle[T any](value T) *Handle[T] {
	return &Handle[T]{cell: NewCell(value)}
}

// Read returns a read guard over the component, panicking if the component
// is uninitialized. See TryRead for the fallible form.
func (h *Handle[T]) Read() *ReadGuard[T] {
	return Read[T](h.checked())
}

// TryRead returns a read guard, ErrNotInitialized if the component has not
// been inserted yet, or a *TypeMismatchError.
func (h *Handle[T]) TryRead() (*ReadGuard[T], error) {
	return TryRead[T](h.checked())
}

// Write returns a write guard over the component, panicking if the
// component is uninitialized. The acquisition site is recorded for deadlock
// diagnostics.
func (h *Handle[T]) Write() *WriteGuard[T] {
	c := h.checked()
	g, err := tryWriteAt[T](c, callerSite(1))
	if err != nil {
		panic(fmt.Sprintf("compstore: write %s: %v", c.typeName, err))
	}
	return g
}

// TryWrite returns a write guard or the error forms of TryRead.
func (h *Handle[T]) TryWrite() (*WriteGuard[T], error) {
	return tryWriteAt[T](h.checked(), callerSite(1))
}

// Clone returns a new handle holding its own strong reference.
func (h *Handle[T]) Clone() *Handle[T] {
	c := h.checked()
	c.Retain()
	return &Handle[T]{cell: c}
}

// Downgrade returns a weak reference to the component's cell. The handle's
// own strong reference is unaffected.
func (h *Handle[T]) Downgrade() *WeakRef {
	return h.checked().Downgrade()
}

// Cell exposes the underlying cell for diagnostics.
func (h *Handle[T]) Cell() *Cell {
	return h.cell
}

// Release drops this handle's strong reference. Idempotent. Clones hold
// their own references and stay valid.
func (h *Handle[T]) Release() {
	if !h.released.CompareAndSwap(false, true) {
		return
	}
	h.cell.Release()
}

func (h *Handle[T]) checked() *Cell {
	if h.released.Load() {
		panic("compstore: use of released handle")
	}
	return h.cell
}

// String implements fmt.Stringer.
func (h *Handle[T]) String() string {
	return fmt.Sprintf("Handle[%s]", h.cell.typeName)
}
