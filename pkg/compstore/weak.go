package compstore

import "sync/atomic"

// WeakRef keeps a cell's bookkeeping alive without keeping its payload
// alive. Obtained from Cell.Downgrade or Handle.Downgrade; call Release when
// the reference is no longer needed.
type WeakRef struct {
	cell     *Cell
	released atomic.Bool
}

// Upgrade attempts to re-acquire a strong reference. Returns the retained
// cell, or nil if the payload is already gone. The increment only happens
// while the strong count is observed nonzero, so a dead cell can never be
// resurrected. The caller owns the returned reference and must Release it.
func (w *WeakRef) Upgrade() *Cell {
	if w.released.Load() {
		panic("compstore: upgrade of released weak reference")
	}
	c := w.cell
	for {
		n := c.strong.Load()
		if n == 0 {
			return nil
		}
		if c.strong.CompareAndSwap(n, n+1) {
			c.weak.Add(1)
			return c
		}
	}
}

// Release drops the weak reference. Idempotent.
func (w *WeakRef) Release() {
	if !w.released.CompareAndSwap(false, true) {
		return
	}
	w.cell.weak.Add(-1)
}
