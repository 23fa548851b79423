/*
Package compstore provides a concurrent, type-keyed store for heterogeneous
singleton components (one instance per type), used to wire together the
subsystems of a larger application without a global variable per subsystem.

# Overview

The store is built on a hand-rolled reference-counted cell with an embedded
reader/writer spin lock. Each component type gets exactly one Cell; typed
Handles reference a cell cheaply, and RAII-style guards mediate all reads
and writes:

	Handle -> Cell -> guard -> typed value

The store itself has two phases. While Open, components are inserted and
handles may be requested even for types that have not been inserted yet
(the cell is forward-declared uninitialized). FinishInitialization then
publishes an immutable snapshot exactly once; from that point lookups are
lock-free and insertion is forbidden.

# Basic Usage

	type Renderer struct{ Frames int }
	type Input struct{ Keys []string }

	store := compstore.NewStore()
	renderer := compstore.Insert(store, Renderer{})
	compstore.Insert(store, Input{})
	store.FinishInitialization()

	g := renderer.Write()
	g.Value().Frames++
	g.Release()

	r := renderer.Read()
	fmt.Println(r.Value().Frames) // 1
	r.Release()

# Forward Declarations

A subsystem can grab a handle to a dependency before the dependency exists,
as long as insertion happens before first use:

	handle := compstore.HandleFor[Renderer](store) // not inserted yet
	compstore.Insert(store, Renderer{})            // fills the same cell
	g := handle.Read()                             // now usable

Reading through a forward-declared handle before the insert panics with an
"not initialized" message: it is a startup-ordering bug, not a recoverable
condition.

# Locking

Guard acquisition spins with runtime.Gosched rather than parking on a
blocking lock: hold times are a field read or write, so a contending
goroutine is expected to release within microseconds. If a goroutine tries
to take a lock on a cell whose write lock it already holds, the acquisition
panics immediately and names the original acquisition site; a reentrant
spin would otherwise hang silently. There is no fairness guarantee between
readers and writers, no timeout, and no cancellation path.

# Error Handling

Fallible accessors (TryRead, TryWrite) return ErrNotInitialized for a
forward-declared component and *TypeMismatchError when the requested type
disagrees with the stored one. Everything else (duplicate insertion,
touching a finalized store, reentrant locking) is a programmer error and
panics with a "compstore:" prefixed message.

# Observability

Logging, metrics, and tracing are opt-in:

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	store := compstore.NewStore(
		compstore.WithLogger(logger),
		compstore.WithMetrics(true),
		compstore.WithTracing(true),
	)

Logs carry store_id, component, and duration_ms fields. OTel metrics:
compstore.inserts, compstore.handle.requests, compstore.store.components.
OTel spans: compstore.insert and compstore.finalize.

# Thread Safety

  - Cell, Handle, and the guards are safe for concurrent use.
  - *Store is shared by pointer; all operations are safe concurrently,
    though finalization is expected to happen once, at the end of startup.
  - typemap.TypeMap is NOT safe for concurrent use; it is a plain typed
    dictionary for transient per-frame data.

# Subpackages

  - config: load store options from YAML/JSON files
  - observability: logging, metrics, and tracing helpers
  - typemap: non-concurrent companion type maps
*/
package compstore
