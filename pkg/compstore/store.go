package compstore

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/randalmurphal/compstore/pkg/compstore/observability"
)

// cellMap maps a component's type identity to its cell.
type cellMap map[reflect.Type]*Cell

// Store is a type-keyed database of singleton components with a two-phase
// lifecycle:
//
//   - Open: components are inserted and handles may be requested even for
//     types that have not been inserted yet (a forward-declared cell is
//     allocated uninitialized). The mutable map lives inside one of the
//     store's own cells, guarded by that cell's reader/writer lock.
//   - Finalized: FinishInitialization snapshots the map and publishes it
//     through an atomic pointer exactly once. Lookups no longer take any
//     lock, and insertion is forbidden.
//
// A *Store is shared by pointer; every holder observes the same underlying
// state. All misuse of the lifecycle (duplicate insert, insert after
// finalization, finalizing twice, requesting a never-inserted type from a
// finalized store) is a wiring bug and panics.
type Store struct {
	id      string
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager

	// mods is the open-phase map. It sits inside a regular component cell
	// so map access exercises the same lock the components themselves use.
	mods *Handle[cellMap]

	// published is set exactly once by FinishInitialization.
	published atomic.Pointer[cellMap]
}

// NewStore creates a new, empty component store in the Open phase.
func NewStore(opts ...StoreOption) *Store {
	cfg := defaultStoreConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Store{
		id:      cfg.id,
		logger:  cfg.logger,
		metrics: cfg.metrics,
		spans:   cfg.spans,
		mods:    newStandaloneHandle(make(cellMap)),
	}
	observability.LogStoreCreated(s.logger, s.id)
	return s
}

// ID returns the store's instance id, used in logs and trace attributes.
func (s *Store) ID() string {
	return s.id
}

// IsFinalized reports whether FinishInitialization has run.
func (s *Store) IsFinalized() bool {
	return s.published.Load() != nil
}

// Len returns the number of components (inserted or forward-declared)
// currently known to the store.
func (s *Store) Len() int {
	if m := s.published.Load(); m != nil {
		return len(*m)
	}
	r := s.mods.Read()
	defer r.Release()
	return len(*r.Value())
}

// Insert adds a component to the store and returns a typed handle to it.
// If a forward-declared cell for T already exists (a dependent requested a
// handle first), the cell is initialized in place and every outstanding
// handle becomes usable.
//
// Panics if a component of type T was already inserted, or if the store is
// finalized.
func Insert[T any](s *Store, component T) *Handle[T] {
	if s.IsFinalized() {
		panic("compstore: insert into finalized store")
	}
	key := reflect.TypeFor[T]()
	start := time.Now()
	done := observability.TimedOperation()
	ctx, span := s.spans.StartInsertSpan(context.Background(), s.id, key.String())

	w := s.mods.Write()
	m := *w.Value()
	if c, ok := m[key]; ok {
		initialized := Initialize(c, component)
		w.Release()
		if !initialized {
			s.spans.EndSpanWithError(span, fmt.Errorf("component %s already registered", key))
			panic(fmt.Sprintf("compstore: component %s already registered", key))
		}
	} else {
		m[key] = NewCell(component)
		w.Release()
	}

	s.metrics.RecordInsert(ctx, key.String(), time.Since(start))
	observability.LogInsert(s.logger, s.id, key.String(), done())
	s.spans.EndSpanWithError(span, nil)
	return HandleFor[T](s)
}

// HandleFor returns a typed handle for component type T.
//
// While the store is Open, a handle can be requested before the component is
// inserted: an uninitialized cell is allocated and recorded, and reading
// through the handle panics until Insert fills it. After finalization the
// published map is consulted without locking, and a missing type panics:
// it means a handle was requested for a type that was never inserted, which
// is a wiring bug discovered at startup, not a recoverable condition.
func HandleFor[T any](s *Store) *Handle[T] {
	key := reflect.TypeFor[T]()

	// The published map is checked first: valid once set, no lock needed.
	if m := s.published.Load(); m != nil {
		if c, ok := (*m)[key]; ok {
			s.recordHandle(key, false)
			return handleFromCell[T](c)
		}
		panic(fmt.Sprintf("compstore: no component of type %s in finalized store", key))
	}

	r := s.mods.Read()
	c, ok := (*r.Value())[key]
	r.Release()
	if ok {
		s.recordHandle(key, false)
		return handleFromCell[T](c)
	}

	// Forward declaration. Re-probe under the write lock so concurrent
	// requests for the same type converge on a single cell.
	w := s.mods.Write()
	m := *w.Value()
	if c, ok := m[key]; ok {
		w.Release()
		s.recordHandle(key, false)
		return handleFromCell[T](c)
	}
	c = NewUninitializedCell[T]()
	m[key] = c
	w.Release()

	s.recordHandle(key, true)
	return handleFromCell[T](c)
}

func (s *Store) recordHandle(key reflect.Type, forward bool) {
	s.metrics.RecordHandleRequest(context.Background(), key.String(), forward)
	observability.LogHandleRequest(s.logger, s.id, key.String(), forward)
}

// FinishInitialization snapshots the open-phase map into the immutable
// published map. From then on lookups are lock-free and insertion is
// forbidden. Calling it a second time panics.
func (s *Store) FinishInitialization() {
	start := time.Now()
	done := observability.TimedOperation()
	ctx, span := s.spans.StartFinalizeSpan(context.Background(), s.id)

	r := s.mods.Read()
	src := *r.Value()
	snapshot := make(cellMap, len(src))
	for key, c := range src {
		c.Retain()
		snapshot[key] = c
		if !c.IsInitialized() {
			observability.LogUninitialized(s.logger, s.id, c.TypeName())
		}
	}
	r.Release()

	if !s.published.CompareAndSwap(nil, &snapshot) {
		for _, c := range snapshot {
			c.Release()
		}
		err := fmt.Errorf("store %s already finalized", s.id)
		s.spans.EndSpanWithError(span, err)
		panic("compstore: store already finalized")
	}

	s.metrics.RecordFinalize(ctx, len(snapshot), time.Since(start))
	observability.LogFinalize(s.logger, s.id, len(snapshot), done())
	s.spans.EndSpanWithError(span, nil)
}

// lookup finds the cell for key, consulting the published map first and
// falling back to the open-phase map under its read lock.
func (s *Store) lookup(key reflect.Type) (*Cell, bool) {
	if m := s.published.Load(); m != nil {
		c, ok := (*m)[key]
		return c, ok
	}
	r := s.mods.Read()
	c, ok := (*r.Value())[key]
	r.Release()
	return c, ok
}

// GetChecked returns a read guard over the component of type T, or false if
// no such component exists. Convenience for call sites that do not want to
// hold a Handle.
func GetChecked[T any](s *Store) (*ReadGuard[T], bool) {
	c, ok := s.lookup(reflect.TypeFor[T]())
	if !ok {
		return nil, false
	}
	return Read[T](c), true
}

// Get returns a read guard over the component of type T, panicking if the
// component does not exist.
func Get[T any](s *Store) *ReadGuard[T] {
	g, ok := GetChecked[T](s)
	if !ok {
		panic(fmt.Sprintf("compstore: component %s not found in store", reflect.TypeFor[T]()))
	}
	return g
}

// GetMutChecked returns a write guard over the component of type T, or
// false if no such component exists.
func GetMutChecked[T any](s *Store) (*WriteGuard[T], bool) {
	c, ok := s.lookup(reflect.TypeFor[T]())
	if !ok {
		return nil, false
	}
	g, err := tryWriteAt[T](c, callerSite(1))
	if err != nil {
		panic(fmt.Sprintf("compstore: write %s: %v", c.typeName, err))
	}
	return g, true
}

// GetMut returns a write guard over the component of type T, panicking if
// the component does not exist.
func GetMut[T any](s *Store) *WriteGuard[T] {
	g, ok := GetMutChecked[T](s)
	if !ok {
		panic(fmt.Sprintf("compstore: component %s not found in store", reflect.TypeFor[T]()))
	}
	return g
}

// String implements fmt.Stringer.
func (s *Store) String() string {
	return fmt.Sprintf("Store{id: %s, finalized: %t, components: %d}",
		s.id, s.IsFinalized(), s.Len())
}
