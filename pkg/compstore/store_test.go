package compstore

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type audioSystem struct {
	volume float64
}

type inputSystem struct {
	bindings map[string]int
}

func TestStoreInsertAndRead(t *testing.T) {
	s := NewStore()

	h := Insert(s, audioSystem{volume: 0.5})
	defer h.Release()

	g := h.Read()
	assert.Equal(t, 0.5, g.Value().volume)
	g.Release()

	assert.Equal(t, 1, s.Len())
	assert.False(t, s.IsFinalized())
}

func TestStoreInsertDuplicatePanics(t *testing.T) {
	s := NewStore()

	h := Insert(s, audioSystem{})
	defer h.Release()

	assert.Panics(t, func() {
		Insert(s, audioSystem{volume: 1})
	})
}

func TestStoreInsertDistinctTypes(t *testing.T) {
	s := NewStore()

	a := Insert(s, audioSystem{volume: 0.8})
	defer a.Release()
	i := Insert(s, inputSystem{bindings: map[string]int{"jump": 32}})
	defer i.Release()

	assert.Equal(t, 2, s.Len())

	g := i.Read()
	assert.Equal(t, 32, g.Value().bindings["jump"])
	g.Release()
}

func TestStoreInsertAfterFinalizePanics(t *testing.T) {
	s := NewStore()
	s.FinishInitialization()

	assert.PanicsWithValue(t, "compstore: insert into finalized store", func() {
		Insert(s, audioSystem{})
	})
}

// A handle requested before the component exists must start working the
// moment the component is inserted, without being re-requested.
func TestStoreForwardDeclaredHandle(t *testing.T) {
	s := NewStore()

	early := HandleFor[audioSystem](s)
	defer early.Release()

	_, err := early.TryRead()
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.Equal(t, 1, s.Len())

	late := Insert(s, audioSystem{volume: 0.25})
	defer late.Release()

	// Both handles reference the same cell.
	assert.Same(t, early.Cell(), late.Cell())

	g := early.Read()
	assert.Equal(t, 0.25, g.Value().volume)
	g.Release()
}

func TestStoreForwardDeclaredReadPanicsUntilInsert(t *testing.T) {
	s := NewStore()

	h := HandleFor[audioSystem](s)
	defer h.Release()

	assert.Panics(t, func() { h.Read() })
	assert.Panics(t, func() { h.Write() })
}

func TestStoreHandleForSameCell(t *testing.T) {
	s := NewStore()

	h1 := Insert(s, audioSystem{})
	defer h1.Release()
	h2 := HandleFor[audioSystem](s)
	defer h2.Release()

	assert.Same(t, h1.Cell(), h2.Cell())
	assert.Equal(t, 1, s.Len())
}

func TestStoreConcurrentHandleForConverges(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	handles := make([]*Handle[audioSystem], 16)
	for i := range handles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handles[i] = HandleFor[audioSystem](s)
		}()
	}
	wg.Wait()

	for _, h := range handles[1:] {
		assert.Same(t, handles[0].Cell(), h.Cell())
	}
	assert.Equal(t, 1, s.Len())
	for _, h := range handles {
		h.Release()
	}
}

func TestStoreFinalize(t *testing.T) {
	s := NewStore()

	h := Insert(s, audioSystem{volume: 0.9})
	defer h.Release()

	s.FinishInitialization()
	assert.True(t, s.IsFinalized())
	assert.Equal(t, 1, s.Len())

	// Lookups keep working, now against the published map.
	h2 := HandleFor[audioSystem](s)
	defer h2.Release()
	g := h2.Read()
	assert.Equal(t, 0.9, g.Value().volume)
	g.Release()
}

func TestStoreFinalizeTwicePanics(t *testing.T) {
	s := NewStore()
	s.FinishInitialization()

	assert.PanicsWithValue(t, "compstore: store already finalized", func() {
		s.FinishInitialization()
	})
}

func TestStoreFinalizedMissingTypePanics(t *testing.T) {
	s := NewStore()
	s.FinishInitialization()

	assert.Panics(t, func() {
		HandleFor[audioSystem](s)
	})
}

// Inserting while the dependent's forward-declared handle is live must fill
// the existing cell, not allocate a second one.
func TestStoreInsertFillsForwardDeclaredCell(t *testing.T) {
	s := NewStore()

	early := HandleFor[inputSystem](s)
	defer early.Release()

	late := Insert(s, inputSystem{bindings: map[string]int{"fire": 1}})
	defer late.Release()

	s.FinishInitialization()

	g := early.Read()
	assert.Equal(t, 1, g.Value().bindings["fire"])
	g.Release()
}

func TestStoreGetAccessors(t *testing.T) {
	s := NewStore()

	h := Insert(s, audioSystem{volume: 0.3})
	defer h.Release()

	g := Get[audioSystem](s)
	assert.Equal(t, 0.3, g.Value().volume)
	g.Release()

	w := GetMut[audioSystem](s)
	w.Value().volume = 0.6
	w.Release()

	g2, ok := GetChecked[audioSystem](s)
	require.True(t, ok)
	assert.Equal(t, 0.6, g2.Value().volume)
	g2.Release()

	_, ok = GetChecked[inputSystem](s)
	assert.False(t, ok)

	assert.Panics(t, func() { Get[inputSystem](s) })
	assert.Panics(t, func() { GetMut[inputSystem](s) })
}

func TestStoreGetAccessorsAfterFinalize(t *testing.T) {
	s := NewStore()

	h := Insert(s, audioSystem{volume: 0.4})
	defer h.Release()
	s.FinishInitialization()

	w, ok := GetMutChecked[audioSystem](s)
	require.True(t, ok)
	w.Set(audioSystem{volume: 0.7})
	w.Release()

	g := Get[audioSystem](s)
	assert.Equal(t, 0.7, g.Value().volume)
	g.Release()
}

func TestStoreConcurrentInsertDistinctTypes(t *testing.T) {
	s := NewStore()

	type c0 struct{ v int }
	type c1 struct{ v int }
	type c2 struct{ v int }
	type c3 struct{ v int }

	var wg sync.WaitGroup
	wg.Add(4)
	go func() { defer wg.Done(); Insert(s, c0{v: 0}).Release() }()
	go func() { defer wg.Done(); Insert(s, c1{v: 1}).Release() }()
	go func() { defer wg.Done(); Insert(s, c2{v: 2}).Release() }()
	go func() { defer wg.Done(); Insert(s, c3{v: 3}).Release() }()
	wg.Wait()

	assert.Equal(t, 4, s.Len())
	s.FinishInitialization()

	g := Get[c2](s)
	assert.Equal(t, 2, g.Value().v)
	g.Release()
}

func TestStoreWithOptions(t *testing.T) {
	s := NewStore(WithStoreID("test-store"))
	assert.Equal(t, "test-store", s.ID())

	// Empty id keeps the generated one.
	s2 := NewStore(WithStoreID(""))
	assert.NotEmpty(t, s2.ID())
}

func TestStoreString(t *testing.T) {
	s := NewStore(WithStoreID("render"))
	h := Insert(s, audioSystem{})
	defer h.Release()

	assert.Equal(t, "Store{id: render, finalized: false, components: 1}", s.String())
	s.FinishInitialization()
	assert.Equal(t, "Store{id: render, finalized: true, components: 1}", s.String())
}
