// Package typemap provides non-concurrent companion type maps for transient
// data keyed by type identity.
//
// Unlike the component store, nothing here takes a lock or counts
// references: TypeMap is a plain typed dictionary intended for per-frame
// scratch data owned by a single goroutine, and ImmutableTypeMap hands out
// shared pointers that stay valid after removal.
package typemap

import (
	"fmt"
	"reflect"
)

// TypeMap stores at most one value per type. The zero value is not usable;
// call New. Not safe for concurrent use.
type TypeMap struct {
	entries map[reflect.Type]container
}

// container pairs a stored value with its type name for debug output.
// The value field is always a *T for the entry's key type T.
type container struct {
	typeName string
	value    any
}

// New creates a new, empty TypeMap.
func New() *TypeMap {
	return &TypeMap{entries: make(map[reflect.Type]container)}
}

// Insert stores a value, replacing any previous value of the same type.
func Insert[T any](m *TypeMap, value T) {
	typ := reflect.TypeFor[T]()
	v := value
	m.entries[typ] = container{typeName: typ.String(), value: &v}
}

// Get returns a pointer to the stored value of type T, or false if absent.
// The pointer stays valid until the entry is removed or replaced; mutations
// through it are visible to later Gets.
func Get[T any](m *TypeMap) (*T, bool) {
	entry, ok := m.entries[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	return entry.value.(*T), true
}

// Remove deletes and returns the stored value of type T.
func Remove[T any](m *TypeMap) (T, bool) {
	typ := reflect.TypeFor[T]()
	entry, ok := m.entries[typ]
	if !ok {
		var zero T
		return zero, false
	}
	delete(m.entries, typ)
	return *entry.value.(*T), true
}

// Clear removes all entries.
func (m *TypeMap) Clear() {
	clear(m.entries)
}

// Len returns the number of stored entries.
func (m *TypeMap) Len() int {
	return len(m.entries)
}

// String implements fmt.Stringer.
func (m *TypeMap) String() string {
	return fmt.Sprintf("TypeMap{%d entries}", len(m.entries))
}

// ImmutableTypeMap stores one shared value per type. Values are handed out
// as pointers that remain valid for as long as the caller keeps them, even
// after Remove. Access is read-only by convention; the map itself is not
// safe for concurrent mutation.
type ImmutableTypeMap struct {
	entries map[reflect.Type]any
}

// NewImmutable creates a new, empty ImmutableTypeMap.
func NewImmutable() *ImmutableTypeMap {
	return &ImmutableTypeMap{entries: make(map[reflect.Type]any)}
}

// InsertShared stores a value behind a shared pointer.
func InsertShared[T any](m *ImmutableTypeMap, value T) {
	v := value
	m.entries[reflect.TypeFor[T]()] = &v
}

// GetShared returns the shared pointer for type T, or false if absent.
func GetShared[T any](m *ImmutableTypeMap) (*T, bool) {
	entry, ok := m.entries[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	return entry.(*T), true
}

// RemoveShared deletes the entry for type T and returns its shared pointer.
// Outstanding pointers remain valid.
func RemoveShared[T any](m *ImmutableTypeMap) (*T, bool) {
	typ := reflect.TypeFor[T]()
	entry, ok := m.entries[typ]
	if !ok {
		return nil, false
	}
	delete(m.entries, typ)
	return entry.(*T), true
}

// Keys returns the type identities of all stored entries.
// The order is not guaranteed.
func (m *ImmutableTypeMap) Keys() []reflect.Type {
	keys := make([]reflect.Type, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	return keys
}
