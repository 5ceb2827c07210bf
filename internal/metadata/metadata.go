// Package metadata resolves the cascading, directory-scoped key/value
// configuration of a site.
//
// Every directory under the data root may hold a metadata.txt file of
// `key = value` lines. Resolve merges the files from the top-level data
// directory down to a document's own directory, later (more specific) files
// overriding earlier ones. Parsed files are kept in a Cache owned by one
// build run, so each file is read at most once per run.
package metadata

import (
	"sync"

	"git.home.luguber.info/inful/zensite/internal/literal"
)

// Metadata is an ordered key/value container with last-write-wins semantics.
// Lookups of unknown keys report absence; there is no implicit default.
type Metadata struct {
	mu      sync.RWMutex
	entries *literal.Map
}

func New() *Metadata {
	return &Metadata{entries: literal.NewMap()}
}

// Get returns the value stored under key.
func (m *Metadata) Get(key string) (literal.Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries.Get(key)
}

func (m *Metadata) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// GetString returns the display form of a scalar value.
func (m *Metadata) GetString(key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok || !v.IsScalar() {
		return "", false
	}
	return v.String(), true
}

// GetStrings returns a string or list of scalars as a slice.
func (m *Metadata) GetStrings(key string) ([]string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	return v.Strings()
}

func (m *Metadata) Set(key string, v literal.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries.Set(key, v)
}

// SetDefault stores v only when key is not present yet.
func (m *Metadata) SetDefault(key string, v literal.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries.Get(key); !ok {
		m.entries.Set(key, v)
	}
}

// Merge copies every entry of src over m. src is not retained.
func (m *Metadata) Merge(src *literal.Map) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src.Each(m.entries.Set)
}

// Keys returns the keys in first-insertion order.
func (m *Metadata) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries.Keys()
}

func (m *Metadata) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries.Len()
}
