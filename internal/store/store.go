// Package store defines the key-value Store owned by an executor and the
// backends that implement it.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-ports/minidb/internal/db"
	"github.com/go-ports/minidb/internal/models"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// ErrUnknownBackend is returned by Open for an unrecognised backend name.
var ErrUnknownBackend = errors.New("unknown store backend")

// Store maps keys to values. Keys compare by exact string equality.
// Implementations never persist across process runs.
type Store interface {
	// Get returns the value under key and whether it exists.
	Get(key string) (models.Value, bool, error)
	// Put creates or replaces the value under key.
	Put(key string, v models.Value) error
	// Entries returns every entry in the order keys were first stored.
	Entries() ([]models.Entry, error)
	// Len returns the number of keys.
	Len() (int, error)
	// Close releases backend resources.
	Close() error
}

// Open returns a fresh, empty Store for the named backend.
// An empty name selects the memory backend.
func Open(backend string) (Store, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendSQLite:
		d, err := db.Open()
		if err != nil {
			return nil, fmt.Errorf("store.Open: %w", err)
		}
		return d, nil
	}
	return nil, fmt.Errorf("store.Open: %w: %q", ErrUnknownBackend, backend)
}

// ---------------------------------------------------------------------------
// Memory
// ---------------------------------------------------------------------------

// Memory is a map-backed Store that remembers key insertion order.
type Memory struct {
	mu     sync.RWMutex
	values map[string]models.Value
	order  []string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]models.Value)}
}

// Get implements Store.
func (m *Memory) Get(key string) (models.Value, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Put implements Store.
func (m *Memory) Put(key string, v models.Value) error {
	if v.IsZero() {
		return fmt.Errorf("store.Memory.Put %q: %w", key, models.ErrInvalidValue)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; !ok {
		m.order = append(m.order, key)
	}
	m.values[key] = v
	return nil
}

// Entries implements Store.
func (m *Memory) Entries() ([]models.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Entry, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, models.Entry{Key: k, Value: m.values[k]})
	}
	return out, nil
}

// Len implements Store.
func (m *Memory) Len() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values), nil
}

// Close implements Store. It is a no-op.
func (*Memory) Close() error { return nil }
