package storage

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrQuotaExceeded returned by SetItem when a write would push the store past
// its configured quota.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Memory is an in-process session store: a flat map of string keys to string
// values shared by every adapter holding a reference to it. An optional quota
// bounds the total bytes of stored keys and values, mirroring the limits of a
// real session storage area.
//
// The map is guarded with a lock because the store is process-wide shared
// state; individual operations are atomic but sequences of them are not.
type Memory struct {
	items map[string]string
	quota int
	used  int
	lock  sync.RWMutex
}

// MemoryOption is a type for functions that configure a Memory store.
type MemoryOption func(m *Memory)

// WithQuota returns a MemoryOption that bounds the total size in bytes of all
// stored keys and values. Zero means unbounded.
func WithQuota(bytes int) MemoryOption {
	return func(m *Memory) {
		m.quota = bytes
	}
}

// NewMemory creates an empty in-memory store.
func NewMemory(options ...MemoryOption) *Memory {
	m := &Memory{items: make(map[string]string)}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// GetItem returns the value stored under key, or ok=false when absent.
func (m *Memory) GetItem(key string) (string, bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	value, ok := m.items[key]
	return value, ok, nil
}

// SetItem stores value under key, replacing any previous value. Fails with
// ErrQuotaExceeded when a quota is set and the write would exceed it; the
// previous value, if any, is left in place.
func (m *Memory) SetItem(key, value string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	used := m.used + len(key) + len(value)
	if prev, ok := m.items[key]; ok {
		used -= len(key) + len(prev)
	}
	if m.quota > 0 && used > m.quota {
		return errors.Wrapf(ErrQuotaExceeded, "Memory.SetItem %q", key)
	}

	m.items[key] = value
	m.used = used
	return nil
}

// RemoveItem deletes key from the store. Removing an absent key is not an
// error.
func (m *Memory) RemoveItem(key string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if prev, ok := m.items[key]; ok {
		m.used -= len(key) + len(prev)
		delete(m.items, key)
	}
	return nil
}

// Len reports the number of items currently stored.
func (m *Memory) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.items)
}
