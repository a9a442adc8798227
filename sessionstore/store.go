package sessionstore

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// DefaultName is the storage namespace used when no WithName option is given.
const DefaultName = "storage"

const (
	registryPrefix = "__"
	registrySuffix = "-keys-array"
)

// Error definitions for common error cases.
var (
	// ErrNotFound returned when a key holds no value in the namespace.
	ErrNotFound = errors.New("key not found")

	// ErrReservedKey returned when Set is called with the key registry's own
	// key name.
	ErrReservedKey = errors.New("key is reserved for the key registry")

	// ErrStorageDeleted returned by every operation after DeleteStorage has run.
	ErrStorageDeleted = errors.New("storage was deleted")
)

// Store adapts a flat string-keyed Backend to a namespaced key/value storage
// interface. Each logical key k is persisted under "{name}-{k}" as a JSON
// envelope, and an ordered key registry is kept under "__{name}-keys-array" so
// the namespace can be sized, enumerated and cleared without scanning the
// backend.
//
// A Store is synchronous and designed for single-threaded use. Two instances
// over the same namespace are unsupported: each keeps its own view of the
// registry (and cache, when enabled) with no invalidation between them.
type Store struct {
	backend     Backend
	name        string
	registryKey string
	useCache    bool

	cache      map[string]interface{}
	cachedKeys []string
	deleted    bool
	initErr    error
}

// New creates a Store over the given backend with optional configuration.
// Call Initialize before use to bootstrap the key registry.
func New(backend Backend, options ...StoreOption) *Store {
	store := &Store{
		backend: backend,
		name:    DefaultName,
	}

	for _, opt := range options {
		opt(store)
	}

	store.registryKey = registryPrefix + store.name + registrySuffix
	if store.useCache {
		store.cache = make(map[string]interface{})
	}
	return store
}

// Initialize bootstraps the namespace: the key registry is created as an empty
// list if absent, or loaded into the mirror when caching is enabled. A backend
// failure is returned and also recorded, so every subsequent operation fails
// with the same error until a later Initialize succeeds.
func (s *Store) Initialize() error {
	if s.deleted {
		return ErrStorageDeleted
	}

	raw, ok, err := s.backend.GetItem(s.registryKey)
	if err != nil {
		s.initErr = fmt.Errorf("Store.Initialize backend.GetItem: %w", err)
		return s.initErr
	}

	if !ok {
		if err := s.writeRegistry([]string{}); err != nil {
			s.initErr = err
			return s.initErr
		}
		if s.useCache {
			s.cachedKeys = []string{}
		}
		log.Debug().Str("name", s.name).Msg("sessionstore: created empty key registry")
		s.initErr = nil
		return nil
	}

	if s.useCache {
		keys, err := decodeRegistry(raw)
		if err != nil {
			s.initErr = fmt.Errorf("Store.Initialize: %w", err)
			return s.initErr
		}
		s.cachedKeys = keys
	}
	s.initErr = nil
	return nil
}

// Name returns the configured storage namespace.
func (s *Store) Name() string {
	return s.name
}

// Synchronous reports whether operations complete before returning. They
// always do; the backend contract has no asynchronous surface.
func (s *Store) Synchronous() bool {
	return true
}

// Get retrieves the value stored under key. An absent key returns ErrNotFound;
// a stored null payload returns (nil, nil). Returned values never alias
// internal state: cache hits are deep-copied and uncached reads deserialize a
// fresh value, so mutating a returned value cannot change a later Get.
func (s *Store) Get(key string) (interface{}, error) {
	if err := s.alive(); err != nil {
		return nil, err
	}

	if s.useCache {
		if v, ok := s.cache[key]; ok {
			copied, err := deepCopy(v)
			if err != nil {
				return nil, fmt.Errorf("Store.Get deepCopy: %w", err)
			}
			return copied, nil
		}
	}

	raw, ok, err := s.backend.GetItem(s.itemKey(key))
	if err != nil {
		return nil, fmt.Errorf("Store.Get backend.GetItem: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}

	value, err := unwrapValue(raw)
	if err != nil {
		return nil, fmt.Errorf("Store.Get: %w", err)
	}

	if s.useCache {
		copied, err := deepCopy(value)
		if err != nil {
			return nil, fmt.Errorf("Store.Get deepCopy: %w", err)
		}
		s.cache[key] = copied
	}
	return value, nil
}

// Set stores value under key, registering the key on first insertion. The
// registry is persisted before the value: if the value write then fails, the
// registry may list a key with no stored entry (known non-atomicity, the
// operations are not transactional).
func (s *Store) Set(key string, value interface{}) error {
	if err := s.alive(); err != nil {
		return err
	}
	if key == s.registryKey {
		return ErrReservedKey
	}

	keys, err := s.registry()
	if err != nil {
		return err
	}
	if !containsKey(keys, key) {
		keys = append(keys, key)
		if err := s.writeRegistry(keys); err != nil {
			return err
		}
	}

	raw, err := wrapValue(value)
	if err != nil {
		return fmt.Errorf("Store.Set: %w", err)
	}
	if err := s.backend.SetItem(s.itemKey(key), raw); err != nil {
		return fmt.Errorf("Store.Set backend.SetItem: %w", err)
	}

	if s.useCache {
		copied, err := deepCopy(value)
		if err != nil {
			return fmt.Errorf("Store.Set deepCopy: %w", err)
		}
		s.cache[key] = copied
		s.cachedKeys = keys
	}
	return nil
}

// Remove deletes key from the namespace. Removing an absent key is not an
// error.
func (s *Store) Remove(key string) error {
	if err := s.alive(); err != nil {
		return err
	}

	keys, err := s.registry()
	if err != nil {
		return err
	}
	updated := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != key {
			updated = append(updated, k)
		}
	}
	if err := s.writeRegistry(updated); err != nil {
		return err
	}
	if err := s.backend.RemoveItem(s.itemKey(key)); err != nil {
		return fmt.Errorf("Store.Remove backend.RemoveItem: %w", err)
	}

	if s.useCache {
		delete(s.cache, key)
		s.cachedKeys = updated
	}
	return nil
}

// Clear deletes every entry in the namespace and resets the registry to an
// empty list.
func (s *Store) Clear() error {
	if err := s.alive(); err != nil {
		return err
	}
	return s.clear()
}

// Size returns the number of keys currently holding a value in the namespace.
func (s *Store) Size() (int, error) {
	if err := s.alive(); err != nil {
		return 0, err
	}
	keys, err := s.registry()
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Key returns the logical key at the given ordinal position, in first-set
// order. An out-of-range index returns an empty string and no error.
func (s *Store) Key(index int) (string, error) {
	if err := s.alive(); err != nil {
		return "", err
	}
	keys, err := s.registry()
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(keys) {
		return "", nil
	}
	return keys[index], nil
}

// Keys returns a snapshot of all logical keys in the namespace in first-set
// order.
func (s *Store) Keys() ([]string, error) {
	if err := s.alive(); err != nil {
		return nil, err
	}
	keys, err := s.registry()
	if err != nil {
		return nil, err
	}
	snapshot := make([]string, len(keys))
	copy(snapshot, keys)
	return snapshot, nil
}

// DeleteStorage clears the namespace, removes the key registry itself and
// marks the instance deleted. Every subsequent operation fails with
// ErrStorageDeleted.
func (s *Store) DeleteStorage() error {
	if err := s.alive(); err != nil {
		return err
	}
	if err := s.clear(); err != nil {
		return err
	}
	if err := s.backend.RemoveItem(s.registryKey); err != nil {
		return fmt.Errorf("Store.DeleteStorage backend.RemoveItem: %w", err)
	}

	s.deleted = true
	s.cache = nil
	s.cachedKeys = nil
	log.Debug().Str("name", s.name).Msg("sessionstore: storage deleted")
	return nil
}

// alive is the guard every public operation runs first.
func (s *Store) alive() error {
	if s.deleted {
		return ErrStorageDeleted
	}
	return s.initErr
}

func (s *Store) clear() error {
	keys, err := s.registry()
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.backend.RemoveItem(s.itemKey(k)); err != nil {
			return fmt.Errorf("Store.clear backend.RemoveItem: %w", err)
		}
	}
	if err := s.writeRegistry([]string{}); err != nil {
		return err
	}

	if s.useCache {
		s.cache = make(map[string]interface{})
		s.cachedKeys = []string{}
	}
	return nil
}

// registry returns the current key registry, serving the mirror when caching
// is enabled and populated, otherwise reading fresh from the backend. An
// absent registry reads as empty.
func (s *Store) registry() ([]string, error) {
	if s.useCache && s.cachedKeys != nil {
		return s.cachedKeys, nil
	}

	raw, ok, err := s.backend.GetItem(s.registryKey)
	if err != nil {
		return nil, fmt.Errorf("Store.registry backend.GetItem: %w", err)
	}
	if !ok {
		return []string{}, nil
	}
	keys, err := decodeRegistry(raw)
	if err != nil {
		return nil, fmt.Errorf("Store.registry: %w", err)
	}
	return keys, nil
}

func (s *Store) writeRegistry(keys []string) error {
	raw, err := encodeRegistry(keys)
	if err != nil {
		return fmt.Errorf("Store.writeRegistry: %w", err)
	}
	if err := s.backend.SetItem(s.registryKey, raw); err != nil {
		return fmt.Errorf("Store.writeRegistry backend.SetItem: %w", err)
	}
	return nil
}

func (s *Store) itemKey(key string) string {
	return s.name + "-" + key
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
