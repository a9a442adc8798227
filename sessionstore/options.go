package sessionstore

// StoreOption is a type for functions that configure a Store.
// These functions are intended to be used with the New function
// to create a customized Store instance.
type StoreOption func(s *Store)

// WithName returns a StoreOption that sets the storage namespace. All physical
// keys written to the backend are prefixed with this name, so stores with
// different names sharing one backend never collide.
//
// Example:
//
//	New(backend, WithName("session"))
func WithName(name string) StoreOption {
	return func(s *Store) {
		if name != "" {
			s.name = name
		}
	}
}

// WithCache returns a StoreOption that enables the in-memory mirror. Reads hit
// the mirror first and writes keep it up to date, avoiding a deserialization
// round trip per Get. The mirror belongs to one Store instance; two cached
// instances over the same namespace drift apart silently.
func WithCache() StoreOption {
	return func(s *Store) {
		s.useCache = true
	}
}
