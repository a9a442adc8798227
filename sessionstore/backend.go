package sessionstore

// Backend is the flat string-keyed store the adapter persists into - the
// equivalent of a browser's session storage area. A Backend holds raw strings
// only; all serialization happens in the Store above it.
//
// Absence is reported through GetItem's boolean rather than an error, because
// a missing key is a normal outcome, not a failure. Store-level failures
// (store unavailable, quota exceeded) travel through the error return and are
// propagated by the Store unmodified.
type Backend interface {

	// GetItem returns the string stored under key, or ok=false when no value
	// is stored.
	GetItem(key string) (value string, ok bool, err error)

	// SetItem stores value under key, replacing any previous value.
	SetItem(key string, value string) error

	// RemoveItem deletes key from the store. Removing an absent key is not an
	// error.
	RemoveItem(key string) error
}
