// Package kv is the on-device persistence collaborator: an opaque string
// key-value store. Collections are serialized whole by their owners and
// written under fixed keys; each Set is independent, there is no
// transaction spanning keys.
package kv

// Store is the persistence contract the rest of the application sees.
type Store interface {
	// Get returns the value for key and whether the key exists.
	Get(key string) (string, bool, error)
	// Set writes value under key, replacing any previous value.
	Set(key string, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
}
