// Package storage provides pluggable key/value persistence for session
// documents. Implementations store one JSON document per key and share a
// uniform contract: a missing key is a nil result, never an error.
package storage

import "context"

// Store is the persistence contract used by the registry and the notebook
// manager. Keys are opaque strings; values are JSON-serializable.
type Store interface {
	// Save persists value under key, overwriting any existing document.
	Save(ctx context.Context, key string, value any) error

	// Load reads the document at key into out. It returns false with a
	// nil error when the key does not exist.
	Load(ctx context.Context, key string, out any) (bool, error)

	// Delete removes the document at key. Deleting a missing key is a
	// no-op.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a document is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// List returns all stored keys with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
