package storage

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned when a key has no stored value.
var ErrKeyNotFound = errors.New("storage: key not found")

// Store is a key-value facility for named string blobs. It is the only
// durability surface the persistence layer ever talks to; everything
// above it works on in-memory collections.
type Store interface {
	// Get returns the blob stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Put stores the blob under key, overwriting any previous value.
	Put(ctx context.Context, key string, value string) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
