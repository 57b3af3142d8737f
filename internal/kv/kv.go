// Package kv defines the opaque key-value store that holds per-session
// state, and an in-memory implementation of it.
package kv

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned by Get for absent keys.
var ErrNotFound = errors.New("key not found")

// UpdateFunc computes the next value of a key from its current one. found
// is false for absent keys. Returning a nil next deletes the key; returning
// an error aborts the update without writing.
type UpdateFunc func(current []byte, found bool) (next []byte, err error)

// Store is a namespaced byte store. Update must be atomic per key:
// concurrent updates of the same key are applied one after another.
type Store interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Put(ctx context.Context, namespace, key string, value []byte) error
	Delete(ctx context.Context, namespace, key string) error
	Update(ctx context.Context, namespace, key string, fn UpdateFunc) error
	// Keys lists the keys of a namespace updated at or after since.
	Keys(ctx context.Context, namespace string, since time.Time) ([]string, error)
}
