// Package blobstore abstracts the object storage the pipeline reads snapshots
// from and writes cleaned output to. The surface is deliberately narrow
// (get/put/list-by-prefix) so tests can substitute an in-memory store.
package blobstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no object exists at the key.
var ErrNotFound = errors.New("blobstore: object not found")

// Store is a bucket-scoped key/value object store.
//
// Each call is assumed independently atomic; there is no cross-call
// transaction guarantee.
type Store interface {
	// Get returns the object bytes, or ErrNotFound.
	Get(ctx context.Context, bucket, key string) ([]byte, error)

	// Put writes the object, replacing any existing value.
	Put(ctx context.Context, bucket, key string, data []byte) error

	// List returns up to maxKeys object keys under the prefix, in
	// lexicographic order. maxKeys <= 0 means no limit.
	List(ctx context.Context, bucket, prefix string, maxKeys int) ([]string, error)
}
