// Package localstore is the durable on-device key/value store. Each key holds one
// whole JSON document that is replaced atomically on every write.
package localstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has never been written.
var ErrNotFound = errors.New("localstore: key not found")

// Store reads and overwrites whole documents by key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
