package fallback

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a PersistentStore when no entry exists for a key.
var ErrNotFound = errors.New("fallback: no cached entry")

// PersistentStore is the durable layer of the fallback cache: a key-value
// store that survives process restarts. Payloads are opaque blobs; the
// cache owns their serialization.
type PersistentStore interface {
	Put(ctx context.Context, key string, payload []byte, ts time.Time) error
	Get(ctx context.Context, key string) ([]byte, time.Time, error)
	Delete(ctx context.Context, key string) error
	ListKeys(ctx context.Context) ([]string, error)
}
