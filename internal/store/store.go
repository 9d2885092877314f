package store

import (
	"context"
	"errors"
)

// PersistentStore is the durable key-value contract the cart depends on.
// Values are opaque strings; Set overwrites.
type PersistentStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

var ErrNotFound = errors.New("key not found")
