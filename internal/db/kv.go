package db

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("key not found")

// KV is the device-local key/value storage every kiosk component persists
// through. Values are opaque JSON documents.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
