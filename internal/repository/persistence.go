package repository

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Persistence.Read when nothing was stored under the key.
var ErrKeyNotFound = errors.New("key not found")

// Persistence is the capability set the entity store needs from a backend.
type Persistence interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, value []byte) error
}
