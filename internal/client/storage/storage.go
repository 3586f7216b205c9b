package storage

import "context"

// Storage is a string key/value store.
//
// GetItem returns ok=false (and a nil error) when the key is absent.
type Storage interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	SetItems(ctx context.Context, items map[string]string) error
	RemoveItem(ctx context.Context, key string) error
	RemoveItems(ctx context.Context, keys ...string) error
	Keys(ctx context.Context) ([]string, error)
}
