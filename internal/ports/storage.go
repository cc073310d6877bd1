package ports

import "context"

// Storage is durable client-side key/value storage. Get on a missing key
// returns an error matching domain.ErrStorageKeyNotFound.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
