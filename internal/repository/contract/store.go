package contract

import "context"

// Store is the durable key-value persistence boundary. Values are opaque
// JSON blobs. Get returns (nil, nil) when the key does not exist.
//
// Backends: in-memory (tests/dev), redis, postgres. All three are
// substitutable; nothing above this interface knows which one is wired.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
