package cache

import (
	"context"
	"time"
)

type (
	// A Store is the external key-value backend that session state
	// lives behind. Implementations must be safe for concurrent use;
	// writes to the same key are last-writer-wins
	Store interface {
		// Get returns the value stored under key, reporting
		// whether the key was present
		Get(ctx context.Context, key string) (string, bool, error)
		// Set writes value under key. A positive ttl lets the
		// backend evict the entry on its own once it elapses;
		// zero or negative means no backend-side eviction
		Set(ctx context.Context, key string, value string, ttl time.Duration) error
		// Delete removes key. Deleting an absent key is not an error
		Delete(ctx context.Context, key string) error
	}
)

var nowFunc = time.Now
