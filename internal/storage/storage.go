// Package storage defines the TTL-aware key/value contract every higher
// component of the token authority depends on. Implementations only need to
// provide the string primitive; Wrap derives the structured-object operations
// from it via JSON serialization.
package storage

import "context"

// TTL sentinels shared by every implementation.
const (
	// NeverExpire marks a key that must not expire.
	NeverExpire int64 = -1
	// NotValueExpire is returned by the timeout getters when the key is absent.
	NotValueExpire int64 = -2
)

// StringStore is the minimal primitive a backend has to implement: a string
// key/value store with per-key TTL in seconds.
type StringStore interface {
	// Get returns the value for key, or "" when the key is absent or expired.
	Get(ctx context.Context, key string) (string, error)
	// Set writes value under key with the given TTL in seconds.
	// NeverExpire keeps the key forever; a TTL of 0 deletes it.
	Set(ctx context.Context, key, value string, ttl int64) error
	// Update overwrites the value while keeping the remaining TTL.
	// Updating an absent key is a no-op.
	Update(ctx context.Context, key, value string) error
	// Delete removes the key.
	Delete(ctx context.Context, key string) error
	// GetTimeout returns the remaining TTL in seconds, NeverExpire for keys
	// without expiry, or NotValueExpire when the key is absent.
	GetTimeout(ctx context.Context, key string) (int64, error)
	// UpdateTimeout replaces the remaining TTL of an existing key.
	UpdateTimeout(ctx context.Context, key string, ttl int64) error

	// SearchKeys enumerates keys for administrative browsing: keys starting
	// with prefix and containing keyword, sorted, paginated from start with
	// at most size entries (size < 0 returns the rest).
	SearchKeys(ctx context.Context, prefix, keyword string, start, size int, ascending bool) ([]string, error)

	// Init starts background resources owned by the implementation, such as
	// an expiry sweep or a connection pool.
	Init() error
	// Destroy stops whatever Init started.
	Destroy() error
}

// ObjectStore mirrors StringStore for arbitrary serializable values.
type ObjectStore interface {
	// GetObject decodes the value for key into dest and reports whether the
	// key was present.
	GetObject(ctx context.Context, key string, dest any) (bool, error)
	SetObject(ctx context.Context, key string, value any, ttl int64) error
	UpdateObject(ctx context.Context, key string, value any) error
	DeleteObject(ctx context.Context, key string) error
	GetObjectTimeout(ctx context.Context, key string) (int64, error)
	UpdateObjectTimeout(ctx context.Context, key string, ttl int64) error
}

// Storage is the full persistence contract consumed by the engine.
type Storage interface {
	StringStore
	ObjectStore
}

// ConditionalSetter is an optional extension. Backends that can write
// atomically only-if-absent should implement it; the engine then uses it to
// close the token-mint check-then-act race.
type ConditionalSetter interface {
	// SetIfAbsent writes value under key only when the key does not exist,
	// reporting whether the write happened.
	SetIfAbsent(ctx context.Context, key, value string, ttl int64) (bool, error)
}
