package session

import (
	"context"

	"github.com/orris-inc/tokengate/internal/storage"
)

// Repository is the Session-follows-Object tier of the persistence contract:
// sessions ride on the store's object operations, so every backend gets
// session support for free.
type Repository struct {
	store storage.Storage
}

// NewRepository wraps a store.
func NewRepository(store storage.Storage) *Repository {
	return &Repository{store: store}
}

// GetSession loads the session stored under id, or nil when absent.
func (r *Repository) GetSession(ctx context.Context, id string) (*Session, error) {
	var s Session
	found, err := r.store.GetObject(ctx, id, &s)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return s.bind(r), nil
}

// SetSession writes a session with the given TTL and binds it to the repository.
func (r *Repository) SetSession(ctx context.Context, s *Session, ttl int64) error {
	if err := r.store.SetObject(ctx, s.ID, s, ttl); err != nil {
		return err
	}
	s.bind(r)
	return nil
}

// UpdateSession rewrites a session in place, keeping its TTL.
func (r *Repository) UpdateSession(ctx context.Context, s *Session) error {
	return r.store.UpdateObject(ctx, s.ID, s)
}

// DeleteSession removes the session stored under id.
func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	return r.store.DeleteObject(ctx, id)
}

// GetSessionTimeout returns the remaining TTL in seconds, with the storage
// sentinels for never-expire and absent.
func (r *Repository) GetSessionTimeout(ctx context.Context, id string) (int64, error) {
	return r.store.GetObjectTimeout(ctx, id)
}

// UpdateSessionTimeout replaces the TTL of the session stored under id.
func (r *Repository) UpdateSessionTimeout(ctx context.Context, id string, ttl int64) error {
	return r.store.UpdateObjectTimeout(ctx, id, ttl)
}
