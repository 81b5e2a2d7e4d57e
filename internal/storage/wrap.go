package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// Wrap derives the object operations from a string-only backend via JSON, so
// a new backend only has to implement its most natural primitive. Backends
// that already satisfy the full contract are returned unchanged, and the
// optional ConditionalSetter surface of the backend is preserved either way.
func Wrap(backend StringStore) Storage {
	if full, ok := backend.(Storage); ok {
		return full
	}
	if cs, ok := backend.(ConditionalSetter); ok {
		return &conditionalObjectFollows{
			objectFollowsString{backend},
			cs,
		}
	}
	return &objectFollowsString{backend}
}

// objectFollowsString is the Object-follows-String tier: object values are
// JSON documents stored through the string primitive.
type objectFollowsString struct {
	StringStore
}

func (s *objectFollowsString) GetObject(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("failed to decode object at %q: %w", key, err)
	}
	return true, nil
}

func (s *objectFollowsString) SetObject(ctx context.Context, key string, value any, ttl int64) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode object for %q: %w", key, err)
	}
	return s.Set(ctx, key, string(raw), ttl)
}

func (s *objectFollowsString) UpdateObject(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode object for %q: %w", key, err)
	}
	return s.Update(ctx, key, string(raw))
}

func (s *objectFollowsString) DeleteObject(ctx context.Context, key string) error {
	return s.Delete(ctx, key)
}

func (s *objectFollowsString) GetObjectTimeout(ctx context.Context, key string) (int64, error) {
	return s.GetTimeout(ctx, key)
}

func (s *objectFollowsString) UpdateObjectTimeout(ctx context.Context, key string, ttl int64) error {
	return s.UpdateTimeout(ctx, key, ttl)
}

type conditionalObjectFollows struct {
	objectFollowsString
	cs ConditionalSetter
}

func (s *conditionalObjectFollows) SetIfAbsent(ctx context.Context, key, value string, ttl int64) (bool, error) {
	return s.cs.SetIfAbsent(ctx, key, value, ttl)
}
